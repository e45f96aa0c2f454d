package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"themegate/cmd/themegate/ui"
	"themegate/internal/fx"
	"themegate/internal/theme"
)

var tiers = []theme.FxQuality{theme.FxOff, theme.FxLow, theme.FxMedium, theme.FxHigh}

// gatingTable lists every effect with its minimum tier.
func gatingTable() *ui.SimpleTable {
	tbl := ui.NewSimpleTable("Effect gating", []string{"Effect", "Min tier", "Heavy", "Baseline"})
	for _, effect := range fx.Effects() {
		tier, _ := fx.MinimumTier(effect)
		tbl.AddRow(string(effect), tier.String(), strconv.FormatBool(fx.IsHeavy(effect)), strconv.FormatBool(fx.IsBaseline(effect)))
	}
	return tbl
}

// stackTable lists each theme's enabled stack at every tier, plus the high
// tier under reduced motion.
func stackTable() *ui.SimpleTable {
	headers := []string{"Theme"}
	for _, q := range tiers {
		headers = append(headers, q.String())
	}
	headers = append(headers, "high, reduced")

	tbl := ui.NewSimpleTable("Theme stacks", headers)
	for _, id := range theme.All() {
		row := []string{id.String()}
		for _, q := range tiers {
			stack := fx.ResolveThemePostFxStack(fx.StackInput{ThemeID: id, FxQuality: q, MotionMode: theme.MotionFull})
			row = append(row, joinEffects(stack.Enabled))
		}
		reduced := fx.ResolveThemePostFxStack(fx.StackInput{
			ThemeID: id, FxQuality: theme.FxHigh, MotionMode: theme.MotionFull, ReducedMotion: true,
		})
		row = append(row, joinEffects(reduced.Enabled))
		tbl.AddRow(row...)
	}
	return tbl
}

func newMatrixCmd() *cobra.Command {
	var (
		markdown bool
		style    string
	)

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Print the effect gating matrix and every theme's stack per tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gating, stacks := gatingTable(), stackTable()

			if markdown {
				md := "# Post-FX matrix\n\n" + gating.Markdown() + "\n" + stacks.Markdown()
				if style == "" {
					fmt.Fprint(cmd.OutOrStdout(), md)
					return nil
				}
				out, err := glamour.Render(md, style)
				if err != nil {
					return fmt.Errorf("failed to render markdown: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}

			styles := ui.StylesFor(theme.DefaultTheme)
			fmt.Fprint(cmd.OutOrStdout(), gating.View(styles)+"\n"+stacks.View(styles))
			return nil
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "Emit markdown tables")
	cmd.Flags().StringVar(&style, "style", "dark", `glamour style for --markdown ("" for raw markdown)`)
	return cmd
}

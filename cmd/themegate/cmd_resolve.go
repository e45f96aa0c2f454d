package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"themegate/cmd/themegate/ui"
	"themegate/internal/diagnostics"
	"themegate/internal/engine"
	"themegate/internal/fx"
	"themegate/internal/motion"
	"themegate/internal/theme"
	"themegate/internal/ux"
)

// inputFlags are the per-command overrides of stored preferences.
type inputFlags struct {
	theme         string
	quality       int
	motion        string
	intensity     float64
	systemReduced bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.theme, "theme", "", "Theme id (default from preferences)")
	cmd.Flags().IntVar(&f.quality, "quality", 0, "FX quality 0-3 (default from preferences)")
	cmd.Flags().StringVar(&f.motion, "motion", "", "Motion mode: full, toned-down, off")
	cmd.Flags().Float64Var(&f.intensity, "intensity", 0, "Interaction intensity 0-1")
	cmd.Flags().BoolVar(&f.systemReduced, "system-reduced-motion", false, "OS reduced-motion signal")
}

// rawInput merges stored preferences with explicitly set flags.
func (f *inputFlags) rawInput(cmd *cobra.Command, prefs ux.Preferences) motion.RawInput {
	raw := prefs.RawInput(f.systemReduced)
	if cmd.Flags().Changed("theme") {
		raw.ThemeID = f.theme
	}
	if cmd.Flags().Changed("quality") {
		raw.FxQuality = motion.Float(float64(f.quality))
	}
	if cmd.Flags().Changed("motion") {
		raw.MotionMode = f.motion
	}
	if cmd.Flags().Changed("intensity") {
		raw.InteractionIntensity = motion.Float(f.intensity)
	}
	return raw
}

// ambientInfo is the ambient cadence derived from a frame.
type ambientInfo struct {
	TickMs    int             `json:"tick_ms"`
	FxQuality theme.FxQuality `json:"fx_quality"`
}

func ambientFor(frame engine.Frame, saveData bool) ambientInfo {
	rt := frame.Runtime
	reduced := rt.ReducedMotion || rt.MotionMode.Reduced()
	return ambientInfo{
		TickMs:    diagnostics.ResolveAmbientTickMs(rt.InteractionIntensity, reduced),
		FxQuality: diagnostics.ResolveAmbientFxQuality(rt.InteractionIntensity, saveData, reduced),
	}
}

func newResolveCmd() *cobra.Command {
	var (
		in      inputFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the runtime config, rollout and post-FX stack",
		Long: `Runs the full pipeline for one set of inputs: runtime config
normalisation, rollout flags, then the per-theme post-FX stack.

Inputs default to the stored preferences; flags override them.`,
		Example: `  themegate resolve
  themegate resolve --theme cyberpunk --quality 3 --system-reduced-motion
  themegate resolve --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openFlags()
			if err != nil {
				return err
			}
			defer backend.Close()

			eng, err := newEngine(cmd.Context(), backend)
			if err != nil {
				return err
			}
			pm, err := loadPreferences()
			if err != nil {
				return err
			}
			prefs := pm.Get()

			frame := eng.Resolve(in.rawInput(cmd, prefs))
			ambient := ambientFor(frame, prefs.SaveData)
			if tracker := openUsage(); tracker != nil {
				tracker.RecordFrame(frame)
				defer closeUsage(tracker)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), struct {
					engine.Frame
					Ambient ambientInfo `json:"ambient"`
				}{frame, ambient})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderFrame(frame, ambient))
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func renderFrame(frame engine.Frame, ambient ambientInfo) string {
	styles := ui.StylesFor(frame.Rollout.ThemeID)
	rt := frame.Runtime

	themeCell := frame.Rollout.ThemeID.String()
	if frame.Rollout.ThemeBlocked {
		themeCell = fmt.Sprintf("%s (requested %s, blocked)", frame.Rollout.ThemeID, rt.ThemeID)
	}
	qualityCell := frame.Rollout.FxQuality.String()
	if frame.Rollout.FxQuality != rt.FxQuality {
		qualityCell = fmt.Sprintf("%s (requested %s, capped)", frame.Rollout.FxQuality, rt.FxQuality)
	}

	tbl := ui.NewSimpleTable("Frame", []string{"Field", "Value"})
	tbl.AddRow("theme", themeCell)
	tbl.AddRow("fx quality", qualityCell)
	tbl.AddRow("motion mode", string(rt.MotionMode))
	tbl.AddRow("reduced motion", strconv.FormatBool(rt.ReducedMotion))
	tbl.AddRow("intensity", strconv.FormatFloat(rt.InteractionIntensity, 'f', 2, 64))
	tbl.AddRow("degenerate input", strconv.FormatBool(rt.Degenerate))
	tbl.AddRow("baseline only", strconv.FormatBool(frame.Rollout.BaselineFxOnly))
	tbl.AddRow("ambient tick", fmt.Sprintf("%dms", ambient.TickMs))
	tbl.AddRow("ambient quality", ambient.FxQuality.String())

	stack := ui.NewSimpleTable("Post FX", []string{"Set", "Effects"})
	stack.AddRow("baseline", joinEffects(frame.Stack.Baseline))
	stack.AddRow("enabled", joinEffects(frame.Stack.Enabled))
	stack.AddRow("heavy", joinEffects(frame.Stack.Heavy))

	return tbl.View(styles) + "\n" + stack.View(styles)
}

func joinEffects(effects []fx.PostEffect) string {
	if len(effects) == 0 {
		return "-"
	}
	parts := make([]string, len(effects))
	for i, e := range effects {
		parts[i] = string(e)
	}
	return strings.Join(parts, ", ")
}

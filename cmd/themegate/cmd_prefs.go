package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"themegate/cmd/themegate/ui"
	"themegate/internal/theme"
	"themegate/internal/ux"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change user preferences",
	}
	cmd.AddCommand(newPrefsShowCmd(), newPrefsSetCmd())
	return cmd
}

func newPrefsShowCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := loadPreferences()
			if err != nil {
				return err
			}
			prefs := pm.Get()
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), prefs)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPreferences(pm.Path(), prefs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

var prefsSetFlags = []string{"theme", "quality", "motion", "intensity", "reduced-motion", "save-data"}

func newPrefsSetCmd() *cobra.Command {
	var (
		themeID   string
		quality   int
		motion    string
		intensity float64
		reduced   string
		saveData  bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update preferences; only the given flags change",
		Example: `  themegate prefs set --theme royal --quality 3
  themegate prefs set --reduced-motion on
  themegate prefs set --save-data`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !slices.ContainsFunc(prefsSetFlags, flags.Changed) {
				return errors.New("nothing to set; pass at least one flag")
			}

			pm, err := loadPreferences()
			if err != nil {
				return err
			}

			if flags.Changed("theme") {
				if err := pm.SetTheme(themeID); err != nil {
					return err
				}
			}
			if flags.Changed("quality") {
				if err := pm.SetFxQuality(quality); err != nil {
					return err
				}
			}
			if flags.Changed("motion") {
				if err := pm.SetMotionMode(motion); err != nil {
					return err
				}
			}
			if flags.Changed("intensity") {
				if err := pm.SetInteractionIntensity(intensity); err != nil {
					return err
				}
			}
			if flags.Changed("reduced-motion") {
				if err := pm.SetReducedMotion(ux.ReducedMotionSetting(reduced)); err != nil {
					return err
				}
			}
			if flags.Changed("save-data") {
				pm.SetSaveData(saveData)
			}

			if err := pm.Save(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderPreferences(pm.Path(), pm.Get()))
			return nil
		},
	}

	cmd.Flags().StringVar(&themeID, "theme", "", "Theme id")
	cmd.Flags().IntVar(&quality, "quality", 0, "FX quality 0-3")
	cmd.Flags().StringVar(&motion, "motion", "", "Motion mode: full, toned-down, off")
	cmd.Flags().Float64Var(&intensity, "intensity", 0, "Interaction intensity 0-1")
	cmd.Flags().StringVar(&reduced, "reduced-motion", "", "Reduced motion: system, on, off")
	cmd.Flags().BoolVar(&saveData, "save-data", false, "Prefer lower-cost effects")
	return cmd
}

func renderPreferences(path string, p ux.Preferences) string {
	tbl := ui.NewSimpleTable("Preferences ("+path+")", []string{"Setting", "Value"})
	tbl.AddRow("theme", p.Theme)
	tbl.AddRow("fx quality", fmt.Sprintf("%d (%s)", p.FxQuality, theme.ClampFxQuality(p.FxQuality)))
	tbl.AddRow("motion mode", p.MotionMode)
	tbl.AddRow("interaction intensity", strconv.FormatFloat(p.InteractionIntensity, 'f', 2, 64))
	tbl.AddRow("reduced motion", string(p.ReducedMotion))
	tbl.AddRow("save data", strconv.FormatBool(p.SaveData))
	tbl.AddRow("updated", p.UpdatedAt)

	id, _ := theme.ParseThemeID(p.Theme)
	return tbl.View(ui.StylesFor(id))
}

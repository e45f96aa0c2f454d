package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"themegate/cmd/themegate/ui"
	"themegate/internal/config"
	"themegate/internal/rollout"
	"themegate/internal/store"
	"themegate/internal/theme"
)

func newFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Inspect and change operator rollout flags",
		Long: `Reads and writes the operator flag source configured under rollout.source.

Keys:
  rollout.enabled_themes    comma separated allow-list (empty = all themes)
  rollout.max_fx_quality    quality cap, 0-3 or off/low/medium/high
  rollout.baseline_fx_only  kill switch limiting every stack to baseline effects`,
	}
	cmd.AddCommand(newFlagsListCmd(), newFlagsGetCmd(), newFlagsSetCmd(), newFlagsUnsetCmd(), newFlagsHistoryCmd())
	return cmd
}

func newFlagsListCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List flags and the parsed rollout config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openFlags()
			if err != nil {
				return err
			}
			defer backend.Close()

			flags, err := backend.source.LoadFlags(cmd.Context())
			if err != nil {
				return err
			}
			parsed := rollout.ParseConfig(rollout.FlagsFromMap(flags))

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), struct {
					Source string            `json:"source"`
					Path   string            `json:"path"`
					Flags  map[string]string `json:"flags"`
					Config rollout.Config    `json:"config"`
				}{cfg.Rollout.Source, backend.path, flags, parsed})
			}

			tbl := ui.NewSimpleTable(fmt.Sprintf("Flags (%s: %s)", cfg.Rollout.Source, backend.path),
				[]string{"Key", "Value", "Effective"})
			for _, key := range rollout.Keys {
				value, ok := flags[key]
				if !ok {
					value = "(unset)"
				}
				tbl.AddRow(key, value, effectiveValue(key, parsed))
			}
			for _, key := range unknownKeys(flags) {
				tbl.AddRow(key, flags[key], "(ignored)")
			}
			fmt.Fprint(cmd.OutOrStdout(), tbl.View(ui.StylesFor(theme.DefaultTheme)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newFlagsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print one flag value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openFlags()
			if err != nil {
				return err
			}
			defer backend.Close()

			flags, err := backend.source.LoadFlags(cmd.Context())
			if err != nil {
				return err
			}
			value, ok := flags[args[0]]
			if !ok {
				return fmt.Errorf("flag %s: %w", args[0], store.ErrNotFound)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newFlagsSetCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a rollout flag",
		Example: `  themegate flags set rollout.enabled_themes minimalistic,cyberpunk
  themegate flags set rollout.max_fx_quality 2
  themegate flags set rollout.baseline_fx_only true --actor oncall`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := validateFlag(key, value); err != nil {
				return err
			}

			backend, err := openFlags()
			if err != nil {
				return err
			}
			defer backend.Close()

			if backend.store != nil {
				err = backend.store.Set(cmd.Context(), key, value, actor)
			} else {
				err = backend.source.(rollout.FlagWriter).SetFlag(cmd.Context(), key, value)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", store.DefaultActor, "Who made the change (recorded in history)")
	return cmd
}

func newFlagsUnsetCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a rollout flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !slices.Contains(rollout.Keys, key) {
				return unknownKeyError(key)
			}

			backend, err := openFlags()
			if err != nil {
				return err
			}
			defer backend.Close()

			if backend.store != nil {
				err = backend.store.Delete(cmd.Context(), key, actor)
			} else {
				err = backend.source.(*rollout.FileSource).DeleteFlag(cmd.Context(), key)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unset\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "actor", store.DefaultActor, "Who made the change (recorded in history)")
	return cmd
}

func newFlagsHistoryCmd() *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history [KEY]",
		Short: "Show flag change history (sqlite source only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Rollout.Source != config.SourceSQLite {
				return errors.New("flag history requires rollout.source=sqlite")
			}
			backend, err := openFlags()
			if err != nil {
				return err
			}
			defer backend.Close()

			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			changes, err := backend.store.History(cmd.Context(), key, limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), changes)
			}
			if len(changes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No flag changes recorded.")
				return nil
			}
			tbl := ui.NewSimpleTable("Flag history", []string{"When", "Key", "Old", "New", "Actor"})
			for _, c := range changes {
				newValue := c.Value
				if c.Deleted {
					newValue = "(unset)"
				}
				tbl.AddRow(c.ChangedAt.Format("2006-01-02 15:04:05"), c.Key, c.OldValue, newValue, c.Actor)
			}
			fmt.Fprint(cmd.OutOrStdout(), tbl.View(ui.StylesFor(theme.DefaultTheme)))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries (0 = all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

// validateFlag rejects values the parser would silently degrade.
func validateFlag(key, value string) error {
	switch key {
	case rollout.KeyEnabledThemes:
		for _, token := range strings.Split(value, ",") {
			if strings.TrimSpace(token) == "" {
				continue
			}
			if _, ok := theme.ParseThemeID(token); !ok {
				return fmt.Errorf("unknown theme %q (valid: %s)", strings.TrimSpace(token), themeNames())
			}
		}
	case rollout.KeyMaxFxQuality:
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			if n < int(theme.FxOff) || n > int(theme.FxHigh) {
				return fmt.Errorf("max fx quality %d out of range 0-3", n)
			}
			return nil
		}
		if _, ok := theme.ParseFxQualityName(value); !ok {
			return fmt.Errorf("invalid max fx quality %q", value)
		}
	case rollout.KeyBaselineFxOnly:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "0", "true", "false", "yes", "no", "on", "off":
		default:
			return fmt.Errorf("invalid boolean %q", value)
		}
	default:
		return unknownKeyError(key)
	}
	return nil
}

func unknownKeyError(key string) error {
	return fmt.Errorf("unknown flag key %q (valid: %s)", key, strings.Join(rollout.Keys, ", "))
}

func themeNames() string {
	ids := theme.All()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}

func effectiveValue(key string, c rollout.Config) string {
	switch key {
	case rollout.KeyEnabledThemes:
		if len(c.EnabledThemes) == 0 {
			return "all themes"
		}
		parts := make([]string, len(c.EnabledThemes))
		for i, id := range c.EnabledThemes {
			parts[i] = id.String()
		}
		return strings.Join(parts, ",")
	case rollout.KeyMaxFxQuality:
		return c.MaxFxQuality.String()
	case rollout.KeyBaselineFxOnly:
		return strconv.FormatBool(c.BaselineFxOnly)
	}
	return ""
}

func unknownKeys(flags map[string]string) []string {
	var out []string
	for k := range flags {
		if !slices.Contains(rollout.Keys, k) {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

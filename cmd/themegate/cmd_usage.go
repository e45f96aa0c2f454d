package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"themegate/cmd/themegate/ui"
	"themegate/internal/theme"
	"themegate/internal/usage"
)

func newUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show or reset persisted rollout usage counters",
		Long: `resolve and monitor count every frame they resolve and every report they
produce; watch counts its reports. The counters live in usage.path
(default .themegate/usage.json).`,
	}
	cmd.AddCommand(newUsageShowCmd(), newUsageResetCmd())
	return cmd
}

func newUsageShowCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the usage counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker := openUsage()
			if tracker == nil {
				return errors.New("usage tracking is disabled (usage.enabled)")
			}
			stats := tracker.Stats()

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), usage.UsageData{
					Version:   usage.DataVersion,
					Since:     tracker.Since(),
					Aggregate: stats,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderUsage(stats, tracker.Since()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newUsageResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the usage counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker := openUsage()
			if tracker == nil {
				return errors.New("usage tracking is disabled (usage.enabled)")
			}
			tracker.Reset()
			if err := tracker.Save(); err != nil {
				return fmt.Errorf("failed to save usage data: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "usage counters cleared")
			return nil
		},
	}
}

func renderUsage(s usage.AggregatedStats, since time.Time) string {
	styles := ui.StylesFor(theme.DefaultTheme)

	totals := ui.NewSimpleTable("Usage since "+since.Format(time.RFC3339), []string{"Counter", "Value"})
	totals.AddRow("frames", strconv.FormatInt(s.Frames, 10))
	totals.AddRow("theme blocked", strconv.FormatInt(s.Blocked, 10))
	totals.AddRow("quality capped", strconv.FormatInt(s.Capped, 10))
	totals.AddRow("baseline only", strconv.FormatInt(s.BaselineOnly, 10))
	totals.AddRow("reduced motion", strconv.FormatInt(s.Reduced, 10))
	totals.AddRow("reports", strconv.FormatInt(s.Reports, 10))
	totals.AddRow("reports at risk", strconv.FormatInt(s.Risky, 10))

	out := totals.View(styles)
	for _, section := range []struct {
		title  string
		counts map[string]int64
	}{
		{"Effective theme", s.ByTheme},
		{"Requested theme", s.ByRequestedTheme},
		{"FX quality", s.ByQuality},
		{"Risk reason", s.ByReason},
	} {
		if len(section.counts) == 0 {
			continue
		}
		out += "\n" + countsTable(section.title, section.counts).View(styles)
	}
	return out
}

// countsTable sorts by count descending, then key.
func countsTable(title string, counts map[string]int64) *ui.SimpleTable {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	tbl := ui.NewSimpleTable(title, []string{title, "Count"})
	for _, k := range keys {
		tbl.AddRow(k, strconv.FormatInt(counts[k], 10))
	}
	return tbl
}

package main

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"themegate/cmd/themegate/ui"
	"themegate/internal/diagnostics"
	"themegate/internal/fx"
	"themegate/internal/logging"
	"themegate/internal/monitoring"
)

// sampleFile is the recorded ambient telemetry fed to `monitor`. Either raw
// samples (replayed through a Tracker) or a precomputed snapshot.
type sampleFile struct {
	NowMs         float64               `json:"now_ms"`
	Invalidations []float64             `json:"invalidations"`
	Frames        []frameSample         `json:"frames"`
	Snapshot      *diagnostics.Snapshot `json:"snapshot,omitempty"`
}

type frameSample struct {
	AtMs       float64 `json:"at_ms"`
	DurationMs float64 `json:"duration_ms"`
}

// loadSnapshot reads path and returns the ambient snapshot it describes.
func loadSnapshot(path string, windowMs float64, capacity int) (*diagnostics.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	var f sampleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse samples: %w", err)
	}
	if f.Snapshot != nil {
		return f.Snapshot, nil
	}

	// The tracker only accepts marks in timestamp order.
	slices.Sort(f.Invalidations)
	slices.SortStableFunc(f.Frames, func(a, b frameSample) int { return cmp.Compare(a.AtMs, b.AtMs) })

	tracker := diagnostics.NewTracker(diagnostics.WithWindow(windowMs), diagnostics.WithCapacity(capacity))
	now := f.NowMs
	for _, ts := range f.Invalidations {
		tracker.MarkInvalidation(ts)
		now = max(now, ts)
	}
	for _, fr := range f.Frames {
		tracker.MarkFrame(fr.AtMs, fr.DurationMs)
		now = max(now, fr.AtMs)
	}
	snap := tracker.Snapshot(now)
	return &snap, nil
}

func newMonitorCmd() *cobra.Command {
	var (
		in         inputFlags
		samples    string
		effects    []string
		jsonOut    bool
		failOnRisk bool
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Evaluate rollout risk for the current frame",
		Long: `Resolves the current frame and evaluates the monitoring rules:

  reduced-motion-fancy-fx      reduced motion is on but heavy effects are enabled
  ambient-frame-budget         windowed frame times exceed the budget
  ambient-invalidation-budget  ambient invalidations per second exceed the budget

Performance rules need ambient samples (--samples). --enabled-effects
evaluates the stack a client reports instead of the resolved one. With
rollout.auto_baseline_on_risk set, an accessibility risk turns on the
baseline-only kill switch.`,
		Example: `  themegate monitor --samples ambient.json
  themegate monitor --theme cyberpunk --quality 3 --json --fail-on-risk`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Get(logging.CategoryMonitoring)

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

			var ambient *diagnostics.Snapshot
			if samples != "" {
				windowMs := float64(cfg.GetDiagnosticsWindow().Milliseconds())
				ambient, err = loadSnapshot(samples, windowMs, cfg.Policy.DiagnosticsCapacity)
				if err != nil {
					return err
				}
				log.Debug("ambient samples loaded", zap.String("path", samples), zap.Any("snapshot", ambient))
			}

			frame := eng.Resolve(in.rawInput(cmd, pm.Get()))
			if cmd.Flags().Changed("enabled-effects") {
				reported, err := parseEffects(effects)
				if err != nil {
					return err
				}
				frame.Stack.Enabled = reported
			}
			baselineBefore := eng.Controller().Config().BaselineFxOnly
			report, monErr := eng.Monitor(cmd.Context(), frame, ambient)
			switched := !baselineBefore && eng.Controller().Config().BaselineFxOnly
			if tracker := openUsage(); tracker != nil {
				tracker.RecordFrame(frame)
				tracker.RecordReport(report)
				defer closeUsage(tracker)
			}

			if jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderReport(report, eng.Budget(), switched, ui.StylesFor(frame.Rollout.ThemeID)))
			}

			if monErr != nil {
				return monErr
			}
			if failOnRisk && !report.Result.Healthy() {
				return errors.New("rollout risk detected")
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&samples, "samples", "", "JSON file of ambient samples or a snapshot")
	cmd.Flags().StringSliceVar(&effects, "enabled-effects", nil, "Effects the client reports running (default: the resolved stack)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&failOnRisk, "fail-on-risk", false, "Exit non-zero when any risk is flagged")
	return cmd
}

func parseEffects(names []string) ([]fx.PostEffect, error) {
	out := make([]fx.PostEffect, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		e, ok := fx.ParsePostEffect(name)
		if !ok {
			return nil, fmt.Errorf("unknown post effect %q", name)
		}
		out = append(out, e)
	}
	return out, nil
}

func renderReport(r monitoring.Report, budget monitoring.Budget, switched bool, styles ui.Styles) string {
	var sb strings.Builder

	status := "healthy"
	if !r.Result.Healthy() {
		status = "at risk"
	}
	sb.WriteString(styles.Title.Render("Monitoring report " + r.ID))
	sb.WriteString("\n")
	sb.WriteString("status: " + styles.Status(r.Result.Healthy(), status) + "\n")
	sb.WriteString(fmt.Sprintf("accessibility risk: %t\n", r.Result.AccessibilityRisk))
	sb.WriteString(fmt.Sprintf("performance risk:   %t\n", r.Result.PerformanceRisk))
	for _, reason := range r.Result.Reasons {
		sb.WriteString("  - " + styles.Warning.Render(string(reason)) + "\n")
	}

	if r.Ambient != nil {
		tbl := ui.NewSimpleTable("Ambient", []string{"Metric", "Value", "Budget"})
		tbl.AddRow("invalidations/s", fmt.Sprintf("%.2f", r.Ambient.InvalidationsPerSecond), fmt.Sprintf("%.2f", budget.InvalidationsPerSecond))
		tbl.AddRow("average frame", fmt.Sprintf("%.2fms", r.Ambient.AverageFrameMs), fmt.Sprintf("%.2fms", budget.AverageFrameMs))
		tbl.AddRow("max frame", fmt.Sprintf("%.2fms", r.Ambient.MaxFrameMs), fmt.Sprintf("%.2fms", budget.MaxFrameMs))
		tbl.AddRow("frames (total)", fmt.Sprintf("%d", r.Ambient.FramesTotal), "")
		tbl.AddRow("invalidations (total)", fmt.Sprintf("%d", r.Ambient.InvalidationsTotal), "")
		sb.WriteString("\n")
		sb.WriteString(tbl.View(styles))
	} else {
		sb.WriteString(styles.Muted.Render("no ambient samples; performance rules skipped") + "\n")
	}

	if switched {
		sb.WriteString(styles.Warning.Render("baseline-only kill switch enabled") + "\n")
	}
	return sb.String()
}

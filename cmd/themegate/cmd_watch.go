package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"themegate/cmd/themegate/ui"
	"themegate/internal/config"
	"themegate/internal/diagnostics"
	"themegate/internal/logging"
	"themegate/internal/motion"
	"themegate/internal/rollout"
)

const defaultPollInterval = 2 * time.Second

func newWatchCmd() *cobra.Command {
	var (
		in   inputFlags
		poll time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live ambient monitor",
		Long: `Drives ambient ticks at the cadence ResolveAmbientTickMs picks for the
current intensity, records each tick in the diagnostics tracker and shows
the live snapshot and monitoring verdict.

Every ambient tick is a redraw and counts as an invalidation unless motion
is off. At intensity 1 the tick is 240ms, about 4 invalidations per second,
so with the default budget of 2 the view reports
ambient-invalidation-budget until intensity drops, motion is reduced or
policy.invalidations_per_second is raised.

Rollout flags are reloaded as they change: the YAML source through a file
watcher (rollout.watch), the SQLite source by polling.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.Get(logging.CategoryWatch)

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

			tracker := diagnostics.NewTracker(
				diagnostics.WithWindow(float64(cfg.GetDiagnosticsWindow().Milliseconds())),
				diagnostics.WithCapacity(cfg.Policy.DiagnosticsCapacity),
			)
			opts := ui.MonitorOptions{
				Engine:  eng,
				Tracker: tracker,
				Input:   func() motion.RawInput { return in.rawInput(cmd, pm.Get()) },
				Logger:  log,
			}
			if counters := openUsage(); counters != nil {
				opts.OnReport = counters.RecordReport
				defer closeUsage(counters)
			}
			model := ui.NewMonitorModel(cmd.Context(), opts)

			g, ctx := errgroup.WithContext(cmd.Context())
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			send := func(c rollout.Config, err error) { p.Send(ui.ReloadMsg{Config: c, Err: err}) }

			var watcher *rollout.Watcher
			if cfg.Rollout.Source == config.SourceFile && cfg.Rollout.Watch {
				if err := os.MkdirAll(filepath.Dir(backend.path), 0755); err != nil {
					return fmt.Errorf("failed to create flags directory: %w", err)
				}
				watcher, err = rollout.NewWatcher(backend.path, eng.Controller(),
					rollout.WithDebounce(cfg.GetWatchDebounce()),
					rollout.WithOnReload(send),
					rollout.WithLogger(log),
				)
				if err != nil {
					return fmt.Errorf("failed to create flags watcher: %w", err)
				}
			}

			g.Go(func() error {
				defer cancel()
				_, err := p.Run()
				if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
					return nil
				}
				return err
			})

			switch {
			case watcher != nil:
				g.Go(func() error {
					defer watcher.Stop()
					if err := watcher.Start(ctx); err != nil {
						cancel()
						return fmt.Errorf("failed to watch flags: %w", err)
					}
					<-ctx.Done()
					log.Debug("flags watcher stopping", zap.Any("stats", watcher.Stats()))
					return nil
				})
			case cfg.Rollout.Source == config.SourceSQLite && poll > 0:
				g.Go(func() error {
					pollFlags(ctx, eng.Controller(), poll, send)
					return nil
				})
			}

			return g.Wait()
		},
	}

	in.register(cmd)
	cmd.Flags().DurationVar(&poll, "poll", defaultPollInterval, "SQLite flag poll interval (0 disables)")
	return cmd
}

// pollFlags reloads ctrl every interval and reports only changes.
func pollFlags(ctx context.Context, ctrl *rollout.Controller, interval time.Duration, onChange func(rollout.Config, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := ctrl.Config()
	var prevErr error
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := ctrl.Reload(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if prevErr == nil || prevErr.Error() != err.Error() {
					onChange(ctrl.Config(), err)
				}
				prevErr = err
				continue
			}
			prevErr = nil
			cur := ctrl.Config()
			if !sameConfig(prev, cur) {
				onChange(cur, nil)
				prev = cur
			}
		}
	}
}

func sameConfig(a, b rollout.Config) bool {
	return a.MaxFxQuality == b.MaxFxQuality &&
		a.BaselineFxOnly == b.BaselineFxOnly &&
		slices.Equal(a.EnabledThemes, b.EnabledThemes)
}

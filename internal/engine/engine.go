// Package engine composes the resolvers into one per-frame decision.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"themegate/internal/diagnostics"
	"themegate/internal/fx"
	"themegate/internal/monitoring"
	"themegate/internal/motion"
	"themegate/internal/rollout"
)

// Frame is the full decision for one set of inputs.
type Frame struct {
	Runtime motion.RuntimeConfig `json:"runtime"`
	Rollout rollout.Runtime      `json:"rollout"`
	Stack   fx.PostFxStack       `json:"stack"`
}

// Engine runs runtime resolution, rollout and stack resolution in order.
// Nothing is cached: every call re-derives the frame from its inputs and the
// controller's current flags.
type Engine struct {
	controller   *rollout.Controller
	budget       monitoring.Budget
	autoBaseline bool
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBudget overrides monitoring.DefaultBudget.
func WithBudget(b monitoring.Budget) Option {
	return func(e *Engine) { e.budget = b }
}

// WithAutoBaseline enables flipping the baseline-only kill switch when
// monitoring reports an accessibility risk.
func WithAutoBaseline(enabled bool) Option {
	return func(e *Engine) { e.autoBaseline = enabled }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the time source used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. A nil controller behaves as an unrestricted rollout.
func New(controller *rollout.Controller, opts ...Option) *Engine {
	if controller == nil {
		controller = rollout.NewController(nil, nil)
	}
	e := &Engine{
		controller: controller,
		budget:     monitoring.DefaultBudget(),
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Controller returns the rollout controller.
func (e *Engine) Controller() *rollout.Controller { return e.controller }

// Budget returns the monitoring budget.
func (e *Engine) Budget() monitoring.Budget { return e.budget }

// Resolve derives a Frame from raw inputs.
func (e *Engine) Resolve(raw motion.RawInput) Frame {
	runtime := motion.ResolveRuntimeConfig(raw)

	ro := e.controller.Resolve(rollout.Request{
		ThemeID:   string(runtime.ThemeID),
		FxQuality: runtime.FxQuality,
	})

	stack := fx.ResolveThemePostFxStack(fx.StackInput{
		ThemeID:        ro.ThemeID,
		FxQuality:      ro.FxQuality,
		ReducedMotion:  runtime.ReducedMotion,
		MotionMode:     runtime.MotionMode,
		BaselineFxOnly: ro.BaselineFxOnly,
	})

	if ro.ThemeBlocked {
		e.logger.Debug("theme blocked by rollout",
			zap.Stringer("requested", runtime.ThemeID),
			zap.Stringer("effective", ro.ThemeID))
	}

	return Frame{Runtime: runtime, Rollout: ro, Stack: stack}
}

// Evaluate runs the monitoring rules against frame. Reduced motion for the
// purposes of monitoring means either the OS signal or a non-full mode.
func (e *Engine) Evaluate(frame Frame, ambient *diagnostics.Snapshot) monitoring.Result {
	return monitoring.Evaluate(monitoring.Input{
		ReducedMotion:  frame.Runtime.ReducedMotion || frame.Runtime.MotionMode.Reduced(),
		EnabledEffects: frame.Stack.Enabled,
		Ambient:        ambient,
	}, e.budget)
}

// Monitor evaluates frame and returns a stamped report. With auto baseline
// enabled, an accessibility risk turns on the kill switch in the flag store
// and reloads the controller so the next Resolve sees it.
func (e *Engine) Monitor(ctx context.Context, frame Frame, ambient *diagnostics.Snapshot) (monitoring.Report, error) {
	res := e.Evaluate(frame, ambient)
	report := monitoring.NewReport(res, ambient, e.now())

	if !res.Healthy() {
		e.logger.Warn("rollout monitoring flagged risk",
			zap.String("report_id", report.ID),
			zap.Bool("accessibility_risk", res.AccessibilityRisk),
			zap.Bool("performance_risk", res.PerformanceRisk),
			zap.Any("reasons", res.Reasons))
	}

	if !e.autoBaseline || !res.AccessibilityRisk || e.controller.Config().BaselineFxOnly {
		return report, nil
	}

	w, ok := e.controller.Writer()
	if !ok {
		return report, errors.New("auto baseline: flag source is read-only")
	}
	if err := w.SetFlag(ctx, rollout.KeyBaselineFxOnly, "true"); err != nil {
		return report, fmt.Errorf("auto baseline: failed to set kill switch: %w", err)
	}
	if err := e.controller.Reload(ctx); err != nil {
		return report, fmt.Errorf("auto baseline: %w", err)
	}
	e.logger.Info("baseline-only kill switch enabled automatically", zap.String("report_id", report.ID))
	return report, nil
}

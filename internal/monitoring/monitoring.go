// Package monitoring checks a resolved effect stack and ambient diagnostics
// for rollout health problems.
package monitoring

import (
	"time"

	"github.com/google/uuid"

	"themegate/internal/diagnostics"
	"themegate/internal/fx"
)

// Reason names a triggered monitoring rule.
type Reason string

const (
	ReasonReducedMotionFancyFx      Reason = "reduced-motion-fancy-fx"
	ReasonAmbientFrameBudget        Reason = "ambient-frame-budget"
	ReasonAmbientInvalidationBudget Reason = "ambient-invalidation-budget"
)

// Budget holds performance thresholds. A value is over budget only when it
// strictly exceeds the limit.
type Budget struct {
	AverageFrameMs         float64 `yaml:"average_frame_ms" json:"average_frame_ms"`
	MaxFrameMs             float64 `yaml:"max_frame_ms" json:"max_frame_ms"`
	InvalidationsPerSecond float64 `yaml:"invalidations_per_second" json:"invalidations_per_second"`
}

// DefaultBudget returns the stock thresholds.
func DefaultBudget() Budget {
	return Budget{
		AverageFrameMs:         20,
		MaxFrameMs:             24,
		InvalidationsPerSecond: 2,
	}
}

// Input is everything Evaluate looks at.
type Input struct {
	ReducedMotion  bool
	EnabledEffects []fx.PostEffect
	// Ambient is nil when no diagnostics are available, which disables the
	// performance rules.
	Ambient *diagnostics.Snapshot
}

// Result is the outcome of one evaluation.
type Result struct {
	AccessibilityRisk bool     `json:"accessibility_risk"`
	PerformanceRisk   bool     `json:"performance_risk"`
	Reasons           []Reason `json:"reasons"`
}

// Healthy reports whether no rule fired.
func (r Result) Healthy() bool {
	return !r.AccessibilityRisk && !r.PerformanceRisk
}

// Has reports whether reason is among the triggered rules.
func (r Result) Has(reason Reason) bool {
	for _, got := range r.Reasons {
		if got == reason {
			return true
		}
	}
	return false
}

// Evaluate runs every rule in a fixed order. It is a pure function of its
// arguments.
func Evaluate(in Input, budget Budget) Result {
	res := Result{Reasons: []Reason{}}

	if in.ReducedMotion {
		for _, effect := range in.EnabledEffects {
			if fx.IsHeavy(effect) {
				res.AccessibilityRisk = true
				res.Reasons = append(res.Reasons, ReasonReducedMotionFancyFx)
				break
			}
		}
	}

	if in.Ambient == nil {
		return res
	}

	if in.Ambient.AverageFrameMs > budget.AverageFrameMs || in.Ambient.MaxFrameMs > budget.MaxFrameMs {
		res.PerformanceRisk = true
		res.Reasons = append(res.Reasons, ReasonAmbientFrameBudget)
	}
	if in.Ambient.InvalidationsPerSecond > budget.InvalidationsPerSecond {
		res.PerformanceRisk = true
		res.Reasons = append(res.Reasons, ReasonAmbientInvalidationBudget)
	}

	return res
}

// Report is a Result stamped for the telemetry surface.
type Report struct {
	ID          string                `json:"id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Result      Result                `json:"result"`
	Ambient     *diagnostics.Snapshot `json:"ambient,omitempty"`
}

// NewReport wraps res with a fresh id.
func NewReport(res Result, ambient *diagnostics.Snapshot, now time.Time) Report {
	return Report{
		ID:          uuid.NewString(),
		GeneratedAt: now.UTC(),
		Result:      res,
		Ambient:     ambient,
	}
}

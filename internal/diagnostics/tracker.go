// Package diagnostics samples ambient frame timing and redraw frequency
// over a rolling window.
package diagnostics

import (
	"math"
)

const (
	// DefaultWindowMs is the retention window W.
	DefaultWindowMs = 4000
	// DefaultCapacity bounds each ring buffer.
	DefaultCapacity = 512

	// minRateWindowMs keeps the first few marks from reporting huge rates.
	minRateWindowMs = 1000
)

// Snapshot is a point-in-time read of a Tracker. Totals are cumulative
// since the tracker was created; every other field covers the window only.
type Snapshot struct {
	InvalidationsTotal     int     `json:"invalidations_total"`
	InvalidationsPerSecond float64 `json:"invalidations_per_second"`
	FramesTotal            int     `json:"frames_total"`
	AverageFrameMs         float64 `json:"average_frame_ms"`
	MaxFrameMs             float64 `json:"max_frame_ms"`
	LastFrameMs            float64 `json:"last_frame_ms"`
}

// Tracker keeps rolling invalidation and frame samples.
//
// A Tracker has a single owner, the render loop that drives it, and is not
// safe for concurrent use.
type Tracker struct {
	windowMs float64

	invalidations *ring
	frames        *ring

	invalidationsTotal int
	framesTotal        int
}

// Option configures a Tracker.
type Option func(*trackerOptions)

type trackerOptions struct {
	windowMs float64
	capacity int
}

// WithWindow sets the retention window in milliseconds.
func WithWindow(ms float64) Option {
	return func(o *trackerOptions) {
		if ms > 0 && !math.IsInf(ms, 0) {
			o.windowMs = ms
		}
	}
}

// WithCapacity sets the per-series ring capacity.
func WithCapacity(n int) Option {
	return func(o *trackerOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// NewTracker creates a tracker with DefaultWindowMs and DefaultCapacity
// unless overridden.
func NewTracker(opts ...Option) *Tracker {
	o := trackerOptions{windowMs: DefaultWindowMs, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracker{
		windowMs:      o.windowMs,
		invalidations: newRing(o.capacity),
		frames:        newRing(o.capacity),
	}
}

// WindowMs returns the retention window.
func (t *Tracker) WindowMs() float64 { return t.windowMs }

// MarkInvalidation records one redraw request at tsMs. Marks must arrive
// in timestamp order: non-finite timestamps and ones older than the newest
// retained invalidation are ignored.
func (t *Tracker) MarkInvalidation(tsMs float64) {
	if !finite(tsMs) || t.invalidations.before(tsMs) {
		return
	}
	t.invalidationsTotal++
	t.invalidations.push(sample{atMs: tsMs})
}

// MarkFrame records a frame that finished at tsMs and took durationMs.
// Negative durations are recorded as zero. As with MarkInvalidation, a frame
// older than the newest retained one is ignored.
func (t *Tracker) MarkFrame(tsMs, durationMs float64) {
	if !finite(tsMs) || !finite(durationMs) || t.frames.before(tsMs) {
		return
	}
	if durationMs < 0 {
		durationMs = 0
	}
	t.framesTotal++
	t.frames.push(sample{atMs: tsMs, value: durationMs})
}

// Snapshot evicts samples older than nowMs-W and summarises the rest.
func (t *Tracker) Snapshot(nowMs float64) Snapshot {
	cutoff := nowMs - t.windowMs
	t.invalidations.evictBefore(cutoff)
	t.frames.evictBefore(cutoff)

	snap := Snapshot{
		InvalidationsTotal: t.invalidationsTotal,
		FramesTotal:        t.framesTotal,
	}

	if n := t.invalidations.len(); n > 0 {
		first, _ := t.invalidations.oldest()
		span := nowMs - first.atMs
		span = math.Max(minRateWindowMs, math.Min(span, t.windowMs))
		snap.InvalidationsPerSecond = float64(n) / (span / 1000)
	}

	if n := t.frames.len(); n > 0 {
		var sum float64
		for i := 0; i < n; i++ {
			v := t.frames.at(i).value
			sum += v
			if v > snap.MaxFrameMs {
				snap.MaxFrameMs = v
			}
		}
		snap.AverageFrameMs = sum / float64(n)
		last, _ := t.frames.newest()
		snap.LastFrameMs = last.value
	}

	return snap
}

// Reset drops all samples and totals.
func (t *Tracker) Reset() {
	t.invalidations = newRing(len(t.invalidations.buf))
	t.frames = newRing(len(t.frames.buf))
	t.invalidationsTotal = 0
	t.framesTotal = 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package diagnostics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"themegate/internal/theme"
)

func TestTracker_Empty(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, Snapshot{}, tr.Snapshot(1000))
	assert.Equal(t, float64(DefaultWindowMs), tr.WindowMs())
}

func TestTracker_EvenlySpacedInvalidationsStayUnderTwo(t *testing.T) {
	tr := NewTracker()
	for ts := 600.0; ts <= 3600; ts += 600 {
		tr.MarkInvalidation(ts)
	}

	snap := tr.Snapshot(4000)
	assert.Equal(t, 6, snap.InvalidationsTotal)
	assert.LessOrEqual(t, snap.InvalidationsPerSecond, 2.0)
}

func TestTracker_CompressedInvalidationsExceedTwo(t *testing.T) {
	tr := NewTracker()
	for ts := 1200.0; ts <= 3200; ts += 400 {
		tr.MarkInvalidation(ts)
	}

	snap := tr.Snapshot(4000)
	assert.Equal(t, 6, snap.InvalidationsTotal)
	assert.Greater(t, snap.InvalidationsPerSecond, 2.0)
}

func TestTracker_TotalsAreCumulative(t *testing.T) {
	tr := NewTracker()
	tr.MarkInvalidation(0)
	tr.MarkInvalidation(100)
	tr.MarkFrame(100, 16)

	snap := tr.Snapshot(10_000)
	assert.Equal(t, 2, snap.InvalidationsTotal)
	assert.Equal(t, 1, snap.FramesTotal)
	assert.Zero(t, snap.InvalidationsPerSecond)
	assert.Zero(t, snap.AverageFrameMs)
	assert.Zero(t, snap.LastFrameMs)

	tr.MarkInvalidation(10_500)
	snap = tr.Snapshot(11_000)
	assert.Equal(t, 3, snap.InvalidationsTotal)
	assert.InDelta(t, 1.0, snap.InvalidationsPerSecond, 1e-9, "single mark uses the one second floor")
}

func TestTracker_FrameStatsAreWindowed(t *testing.T) {
	tr := NewTracker()
	tr.MarkFrame(100, 40)
	tr.MarkFrame(5000, 10)
	tr.MarkFrame(5500, 20)
	tr.MarkFrame(6000, 18)

	snap := tr.Snapshot(6000)
	assert.Equal(t, 4, snap.FramesTotal)
	assert.InDelta(t, 16.0, snap.AverageFrameMs, 1e-9)
	assert.Equal(t, 20.0, snap.MaxFrameMs)
	assert.Equal(t, 18.0, snap.LastFrameMs)
}

func TestTracker_IgnoresOutOfOrderMarks(t *testing.T) {
	tr := NewTracker()
	tr.MarkFrame(3000, 10)
	tr.MarkFrame(100, 90)
	tr.MarkInvalidation(3000)
	tr.MarkInvalidation(100)

	snap := tr.Snapshot(6000)
	assert.Equal(t, 1, snap.FramesTotal)
	assert.Equal(t, 1, snap.InvalidationsTotal)
	assert.Equal(t, 10.0, snap.AverageFrameMs)
	assert.Equal(t, 10.0, snap.MaxFrameMs)
	assert.Equal(t, 10.0, snap.LastFrameMs)

	tr.MarkFrame(3000, 12)
	assert.Equal(t, 2, tr.Snapshot(6000).FramesTotal, "equal timestamps are in order")
}

func TestTracker_CapacityBoundsMemory(t *testing.T) {
	tr := NewTracker(WithCapacity(4))
	for i := 0; i < 10; i++ {
		tr.MarkFrame(float64(i*10), float64(i))
	}

	snap := tr.Snapshot(100)
	assert.Equal(t, 10, snap.FramesTotal)
	assert.InDelta(t, 7.5, snap.AverageFrameMs, 1e-9, "only the newest four remain")
	assert.Equal(t, 9.0, snap.MaxFrameMs)
	assert.Equal(t, 4, tr.frames.len())
}

func TestTracker_IgnoresNonFinite(t *testing.T) {
	tr := NewTracker()
	tr.MarkInvalidation(math.NaN())
	tr.MarkFrame(math.Inf(1), 10)
	tr.MarkFrame(10, math.NaN())
	tr.MarkFrame(20, -5)

	snap := tr.Snapshot(100)
	assert.Zero(t, snap.InvalidationsTotal)
	assert.Equal(t, 1, snap.FramesTotal)
	assert.Zero(t, snap.MaxFrameMs)
}

func TestTracker_Options(t *testing.T) {
	tr := NewTracker(WithWindow(1000), WithWindow(-1), WithCapacity(0))
	assert.Equal(t, 1000.0, tr.WindowMs())
	assert.Len(t, tr.frames.buf, DefaultCapacity)
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.MarkInvalidation(1)
	tr.MarkFrame(1, 12)
	tr.Reset()
	assert.Equal(t, Snapshot{}, tr.Snapshot(2))
}

func TestRing_Wraps(t *testing.T) {
	r := newRing(3)
	for i := 1; i <= 5; i++ {
		r.push(sample{atMs: float64(i)})
	}
	require.Equal(t, 3, r.len())
	oldest, _ := r.oldest()
	newest, _ := r.newest()
	assert.Equal(t, 3.0, oldest.atMs)
	assert.Equal(t, 5.0, newest.atMs)

	r.evictBefore(5)
	assert.Equal(t, 1, r.len())
	r.evictBefore(100)
	_, ok := r.oldest()
	assert.False(t, ok)
}

func TestResolveAmbientTickMs(t *testing.T) {
	assert.Less(t, ResolveAmbientTickMs(1.2, false), ResolveAmbientTickMs(0.2, false))
	assert.Less(t, ResolveAmbientTickMs(0.2, false), ResolveAmbientTickMs(1, true))

	assert.Equal(t, FastestTickMs, ResolveAmbientTickMs(1, false))
	assert.Equal(t, SlowestTickMs, ResolveAmbientTickMs(0, false))
	assert.Equal(t, SlowestTickMs, ResolveAmbientTickMs(math.NaN(), false))
	assert.LessOrEqual(t, ResolveAmbientTickMs(5, false), 300)
	for _, in := range []float64{0, 0.5, 1, 10} {
		assert.GreaterOrEqual(t, ResolveAmbientTickMs(in, true), 1000)
	}
}

func TestResolveAmbientFxQuality(t *testing.T) {
	tests := []struct {
		name      string
		intensity float64
		saveData  bool
		reduced   bool
		want      theme.FxQuality
	}{
		{"low signal", 0.1, false, false, theme.FxLow},
		{"medium signal", 0.5, false, false, theme.FxMedium},
		{"high signal", 0.9, false, false, theme.FxHigh},
		{"boundary medium", 0.35, false, false, theme.FxMedium},
		{"boundary high", 0.7, false, false, theme.FxHigh},
		{"reduced motion", 1, false, true, theme.FxLow},
		{"save data", 1, true, false, theme.FxLow},
		{"nan", math.NaN(), false, false, theme.FxLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveAmbientFxQuality(tt.intensity, tt.saveData, tt.reduced))
		})
	}
}

// Package usage keeps persisted rollout counters: which themes and tiers
// frames actually resolved to, how often the rollout intervened, and which
// monitoring rules fired.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"themegate/internal/engine"
	"themegate/internal/monitoring"
)

type contextKey struct{}

// Tracker manages usage recording and persistence.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	dirty    bool
}

// NewTracker creates a tracker persisted at path. An unreadable file is
// replaced on the next Save.
func NewTracker(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}

	t := &Tracker{
		filePath: path,
		data: UsageData{
			Version:   DataVersion,
			Since:     time.Now().UTC(),
			Aggregate: newAggregatedStats(),
		},
	}
	if err := t.Load(); err != nil {
		return t, err
	}
	return t, nil
}

// Path returns the backing file.
func (t *Tracker) Path() string { return t.filePath }

// Load reads the usage data from disk. A missing file is not an error.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var loaded UsageData
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse usage data: %w", err)
	}
	loaded.Aggregate.fillMaps()
	if loaded.Since.IsZero() {
		loaded.Since = t.data.Since
	}
	t.data = loaded
	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

// Close saves pending changes.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	t.data.Version = DataVersion
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.filePath, data, 0644); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// RecordFrame counts one resolved frame.
func (t *Tracker) RecordFrame(frame engine.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.data.Aggregate
	s.Frames++
	if frame.Rollout.ThemeBlocked {
		s.Blocked++
	}
	if frame.Rollout.FxQuality < frame.Runtime.FxQuality {
		s.Capped++
	}
	if frame.Rollout.BaselineFxOnly {
		s.BaselineOnly++
	}
	if frame.Runtime.ReducedMotion || frame.Runtime.MotionMode.Reduced() {
		s.Reduced++
	}
	s.ByTheme[frame.Rollout.ThemeID.String()]++
	s.ByRequestedTheme[frame.Runtime.ThemeID.String()]++
	s.ByQuality[frame.Rollout.FxQuality.String()]++
	t.dirty = true
}

// RecordReport counts one monitoring report and every reason it carries.
func (t *Tracker) RecordReport(report monitoring.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.data.Aggregate
	s.Reports++
	if !report.Result.Healthy() {
		s.Risky++
	}
	for _, r := range report.Result.Reasons {
		s.ByReason[string(r)]++
	}
	t.dirty = true
}

// Reset clears every counter and restarts the Since stamp.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data = UsageData{Version: DataVersion, Since: time.Now().UTC(), Aggregate: newAggregatedStats()}
	t.dirty = true
}

// Since reports when counting started.
func (t *Tracker) Since() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.Since
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByTheme = copyCounts(stats.ByTheme)
	stats.ByRequestedTheme = copyCounts(stats.ByRequestedTheme)
	stats.ByQuality = copyCounts(stats.ByQuality)
	stats.ByReason = copyCounts(stats.ByReason)
	return stats
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for key, n := range src {
		dst[key] = n
	}
	return dst
}

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context, or nil.
func FromContext(ctx context.Context) *Tracker {
	t, _ := ctx.Value(contextKey{}).(*Tracker)
	return t
}

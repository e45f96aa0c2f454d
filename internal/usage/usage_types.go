package usage

import "time"

// DataVersion is the schema version of usage.json.
const DataVersion = "1.0"

// UsageData represents the root structure stored in persistence.
type UsageData struct {
	Version   string          `json:"version"`
	Since     time.Time       `json:"since"`
	Aggregate AggregatedStats `json:"aggregate"`
}

// AggregatedStats holds counters broken down by rollout dimension.
type AggregatedStats struct {
	Frames       int64 `json:"frames"`
	Blocked      int64 `json:"blocked"`       // requested theme outside the allow-list
	Capped       int64 `json:"capped"`        // quality lowered by the rollout cap
	BaselineOnly int64 `json:"baseline_only"` // kill switch was on
	Reduced      int64 `json:"reduced"`       // reduced motion in effect

	ByTheme          map[string]int64 `json:"by_theme"` // effective theme
	ByRequestedTheme map[string]int64 `json:"by_requested_theme"`
	ByQuality        map[string]int64 `json:"by_quality"` // effective tier name

	Reports  int64            `json:"reports"`
	Risky    int64            `json:"risky"`
	ByReason map[string]int64 `json:"by_reason"`
}

func newAggregatedStats() AggregatedStats {
	return AggregatedStats{
		ByTheme:          make(map[string]int64),
		ByRequestedTheme: make(map[string]int64),
		ByQuality:        make(map[string]int64),
		ByReason:         make(map[string]int64),
	}
}

// fillMaps initialises maps left nil by a partial file.
func (s *AggregatedStats) fillMaps() {
	if s.ByTheme == nil {
		s.ByTheme = make(map[string]int64)
	}
	if s.ByRequestedTheme == nil {
		s.ByRequestedTheme = make(map[string]int64)
	}
	if s.ByQuality == nil {
		s.ByQuality = make(map[string]int64)
	}
	if s.ByReason == nil {
		s.ByReason = make(map[string]int64)
	}
}

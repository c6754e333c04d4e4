package model

import (
	"math"
	"time"
)

// RawMetrics holds the four raw (un-normalized) metrics for one
// symbol+timeframe. Undefined metrics are NaN and are excluded from
// cross-sectional normalization.
type RawMetrics struct {
	Slope       float64
	RelStrength float64
	RelVolume   float64
	VolRatio    float64 // benchmark vol / symbol vol: >1 = calmer than benchmark
}

// TimeframeResult is the scored outcome for one symbol on one timeframe.
type TimeframeResult struct {
	Raw   RawMetrics
	Z     RawMetrics // z-scores across the universe; undefined metrics become 0
	Score float64    // weighted blend of the z-scores
	Bias  int        // sign of Score: +1 / 0 / -1
}

// SymbolScore is one row of a scan result. Immutable once the engine
// returns it.
type SymbolScore struct {
	Symbol     string
	Sector     string
	Timeframes map[Timeframe]*TimeframeResult
	Composite  float64
	Aligned    bool // every timeframe bias agrees and none are zero
	Skipped    bool // no bar data for this symbol; Composite is meaningless
}

// SectorScore is the mean composite of a sector's members.
type SectorScore struct {
	Sector  string
	Score   float64
	Members int
}

// RankedUniverse is the full output of one scan invocation, sorted
// descending by composite score (ties broken by symbol).
type RankedUniverse struct {
	ScanID       string
	Timestamp    time.Time
	ModelVersion string
	Timeframes   []Timeframe // timeframes that were actually scored
	Rows         []SymbolScore
	Sectors      []SectorScore
	Strong       []SymbolScore // top-N watchlist candidates
	Weak         []SymbolScore // bottom-N watchlist candidates
}

// Sign maps a score to its directional bias, with NaN treated as flat.
func Sign(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

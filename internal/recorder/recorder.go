package recorder

import (
	"time"

	"RSRadar/internal/model"
)

// Recorder persists scan and spot history for later analysis. The engines
// never write anywhere themselves; they hand immutable results here.
type Recorder interface {
	RecordScan(ranked *model.RankedUniverse) error
	RecordSpot(results []*model.SpotMetrics) error
	Close() error
}

// StockHistoryRow is one historical scan entry for a symbol.
type StockHistoryRow struct {
	Timestamp time.Time
	ScanID    string
	Composite float64
	Rank      int
	Aligned   bool
}

// WatchlistFreqRow counts how often a symbol made a watchlist.
type WatchlistFreqRow struct {
	Symbol string
	Count  int
}

// SectorTrendRow is one sector's score at one scan.
type SectorTrendRow struct {
	Timestamp time.Time
	Sector    string
	Score     float64
}

// RankingPivot is composite history pivoted per symbol: one column per
// scan (oldest first), one row per symbol.
type RankingPivot struct {
	ScanTimes []time.Time
	Rows      []RankingPivotRow
}

// RankingPivotRow holds one symbol's composites aligned with the pivot's
// ScanTimes; NaN where the symbol was not scored in that scan.
type RankingPivotRow struct {
	Symbol     string
	Composites []float64
}

// SectorChangeRow compares a sector's latest score with its score from an
// older scan.
type SectorChangeRow struct {
	Sector   string
	Current  float64
	Previous float64 // NaN when no scan is old enough
	Delta    float64 // Current - Previous; NaN when Previous is NaN
}

// Reporter serves the historical comparison queries (score history,
// ranking pivots, watchlist frequency, sector trends and deltas) that
// live outside the engine.
type Reporter interface {
	StockHistory(symbol string, limit int) ([]StockHistoryRow, error)
	RankingHistory(scans int) (*RankingPivot, error)
	WatchlistFrequency(side string, limit int) ([]WatchlistFreqRow, error)
	SectorTrend(limit int) ([]SectorTrendRow, error)
	SectorChange(days int) ([]SectorChangeRow, error)
}

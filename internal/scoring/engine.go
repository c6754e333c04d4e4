package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"RSRadar/internal/calculator"
	"RSRadar/internal/logger"
	"RSRadar/internal/model"
)

// ErrBenchmarkMissing means no timeframe had benchmark bars, so there is
// nothing to score relative strength against.
var ErrBenchmarkMissing = errors.New("benchmark data missing")

// Engine scores a universe of symbols against a benchmark across the
// model's timeframes. It is stateless between scans: every Scan builds a
// fresh result from the bar data it is handed.
type Engine struct {
	model     Model
	benchmark string
	sectors   map[string]string
	topN      int
}

// NewEngine creates a scan engine. sectors maps symbol → sector tag.
func NewEngine(m Model, benchmark string, sectors map[string]string, topN int) *Engine {
	if topN <= 0 {
		topN = 10
	}
	return &Engine{model: m, benchmark: benchmark, sectors: sectors, topN: topN}
}

// Scan runs the two-phase pipeline: gather raw metrics for every symbol,
// then normalize across the universe per timeframe, blend, and rank.
//
// A timeframe without benchmark bars is dropped from the scan (its weight
// is redistributed); a symbol without bars is kept as a skipped row so the
// caller can report it. Only a scan with zero scorable timeframes fails.
func (e *Engine) Scan(data map[model.Timeframe]model.UniverseBars) (*model.RankedUniverse, error) {
	active := e.activeTimeframes(data)
	if len(active) == 0 {
		return nil, fmt.Errorf("no scorable timeframes: %w", ErrBenchmarkMissing)
	}

	symbols := e.universeSymbols(data, active)
	if len(symbols) == 0 {
		return nil, errors.New("empty universe")
	}

	// Phase 1: raw metrics per symbol per timeframe. Undefined metrics are
	// NaN; normalization excludes them and later treats them as neutral.
	rows := make([]model.SymbolScore, len(symbols))
	for i, sym := range symbols {
		rows[i] = model.SymbolScore{
			Symbol:     sym,
			Sector:     e.sectors[sym],
			Timeframes: make(map[model.Timeframe]*model.TimeframeResult),
		}
		for _, tf := range active {
			bars, ok := data[tf][sym]
			if !ok || len(bars) == 0 {
				continue
			}
			raw := e.rawMetrics(sym, tf, bars, data[tf][e.benchmark])
			rows[i].Timeframes[tf] = &model.TimeframeResult{Raw: raw}
		}
		if len(rows[i].Timeframes) == 0 {
			rows[i].Skipped = true
			rows[i].Composite = math.NaN()
			logger.Warn("no bar data for symbol, listing with null score",
				zap.String("symbol", sym))
		}
	}

	// Phase 2: cross-sectional z-scores per timeframe, then blend.
	for _, tf := range active {
		e.normalizeTimeframe(rows, tf)
	}
	for i := range rows {
		if rows[i].Skipped {
			continue
		}
		e.blendComposite(&rows[i], active)
	}

	ranked := &model.RankedUniverse{
		ScanID:       uuid.New().String()[:8],
		Timestamp:    time.Now().UTC(),
		ModelVersion: e.model.Version,
		Timeframes:   active,
		Rows:         rows,
	}
	rank(ranked, e.topN)
	return ranked, nil
}

// activeTimeframes keeps the scan timeframes that have data and benchmark
// bars. Losing the benchmark is fatal for that timeframe only.
func (e *Engine) activeTimeframes(data map[model.Timeframe]model.UniverseBars) []model.Timeframe {
	var active []model.Timeframe
	for _, tf := range e.model.ScanTimeframes() {
		bars, ok := data[tf]
		if !ok {
			continue
		}
		if len(bars[e.benchmark]) == 0 {
			logger.Error("benchmark bars missing, dropping timeframe from scan",
				zap.String("benchmark", e.benchmark), zap.String("timeframe", string(tf)))
			continue
		}
		active = append(active, tf)
	}
	return active
}

// universeSymbols returns the sorted union of scored symbols, benchmark
// excluded — the benchmark is never ranked against itself.
func (e *Engine) universeSymbols(data map[model.Timeframe]model.UniverseBars, active []model.Timeframe) []string {
	seen := make(map[string]bool)
	for _, tf := range active {
		for sym := range data[tf] {
			if sym != e.benchmark {
				seen[sym] = true
			}
		}
	}
	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

func (e *Engine) rawMetrics(sym string, tf model.Timeframe, bars, bench []model.OHLCV) model.RawMetrics {
	lb := e.model.Lookbacks[tf]
	return model.RawMetrics{
		Slope:       metricOrNaN(sym, tf, "slope", func() (float64, error) { return calculator.Slope(bars, lb.Slope) }),
		RelStrength: metricOrNaN(sym, tf, "rel_strength", func() (float64, error) { return calculator.RelativeStrength(bars, bench, lb.RelStrength) }),
		RelVolume:   metricOrNaN(sym, tf, "rel_volume", func() (float64, error) { return calculator.RelativeVolume(bars, lb.RelVolume) }),
		VolRatio:    metricOrNaN(sym, tf, "vol_ratio", func() (float64, error) { return calculator.VolatilityRatio(bars, bench, lb.VolRatio) }),
	}
}

func metricOrNaN(sym string, tf model.Timeframe, name string, compute func() (float64, error)) float64 {
	v, err := compute()
	if err != nil {
		logger.Debug("metric undefined",
			zap.String("symbol", sym), zap.String("timeframe", string(tf)),
			zap.String("metric", name), zap.Error(err))
		return math.NaN()
	}
	return v
}

// normalizeTimeframe z-scores each raw metric across the universe for one
// timeframe and blends the z-scores into the timeframe score.
func (e *Engine) normalizeTimeframe(rows []model.SymbolScore, tf model.Timeframe) {
	results := make([]*model.TimeframeResult, 0, len(rows))
	for i := range rows {
		if r, ok := rows[i].Timeframes[tf]; ok {
			results = append(results, r)
		}
	}
	if len(results) == 0 {
		return
	}

	normalize := func(get func(model.RawMetrics) float64, set func(*model.RawMetrics, float64)) {
		raw := make([]float64, len(results))
		for i, r := range results {
			raw[i] = get(r.Raw)
		}
		for i, z := range zscores(raw) {
			set(&results[i].Z, z)
		}
	}
	normalize(func(r model.RawMetrics) float64 { return r.Slope },
		func(z *model.RawMetrics, v float64) { z.Slope = v })
	normalize(func(r model.RawMetrics) float64 { return r.RelStrength },
		func(z *model.RawMetrics, v float64) { z.RelStrength = v })
	normalize(func(r model.RawMetrics) float64 { return r.RelVolume },
		func(z *model.RawMetrics, v float64) { z.RelVolume = v })
	normalize(func(r model.RawMetrics) float64 { return r.VolRatio },
		func(z *model.RawMetrics, v float64) { z.VolRatio = v })

	w := e.model.Metrics
	for _, r := range results {
		r.Score = w.Slope*r.Z.Slope +
			w.RelStrength*r.Z.RelStrength +
			w.RelVolume*r.Z.RelVolume +
			w.VolRatio*r.Z.VolRatio
		r.Bias = model.Sign(r.Score)
	}
}

// blendComposite combines the symbol's timeframe scores into the composite
// and derives the cross-timeframe bias alignment.
func (e *Engine) blendComposite(row *model.SymbolScore, active []model.Timeframe) {
	scores := make(map[model.Timeframe]float64, len(row.Timeframes))
	for tf, r := range row.Timeframes {
		scores[tf] = r.Score
	}
	composite, ok := Blend(scores, e.model.TimeframeWeights)
	if !ok {
		row.Skipped = true
		row.Composite = math.NaN()
		return
	}
	row.Composite = composite

	aligned := len(row.Timeframes) == len(active)
	first := 0
	for _, tf := range active {
		r, ok := row.Timeframes[tf]
		if !ok {
			continue
		}
		if first == 0 {
			first = r.Bias
		}
		if r.Bias == 0 || r.Bias != first {
			aligned = false
		}
	}
	row.Aligned = aligned && first != 0
}

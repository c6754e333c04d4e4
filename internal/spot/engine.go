// Package spot implements the intraday composite engine: absolute per-symbol
// diagnostics (ATR, range consumed, relative volume, key levels) plus a
// benchmark-relative momentum composite over the 1h/15m/5m timeframes.
// Unlike the scan engine there is no cross-sectional normalization.
package spot

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"RSRadar/internal/calculator"
	"RSRadar/internal/logger"
	"RSRadar/internal/model"
	"RSRadar/internal/scoring"
)

// ErrNoData means the symbol had no daily bars, the minimum a spot scan needs.
var ErrNoData = errors.New("no bar data")

const rollingLevelDays = 20

// Engine computes spot metrics for single symbols or the whole universe.
type Engine struct {
	model     scoring.Model
	benchmark string
	sectors   map[string]string
}

// NewEngine creates a spot engine. sectors maps symbol → sector tag.
func NewEngine(m scoring.Model, benchmark string, sectors map[string]string) *Engine {
	return &Engine{model: m, benchmark: benchmark, sectors: sectors}
}

// ScanSymbol computes the full spot snapshot for one symbol. Individual
// metrics degrade to NaN when their inputs are missing; only the complete
// absence of daily bars fails the symbol.
func (e *Engine) ScanSymbol(symbol string, data map[model.Timeframe]model.UniverseBars) (*model.SpotMetrics, error) {
	daily := data[model.TimeframeDaily][symbol]
	if len(daily) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	weekly := data[model.TimeframeWeekly][symbol]
	hourly := data[model.Timeframe1H][symbol]

	m := &model.SpotMetrics{
		Symbol:    symbol,
		Sector:    e.sectors[symbol],
		Timestamp: time.Now().UTC(),
		Intraday:  make(map[model.Timeframe]*model.SpotTimeframe),
	}

	atrLB := e.model.ATRLookback
	m.WeeklyATR = valueOrNaN(func() (float64, error) { return calculator.ATR(weekly, atrLB) })
	m.DailyATR = valueOrNaN(func() (float64, error) { return calculator.ATR(daily, atrLB) })
	m.HourlyATR = valueOrNaN(func() (float64, error) { return calculator.ATR(hourly, atrLB) })

	m.DailyRangeConsumed = valueOrNaN(func() (float64, error) { return calculator.RangeConsumed(daily, m.DailyATR) })
	m.WeeklyRangeConsumed = valueOrNaN(func() (float64, error) { return calculator.RangeConsumed(weekly, m.WeeklyATR) })

	if lv, err := calculator.ComputeLevels(daily, rollingLevelDays); err == nil {
		m.Price = lv.Price
		m.DailyHigh = lv.DailyHigh
		m.DailyLow = lv.DailyLow
		m.High20D = lv.High20D
		m.Low20D = lv.Low20D
		m.PctFromDayHigh = lv.PctFromDayHigh
		m.PctFromDayLow = lv.PctFromDayLow
		m.PctFrom20DHigh = lv.PctFrom20DHigh
		m.PctFrom20DLow = lv.PctFrom20DLow
	} else {
		logger.Warn("key levels undefined", zap.String("symbol", symbol), zap.Error(err))
		m.Price = daily[len(daily)-1].Close
	}

	// Session volume vs the trailing 20-day average.
	m.RVolDaily = valueOrNaN(func() (float64, error) { return calculator.RelativeVolume(daily, 20) })

	// Per-timeframe intraday diagnostics and the momentum composite.
	rsScores := make(map[model.Timeframe]float64)
	biases := make([]int, 0, 3)
	for _, tf := range e.model.SpotTimeframes() {
		bars := data[tf][symbol]
		if len(bars) == 0 {
			continue
		}
		bench := data[tf][e.benchmark]
		rsLB := e.model.SpotRSLookbacks[tf]

		stf := &model.SpotTimeframe{
			RelStrength: valueOrNaN(func() (float64, error) { return calculator.RelativeStrength(bars, bench, rsLB) }),
			ATR:         valueOrNaN(func() (float64, error) { return calculator.ATR(bars, atrLB) }),
			RelVolume:   valueOrNaN(func() (float64, error) { return calculator.RelativeVolume(bars, rsLB) }),
		}
		m.Intraday[tf] = stf

		if !math.IsNaN(stf.RelStrength) {
			rsScores[tf] = stf.RelStrength
			biases = append(biases, model.Sign(stf.RelStrength))
		}
	}

	if momentum, ok := scoring.Blend(rsScores, e.model.SpotWeights); ok {
		m.Momentum = momentum
	} else {
		m.Momentum = math.NaN()
	}
	m.MomentumBias = model.Sign(m.Momentum)
	m.MomentumAligned = aligned(biases)

	return m, nil
}

// ScanUniverse runs the spot scan for every symbol in the daily set except
// the benchmark, sorted by momentum composite descending. Symbols without
// data are logged and dropped.
func (e *Engine) ScanUniverse(data map[model.Timeframe]model.UniverseBars) []*model.SpotMetrics {
	symbols := make([]string, 0, len(data[model.TimeframeDaily]))
	for sym := range data[model.TimeframeDaily] {
		if sym != e.benchmark {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	results := make([]*model.SpotMetrics, 0, len(symbols))
	for _, sym := range symbols {
		m, err := e.ScanSymbol(sym, data)
		if err != nil {
			logger.Warn("spot scan skipped symbol", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		results = append(results, m)
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		aNaN, bNaN := math.IsNaN(a.Momentum), math.IsNaN(b.Momentum)
		switch {
		case aNaN != bNaN:
			return !aNaN
		case !aNaN && a.Momentum != b.Momentum:
			return a.Momentum > b.Momentum
		default:
			return a.Symbol < b.Symbol
		}
	})
	return results
}

func valueOrNaN(compute func() (float64, error)) float64 {
	v, err := compute()
	if err != nil {
		return math.NaN()
	}
	return v
}

// aligned reports whether every defined bias agrees and none are flat.
func aligned(biases []int) bool {
	if len(biases) == 0 {
		return false
	}
	first := biases[0]
	if first == 0 {
		return false
	}
	for _, b := range biases[1:] {
		if b != first {
			return false
		}
	}
	return true
}

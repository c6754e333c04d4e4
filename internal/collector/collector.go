package collector

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"RSRadar/internal/logger"
	"RSRadar/internal/model"
)

// Collector batch-fetches bar data for a universe. Per-symbol failures are
// recorded as empty entries so downstream stages can list the symbol with a
// null score; only a benchmark failure is reported as an error, because a
// timeframe cannot be scored relative to a benchmark it has no bars for.
type Collector struct {
	Fetcher   Fetcher
	Benchmark string
}

// NewCollector creates a Collector.
func NewCollector(fetcher Fetcher, benchmark string) *Collector {
	return &Collector{Fetcher: fetcher, Benchmark: benchmark}
}

// FetchUniverse fetches one timeframe of bars for every symbol plus the
// benchmark. The returned map always contains an entry per requested
// symbol; failed symbols map to nil.
func (c *Collector) FetchUniverse(symbols []string, tf model.Timeframe, lookback int) (model.UniverseBars, error) {
	data := make(model.UniverseBars, len(symbols)+1)

	var benchErr error
	for _, sym := range withBenchmark(symbols, c.Benchmark) {
		bars, err := c.Fetcher.FetchBars(sym, tf, lookback)
		if err != nil {
			if sym == c.Benchmark {
				benchErr = fmt.Errorf("benchmark %s %s: %w", sym, tf, err)
				continue
			}
			logger.Warn("symbol unavailable, will list with null score",
				zap.String("symbol", sym), zap.String("timeframe", string(tf)), zap.Error(err))
			data[sym] = nil
			continue
		}
		data[sym] = bars
	}
	return data, benchErr
}

// FetchSymbol fetches one timeframe for a single symbol and the benchmark.
func (c *Collector) FetchSymbol(symbol string, tf model.Timeframe, lookback int) (model.UniverseBars, error) {
	if symbol == c.Benchmark {
		return c.FetchUniverse(nil, tf, lookback)
	}
	return c.FetchUniverse([]string{symbol}, tf, lookback)
}

func withBenchmark(symbols []string, benchmark string) []string {
	for _, s := range symbols {
		if s == benchmark {
			return symbols
		}
	}
	return append([]string{benchmark}, symbols...)
}

// IsUnavailable reports whether err stems from missing upstream data.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}

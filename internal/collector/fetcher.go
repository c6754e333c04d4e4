package collector

import (
	"errors"

	"RSRadar/internal/model"
)

// ErrDataUnavailable means the upstream source returned nothing usable for
// a symbol. The symbol is excluded from cross-sectional stats but still
// listed in scan output with a null score.
var ErrDataUnavailable = errors.New("data unavailable")

// Fetcher defines the interface for fetching bar data.
//
// lookback is in the timeframe's natural unit: weeks for the weekly
// timeframe, trading days for everything else.
type Fetcher interface {
	FetchBars(symbol string, tf model.Timeframe, lookback int) ([]model.OHLCV, error)
	Name() string
}

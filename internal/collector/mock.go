package collector

import (
	"fmt"
	"time"

	"RSRadar/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[string]map[model.Timeframe][]model.OHLCV
	Failed map[string]bool // symbols that simulate an upstream failure
	Price  float64         // base price for generated bars when Series is empty
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(symbol string, tf model.Timeframe, lookback int) ([]model.OHLCV, error) {
	if m.Failed[symbol] {
		return nil, fmt.Errorf("%s: %w", symbol, ErrDataUnavailable)
	}
	if series, ok := m.Series[symbol]; ok {
		if bars, ok := series[tf]; ok {
			return bars, nil
		}
		return nil, fmt.Errorf("%s %s: %w", symbol, tf, ErrDataUnavailable)
	}
	price := m.Price
	if price == 0 {
		price = 100
	}
	return generateMockBars(price, lookback+1), nil
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   time.Now().UTC().AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1_000_000,
		}
	}
	return bars
}

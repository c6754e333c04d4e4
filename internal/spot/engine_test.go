package spot

import (
	"errors"
	"math"
	"testing"
	"time"

	"RSRadar/internal/model"
	"RSRadar/internal/scoring"
)

func mkBars(start, step float64, n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	price := start
	for i := 0; i < n; i++ {
		bars[i] = model.OHLCV{
			Time:   time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 500_000,
		}
		price += step
	}
	return bars
}

func testEngine() *Engine {
	m, _ := scoring.ModelByVersion(scoring.DefaultVersion)
	return NewEngine(m, "SPY", map[string]string{"AAA": "XLK", "BBB": "XLF"})
}

func fullData(symStep float64) map[model.Timeframe]model.UniverseBars {
	data := map[model.Timeframe]model.UniverseBars{}
	for _, tf := range []model.Timeframe{
		model.TimeframeWeekly, model.TimeframeDaily,
		model.Timeframe1H, model.Timeframe15M, model.Timeframe5M,
	} {
		data[tf] = model.UniverseBars{
			"AAA": mkBars(100, symStep, 30),
			"SPY": mkBars(400, 0, 30),
		}
	}
	return data
}

func TestScanSymbol_NoDailyBars(t *testing.T) {
	_, err := testEngine().ScanSymbol("AAA", map[model.Timeframe]model.UniverseBars{})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestScanSymbol_AtDailyHigh(t *testing.T) {
	data := fullData(0.5)
	daily := data[model.TimeframeDaily]["AAA"]
	last := &daily[len(daily)-1]
	last.High = last.Close // close pinned to the session high

	m, err := testEngine().ScanSymbol("AAA", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.PctFromDayHigh != 0 {
		t.Errorf("expected 0%% from daily high, got %v", m.PctFromDayHigh)
	}
	// With close == high, range consumed is the full bar range over ATR —
	// the maximum defined magnitude for the day.
	wantMax := (last.High - last.Low) / m.DailyATR
	if math.Abs(m.DailyRangeConsumed-wantMax) > 1e-12 {
		t.Errorf("expected range consumed %v, got %v", wantMax, m.DailyRangeConsumed)
	}
}

func TestScanSymbol_MomentumPositiveAndAligned(t *testing.T) {
	m, err := testEngine().ScanSymbol("AAA", fullData(0.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(m.Intraday) != 3 {
		t.Fatalf("expected 3 intraday timeframes, got %d", len(m.Intraday))
	}
	for tf, stf := range m.Intraday {
		if stf.RelStrength <= 0 {
			t.Errorf("%s: expected positive RS vs flat benchmark, got %v", tf, stf.RelStrength)
		}
		if math.IsNaN(stf.ATR) {
			t.Errorf("%s: expected defined ATR", tf)
		}
	}
	if m.Momentum <= 0 || m.MomentumBias != 1 {
		t.Errorf("expected positive momentum composite, got %v (bias %d)", m.Momentum, m.MomentumBias)
	}
	if !m.MomentumAligned {
		t.Error("expected aligned momentum biases")
	}
}

func TestScanSymbol_MomentumRenormalizesOnMissingTimeframes(t *testing.T) {
	data := fullData(0.5)
	// Drop 15m and 5m: momentum must equal the 1h RS, not half of it.
	delete(data, model.Timeframe15M)
	delete(data, model.Timeframe5M)

	m, err := testEngine().ScanSymbol("AAA", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rs := m.Intraday[model.Timeframe1H].RelStrength
	if math.Abs(m.Momentum-rs) > 1e-12 {
		t.Errorf("expected momentum %v (1h RS alone), got %v", rs, m.Momentum)
	}
}

func TestScanSymbol_NoIntradayDataMeansFlatMomentum(t *testing.T) {
	data := fullData(0.5)
	delete(data, model.Timeframe1H)
	delete(data, model.Timeframe15M)
	delete(data, model.Timeframe5M)

	m, err := testEngine().ScanSymbol("AAA", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(m.Momentum) || m.MomentumBias != 0 || m.MomentumAligned {
		t.Errorf("expected undefined momentum, got %v (bias %d aligned %v)",
			m.Momentum, m.MomentumBias, m.MomentumAligned)
	}
}

func TestScanUniverse_SortsByMomentum(t *testing.T) {
	data := fullData(0.5) // AAA outperforms
	for _, tf := range []model.Timeframe{
		model.TimeframeWeekly, model.TimeframeDaily,
		model.Timeframe1H, model.Timeframe15M, model.Timeframe5M,
	} {
		data[tf]["BBB"] = mkBars(100, -0.5, 30) // BBB underperforms
	}

	results := testEngine().ScanUniverse(data)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Symbol != "AAA" || results[1].Symbol != "BBB" {
		t.Errorf("expected AAA above BBB, got %s, %s", results[0].Symbol, results[1].Symbol)
	}
	if results[0].Sector != "XLK" {
		t.Errorf("expected sector tag XLK, got %q", results[0].Sector)
	}
}

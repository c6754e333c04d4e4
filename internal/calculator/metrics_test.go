package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"RSRadar/internal/model"
)

func barsFromCloses(closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func barsFromVolumes(volumes ...float64) []model.OHLCV {
	bars := barsFromCloses(make([]float64, len(volumes))...)
	for i := range bars {
		bars[i].Close = 100
		bars[i].Volume = volumes[i]
	}
	return bars
}

func TestSlope_ExactExponential(t *testing.T) {
	// close = 100 * e^(0.01*i) → log-linear slope is exactly 0.01
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100 * math.Exp(0.01*float64(i))
	}
	slope, err := Slope(barsFromCloses(closes...), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(slope-0.01) > 1e-12 {
		t.Errorf("expected slope 0.01, got %.15f", slope)
	}
}

func TestSlope_FlatSeriesIsZero(t *testing.T) {
	slope, err := Slope(barsFromCloses(100, 100, 100, 100, 100), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slope != 0 {
		t.Errorf("expected zero slope for flat series, got %v", slope)
	}
}

func TestSlope_InsufficientData(t *testing.T) {
	if _, err := Slope(barsFromCloses(100), 5); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := Slope(barsFromCloses(100, 101), 1); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for lookback < 2, got %v", err)
	}
}

func TestRelativeStrength_FlatBenchmark(t *testing.T) {
	symbol := barsFromCloses(100, 102, 104, 106, 110)
	bench := barsFromCloses(400, 400, 400, 400, 400)

	rs, err := RelativeStrength(symbol, bench, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Log(110.0 / 100.0)
	if math.Abs(rs-want) > 1e-12 {
		t.Errorf("expected %.6f, got %.6f", want, rs)
	}
}

func TestRelativeStrength_AlignsToShorterTail(t *testing.T) {
	// Benchmark has 8 bars, symbol only 5 — window must use the last 5 of both.
	symbol := barsFromCloses(100, 100, 100, 100, 120)
	bench := barsFromCloses(900, 800, 700, 200, 200, 200, 200, 200)

	rs, err := RelativeStrength(symbol, bench, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both tails are flat except the symbol's final pop.
	want := math.Log(120.0 / 100.0)
	if math.Abs(rs-want) > 1e-12 {
		t.Errorf("expected %.6f, got %.6f", want, rs)
	}
}

func TestRelativeVolume_ExcludesLastBar(t *testing.T) {
	// Trailing avg over the 4 bars before the last = (100+100+100+100)/4.
	rvol, err := RelativeVolume(barsFromVolumes(100, 100, 100, 100, 300), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(rvol-3.0) > 1e-12 {
		t.Errorf("expected rvol 3.0, got %v", rvol)
	}
}

func TestRelativeVolume_ZeroAverageUndefined(t *testing.T) {
	_, err := RelativeVolume(barsFromVolumes(0, 0, 0, 0, 500), 4)
	if !errors.Is(err, ErrUndefinedMetric) {
		t.Errorf("expected ErrUndefinedMetric, got %v", err)
	}
}

func TestVolatilityRatio_InvertedOrdering(t *testing.T) {
	// Symbol alternates ±2%, benchmark ±1% — symbol is twice as volatile,
	// so the inverted ratio must be below 1.
	symbol := barsFromCloses(100, 102, 100, 102, 100, 102, 100, 102, 100, 102, 100)
	bench := barsFromCloses(100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100)

	ratio, err := VolatilityRatio(symbol, bench, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ratio >= 1 {
		t.Errorf("expected inverted ratio < 1 for the noisier symbol, got %v", ratio)
	}

	// Swapping the series must invert the result.
	inv, err := VolatilityRatio(bench, symbol, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ratio*inv-1) > 1e-9 {
		t.Errorf("expected reciprocal ratios, got %v and %v", ratio, inv)
	}
}

func TestVolatilityRatio_FlatBenchmarkUndefined(t *testing.T) {
	symbol := barsFromCloses(100, 102, 100, 102, 100, 102)
	flat := barsFromCloses(100, 100, 100, 100, 100, 100)

	if _, err := VolatilityRatio(symbol, flat, 5); !errors.Is(err, ErrUndefinedMetric) {
		t.Errorf("expected ErrUndefinedMetric for flat benchmark, got %v", err)
	}
	// A flat symbol would divide by zero too.
	if _, err := VolatilityRatio(flat, symbol, 5); !errors.Is(err, ErrUndefinedMetric) {
		t.Errorf("expected ErrUndefinedMetric for flat symbol, got %v", err)
	}
}

package calculator

import (
	"errors"
	"math"
	"testing"

	"RSRadar/internal/model"
)

// rangeBars builds bars with a constant high-low range around each close.
func rangeBars(spread float64, closes ...float64) []model.OHLCV {
	bars := barsFromCloses(closes...)
	for i := range bars {
		bars[i].High = bars[i].Close + spread/2
		bars[i].Low = bars[i].Close - spread/2
	}
	return bars
}

func TestATR_ConstantRange(t *testing.T) {
	// Flat closes with a constant 2-point bar range → ATR is exactly 2.
	bars := rangeBars(2, 100, 100, 100, 100, 100, 100)
	atr, err := ATR(bars, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(atr-2) > 1e-12 {
		t.Errorf("expected ATR 2, got %v", atr)
	}
}

func TestATR_GapUsesPrevClose(t *testing.T) {
	// A gap up makes high-prevClose the dominant true range term.
	bars := rangeBars(2, 100, 100)
	bars = append(bars, model.OHLCV{Open: 110, High: 111, Low: 109, Close: 110})
	atr, err := ATR(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// TR[1] = 2, TR[2] = 111 - 100 = 11 → ATR = 6.5
	if math.Abs(atr-6.5) > 1e-12 {
		t.Errorf("expected ATR 6.5, got %v", atr)
	}
}

func TestATR_InsufficientData(t *testing.T) {
	if _, err := ATR(rangeBars(2, 100, 100), 5); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRangeConsumed(t *testing.T) {
	bars := rangeBars(2, 100, 100)
	// Last bar: low 99, close 100 → one point of a 2-point ATR consumed.
	got, err := RangeConsumed(bars, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %v", got)
	}

	if _, err := RangeConsumed(bars, 0); !errors.Is(err, ErrUndefinedMetric) {
		t.Errorf("expected ErrUndefinedMetric for zero ATR, got %v", err)
	}
}

func TestComputeLevels_AtDailyHigh(t *testing.T) {
	bars := rangeBars(2, 100, 101, 102)
	// Close pinned to the daily high.
	bars[len(bars)-1].High = bars[len(bars)-1].Close

	lv, err := ComputeLevels(bars, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lv.PctFromDayHigh != 0 {
		t.Errorf("expected 0%% from daily high, got %v", lv.PctFromDayHigh)
	}
	if lv.PctFromDayLow <= 0 {
		t.Errorf("expected positive distance above daily low, got %v", lv.PctFromDayLow)
	}
	if lv.High20D != 102 || lv.Low20D != 99 {
		t.Errorf("unexpected rolling range: high=%v low=%v", lv.High20D, lv.Low20D)
	}
}

func TestComputeLevels_RollingWindowTruncates(t *testing.T) {
	// 25 rising bars with a 20-bar window: the early lows must be excluded.
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	lv, err := ComputeLevels(rangeBars(0, closes...), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lv.Low20D != 105 {
		t.Errorf("expected 20-bar low 105, got %v", lv.Low20D)
	}
	if lv.High20D != 124 {
		t.Errorf("expected 20-bar high 124, got %v", lv.High20D)
	}
}

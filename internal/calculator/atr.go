package calculator

import (
	"math"

	"RSRadar/internal/model"
)

// ATR computes the average true range over the last lookback bars.
// Requires lookback+1 bars because true range needs the previous close.
func ATR(bars []model.OHLCV, lookback int) (float64, error) {
	if lookback < 1 || len(bars) < lookback+1 {
		return 0, ErrInsufficientData
	}
	var sum float64
	for i := len(bars) - lookback; i < len(bars); i++ {
		sum += trueRange(bars[i], bars[i-1].Close)
	}
	return sum / float64(lookback), nil
}

func trueRange(bar model.OHLCV, prevClose float64) float64 {
	tr := bar.High - bar.Low
	if hc := math.Abs(bar.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(bar.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

// RangeConsumed is the fraction of the ATR-implied expected range already
// covered in the most recent period: (close - period low) / atr.
func RangeConsumed(bars []model.OHLCV, atr float64) (float64, error) {
	if len(bars) == 0 {
		return 0, ErrInsufficientData
	}
	if math.IsNaN(atr) || atr <= 0 {
		return 0, ErrUndefinedMetric
	}
	last := bars[len(bars)-1]
	return (last.Close - last.Low) / atr, nil
}

// Levels holds the current price's relation to key daily levels.
type Levels struct {
	Price          float64
	DailyHigh      float64
	DailyLow       float64
	High20D        float64
	Low20D         float64
	PctFromDayHigh float64
	PctFromDayLow  float64
	PctFrom20DHigh float64
	PctFrom20DLow  float64
}

// ComputeLevels derives the key daily levels and the signed percentage
// distance of the current price from each, using the last `rolling`
// daily bars for the rolling high/low (20 by convention).
func ComputeLevels(dailyBars []model.OHLCV, rolling int) (*Levels, error) {
	if len(dailyBars) == 0 {
		return nil, ErrInsufficientData
	}
	last := dailyBars[len(dailyBars)-1]
	current := last.Close
	if current == 0 {
		return nil, ErrUndefinedMetric
	}

	start := len(dailyBars) - rolling
	if start < 0 {
		start = 0
	}
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, b := range dailyBars[start:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}

	pct := func(level float64) float64 {
		return (current - level) / current * 100
	}
	return &Levels{
		Price:          current,
		DailyHigh:      last.High,
		DailyLow:       last.Low,
		High20D:        high,
		Low20D:         low,
		PctFromDayHigh: pct(last.High),
		PctFromDayLow:  pct(last.Low),
		PctFrom20DHigh: pct(high),
		PctFrom20DLow:  pct(low),
	}, nil
}

package calculator

import (
	"errors"
	"math"

	"RSRadar/internal/model"
)

var (
	// ErrInsufficientData means the bar series is too short for the
	// requested lookback. The metric is skipped, not the symbol.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrUndefinedMetric means a division guard fired and the metric has
	// no meaningful value. Treated as neutral downstream.
	ErrUndefinedMetric = errors.New("metric undefined")
)

// Slope fits a least-squares line to ln(close) over the last lookback bars
// (x = bar index) and returns its slope, the raw trend metric.
func Slope(bars []model.OHLCV, lookback int) (float64, error) {
	if lookback < 2 || len(bars) < lookback {
		return 0, ErrInsufficientData
	}
	closes := model.Closes(bars[len(bars)-lookback:])

	y := make([]float64, lookback)
	for i, c := range closes {
		if c <= 0 {
			return 0, ErrUndefinedMetric
		}
		y[i] = math.Log(c)
	}

	// Least squares on x = 0..n-1.
	n := float64(lookback)
	xMean := (n - 1) / 2
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= n

	var num, den float64
	for i, v := range y {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0, ErrUndefinedMetric
	}
	return num / den, nil
}

// RelativeStrength is the symbol's cumulative log-return over the window
// minus the benchmark's over the same window. Series of mismatched length
// are aligned by truncating both to the shorter tail.
func RelativeStrength(symbol, benchmark []model.OHLCV, lookback int) (float64, error) {
	symbol, benchmark = alignTails(symbol, benchmark)
	if lookback < 2 || len(symbol) < lookback {
		return 0, ErrInsufficientData
	}

	symRet, err := windowLogReturn(symbol, lookback)
	if err != nil {
		return 0, err
	}
	benchRet, err := windowLogReturn(benchmark, lookback)
	if err != nil {
		return 0, err
	}
	return symRet - benchRet, nil
}

// RelativeVolume is the most recent bar's volume divided by the trailing
// average volume over the lookback window, excluding the most recent bar.
func RelativeVolume(bars []model.OHLCV, lookback int) (float64, error) {
	if lookback < 1 || len(bars) < lookback+1 {
		return 0, ErrInsufficientData
	}
	last := bars[len(bars)-1].Volume

	var sum float64
	for _, v := range model.Volumes(bars[len(bars)-1-lookback : len(bars)-1]) {
		sum += v
	}
	avg := sum / float64(lookback)
	if avg == 0 {
		return 0, ErrUndefinedMetric
	}
	return last / avg, nil
}

// VolatilityRatio is the benchmark's realized volatility divided by the
// symbol's over the window — the inverse of the usual ratio, so calmer
// symbols score higher. Realized volatility is the population standard
// deviation of log-returns.
func VolatilityRatio(symbol, benchmark []model.OHLCV, lookback int) (float64, error) {
	symbol, benchmark = alignTails(symbol, benchmark)
	if lookback < 2 || len(symbol) < lookback+1 {
		return 0, ErrInsufficientData
	}

	symVol, err := realizedVol(symbol, lookback)
	if err != nil {
		return 0, err
	}
	benchVol, err := realizedVol(benchmark, lookback)
	if err != nil {
		return 0, err
	}
	if symVol == 0 || benchVol == 0 {
		return 0, ErrUndefinedMetric
	}
	return benchVol / symVol, nil
}

// alignTails truncates both series to the shorter common length, keeping
// the most recent bars.
func alignTails(a, b []model.OHLCV) ([]model.OHLCV, []model.OHLCV) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[len(a)-n:], b[len(b)-n:]
}

// windowLogReturn is ln(close_last / close_first) over the last lookback bars.
func windowLogReturn(bars []model.OHLCV, lookback int) (float64, error) {
	first := bars[len(bars)-lookback].Close
	last := bars[len(bars)-1].Close
	if first <= 0 || last <= 0 {
		return 0, ErrUndefinedMetric
	}
	return math.Log(last) - math.Log(first), nil
}

// realizedVol is the population stddev of the last lookback log-returns.
func realizedVol(bars []model.OHLCV, lookback int) (float64, error) {
	returns := make([]float64, 0, lookback)
	for i := len(bars) - lookback; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev <= 0 || cur <= 0 {
			return 0, ErrUndefinedMetric
		}
		returns = append(returns, math.Log(cur/prev))
	}
	return popStdDev(returns), nil
}

// popStdDev computes the population standard deviation.
func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

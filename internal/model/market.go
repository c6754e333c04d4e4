package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Timeframe identifies a bar granularity.
type Timeframe string

const (
	TimeframeWeekly Timeframe = "weekly"
	TimeframeDaily  Timeframe = "daily"
	TimeframeHourly Timeframe = "hourly"
	Timeframe1H     Timeframe = "1h"
	Timeframe15M    Timeframe = "15m"
	Timeframe5M     Timeframe = "5m"
)

// UniverseBars maps symbol → bar series (oldest first) for one timeframe.
type UniverseBars map[string][]OHLCV

// Closes extracts the close column from a bar series.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts the volume column from a bar series.
func Volumes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

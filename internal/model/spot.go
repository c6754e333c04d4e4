package model

import "time"

// SpotTimeframe holds the intraday diagnostics for one spot timeframe.
type SpotTimeframe struct {
	RelStrength float64 // log-return RS vs benchmark; NaN if undefined
	ATR         float64
	RelVolume   float64 // last bar volume vs trailing average
}

// SpotMetrics is the full intraday snapshot for one symbol. Computed once
// per spot invocation and handed to the recorder/notifier as-is.
type SpotMetrics struct {
	Symbol    string
	Sector    string
	Timestamp time.Time
	Price     float64

	WeeklyATR float64
	DailyATR  float64
	HourlyATR float64

	DailyRangeConsumed  float64 // fraction of daily ATR already covered
	WeeklyRangeConsumed float64

	Intraday map[Timeframe]*SpotTimeframe // 1h / 15m / 5m

	RVolDaily float64 // today's session volume vs trailing 20-day average

	Momentum        float64 // weighted intraday RS composite
	MomentumBias    int
	MomentumAligned bool

	DailyHigh      float64
	DailyLow       float64
	High20D        float64
	Low20D         float64
	PctFromDayHigh float64 // signed % distance from the level
	PctFromDayLow  float64
	PctFrom20DHigh float64
	PctFrom20DLow  float64
}

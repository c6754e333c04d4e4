package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"RSRadar/internal/collector"
	"RSRadar/internal/model"
	"RSRadar/internal/recorder"
	"RSRadar/internal/scoring"
	"RSRadar/internal/spot"
)

func mkBars(start, step float64, n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	price := start
	for i := 0; i < n; i++ {
		bars[i] = model.OHLCV{
			Time:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1000,
		}
		price += step
	}
	return bars
}

func testScheduler(fetcher collector.Fetcher) *Scheduler {
	m, _ := scoring.ModelByVersion("")
	sectors := map[string]string{"AAA": "XLK", "BBB": "XLF"}
	col := collector.NewCollector(fetcher, "SPY")
	return NewScheduler(context.Background(),
		col,
		scoring.NewEngine(m, "SPY", sectors, 10),
		spot.NewEngine(m, "SPY", sectors),
		nil,
		recorder.NewNoopRecorder(),
		ScanParams{
			Symbols:     []string{"AAA", "BBB"},
			TopN:        10,
			TradingDays: 15,
			Weeks:       12,
			HourlyDays:  15,
		})
}

func TestGatherScan_DropsTimeframeWithoutBenchmark(t *testing.T) {
	// The benchmark has weekly and daily series only, so the hourly
	// timeframe cannot be gathered.
	fetcher := &collector.MockFetcher{
		Series: map[string]map[model.Timeframe][]model.OHLCV{
			"SPY": {
				model.TimeframeWeekly: mkBars(100, 0, 13),
				model.TimeframeDaily:  mkBars(100, 0, 16),
			},
		},
	}
	s := testScheduler(fetcher)

	data, err := s.GatherScan()
	if err != nil {
		t.Fatalf("GatherScan() error = %v", err)
	}
	if _, ok := data[model.TimeframeHourly]; ok {
		t.Error("hourly timeframe should be dropped without benchmark bars")
	}
	if _, ok := data[model.TimeframeWeekly]; !ok {
		t.Error("weekly timeframe missing")
	}
	if _, ok := data[model.TimeframeDaily]; !ok {
		t.Error("daily timeframe missing")
	}
}

func TestRunScan_EndToEnd(t *testing.T) {
	s := testScheduler(&collector.MockFetcher{})

	ranked, err := s.RunScan()
	if err != nil {
		t.Fatalf("RunScan() error = %v", err)
	}
	if len(ranked.Timeframes) != 3 {
		t.Errorf("Timeframes = %v, want all three", ranked.Timeframes)
	}
	if len(ranked.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2", len(ranked.Rows))
	}
	for _, row := range ranked.Rows {
		if row.Skipped {
			t.Errorf("%s skipped with mock data available", row.Symbol)
		}
	}
}

func TestRunScan_NoHourly(t *testing.T) {
	s := testScheduler(&collector.MockFetcher{})
	s.Params.NoHourly = true

	ranked, err := s.RunScan()
	if err != nil {
		t.Fatalf("RunScan() error = %v", err)
	}
	for _, tf := range ranked.Timeframes {
		if tf == model.TimeframeHourly {
			t.Error("hourly timeframe scored despite NoHourly")
		}
	}
}

func TestHandleCommand(t *testing.T) {
	s := testScheduler(&collector.MockFetcher{})

	if got := s.HandleCommand("/top"); got != "Scan history is not being recorded." {
		t.Errorf("/top = %q", got)
	}
	if got := s.HandleCommand("/bogus"); !strings.Contains(got, "/scan") {
		t.Errorf("help text = %q", got)
	}
	got := s.HandleCommand("/spot aaa")
	if !strings.Contains(got, "AAA") {
		t.Errorf("/spot aaa = %q, want a detail for AAA", got)
	}
}

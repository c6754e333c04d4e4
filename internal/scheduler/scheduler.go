package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"RSRadar/internal/collector"
	"RSRadar/internal/logger"
	"RSRadar/internal/model"
	"RSRadar/internal/notifier"
	"RSRadar/internal/recorder"
	"RSRadar/internal/scoring"
	"RSRadar/internal/spot"
)

// Lookbacks, in trading days, for the intraday bar series the spot scan
// consumes. Sized to cover the longest per-timeframe RS window with room
// for partial sessions.
const (
	spotHourlyDays = 5
	spotMinuteDays = 2
	spotDailyDays  = 30
	spotWeeks      = 15
)

// ScanParams are the tunable inputs of a full scan.
type ScanParams struct {
	Symbols     []string
	TopN        int
	TradingDays int
	Weeks       int
	HourlyDays  int
	NoHourly    bool
}

// Scheduler manages cron-driven scans and serves Telegram commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Scan      *scoring.Engine
	Spot      *spot.Engine
	Notifier  *notifier.TelegramNotifier
	Recorder  recorder.Recorder
	Params    ScanParams
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, scanEng *scoring.Engine, spotEng *spot.Engine, tn *notifier.TelegramNotifier, rec recorder.Recorder, params ScanParams) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Scan:      scanEng,
		Spot:      spotEng,
		Notifier:  tn,
		Recorder:  rec,
		Params:    params,
		Ctx:       ctx,
	}
}

// RegisterAll registers the end-of-day scan and the intraday spot task.
func (s *Scheduler) RegisterAll(scanCron, spotCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(spotCron, s.spotTask); err != nil {
		return fmt.Errorf("register spot task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	logger.Info("scheduler stopped")
}

// RunScanNow executes the scan task immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

// GatherScan fetches bar data for every scan timeframe of the universe.
// A timeframe whose benchmark fetch fails is dropped from the result;
// dropping all of them is an error.
func (s *Scheduler) GatherScan() (map[model.Timeframe]model.UniverseBars, error) {
	lookbacks := map[model.Timeframe]int{
		model.TimeframeWeekly: s.Params.Weeks,
		model.TimeframeDaily:  s.Params.TradingDays,
	}
	if !s.Params.NoHourly {
		lookbacks[model.TimeframeHourly] = s.Params.HourlyDays
	}

	data := make(map[model.Timeframe]model.UniverseBars, len(lookbacks))
	for tf, lookback := range lookbacks {
		bars, err := s.Collector.FetchUniverse(s.Params.Symbols, tf, lookback)
		if err != nil {
			logger.Error("timeframe dropped, benchmark unavailable",
				zap.String("timeframe", string(tf)), zap.Error(err))
			continue
		}
		data[tf] = bars
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no timeframe could be gathered")
	}
	return data, nil
}

// RunScan gathers data, scores the universe, and records the result.
func (s *Scheduler) RunScan() (*model.RankedUniverse, error) {
	data, err := s.GatherScan()
	if err != nil {
		return nil, err
	}
	ranked, err := s.Scan.Scan(data)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordScan(ranked); err != nil {
		logger.Error("record scan", zap.Error(err))
	}
	return ranked, nil
}

// GatherSpot fetches the daily, weekly, hourly, and intraday series the
// spot engine consumes. symbols nil means the whole universe.
func (s *Scheduler) GatherSpot(symbols []string) (map[model.Timeframe]model.UniverseBars, error) {
	if symbols == nil {
		symbols = s.Params.Symbols
	}
	lookbacks := map[model.Timeframe]int{
		model.TimeframeWeekly: spotWeeks,
		model.TimeframeDaily:  spotDailyDays,
		model.Timeframe1H:     spotHourlyDays,
		model.Timeframe15M:    spotMinuteDays,
		model.Timeframe5M:     spotMinuteDays,
	}

	data := make(map[model.Timeframe]model.UniverseBars, len(lookbacks))
	for tf, lookback := range lookbacks {
		bars, err := s.Collector.FetchUniverse(symbols, tf, lookback)
		if err != nil {
			logger.Warn("spot timeframe unavailable",
				zap.String("timeframe", string(tf)), zap.Error(err))
			continue
		}
		data[tf] = bars
	}
	if _, ok := data[model.TimeframeDaily]; !ok {
		return nil, fmt.Errorf("daily bars unavailable, spot scan needs them")
	}
	return data, nil
}

// RunSpot gathers intraday data, scans the universe, and records the result.
func (s *Scheduler) RunSpot() ([]*model.SpotMetrics, error) {
	data, err := s.GatherSpot(nil)
	if err != nil {
		return nil, err
	}
	results := s.Spot.ScanUniverse(data)
	if err := s.Recorder.RecordSpot(results); err != nil {
		logger.Error("record spot", zap.Error(err))
	}
	return results, nil
}

// RunSpotSymbol gathers and scans a single symbol.
func (s *Scheduler) RunSpotSymbol(symbol string) (*model.SpotMetrics, error) {
	data, err := s.GatherSpot([]string{symbol})
	if err != nil {
		return nil, err
	}
	return s.Spot.ScanSymbol(symbol, data)
}

func (s *Scheduler) scanTask() {
	logger.Info("running scheduled scan")
	ranked, err := s.RunScan()
	if err != nil {
		logger.Error("scheduled scan failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ Scan failed: %v", err))
		return
	}
	s.trySend(notifier.FormatScanReport(ranked, s.Params.TopN))
}

func (s *Scheduler) spotTask() {
	logger.Info("running scheduled spot scan")
	results, err := s.RunSpot()
	if err != nil {
		logger.Error("scheduled spot scan failed", zap.Error(err))
		return
	}
	s.trySend(notifier.FormatSpotReport(results, s.Params.TopN))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "/scan":
		go s.scanTask()
		return "Scan started, report will follow."
	case "/spot":
		if len(fields) > 1 {
			symbol := strings.ToUpper(fields[1])
			m, err := s.RunSpotSymbol(symbol)
			if err != nil {
				return fmt.Sprintf("❌ %s: %v", symbol, err)
			}
			return notifier.FormatSpotDetail(m)
		}
		go s.spotTask()
		return "Spot scan started, report will follow."
	case "/top":
		return s.topReport()
	default:
		return "Commands:\n• /scan\n• /spot [SYMBOL]\n• /top"
	}
}

// topReport lists the symbols that have appeared most often on the strong
// watchlist, when scan history is being recorded.
func (s *Scheduler) topReport() string {
	rep, ok := s.Recorder.(recorder.Reporter)
	if !ok {
		return "Scan history is not being recorded."
	}
	rows, err := rep.WatchlistFrequency("STRONG", s.Params.TopN)
	if err != nil {
		return fmt.Sprintf("❌ watchlist history: %v", err)
	}
	if len(rows) == 0 {
		return "No watchlist history yet."
	}
	var b strings.Builder
	b.WriteString("🏆 <b>Strong watchlist regulars</b>\n\n")
	for i, row := range rows {
		b.WriteString(fmt.Sprintf("%2d. %s — %d appearances\n", i+1, row.Symbol, row.Count))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		logger.Error("send notification", zap.Error(err))
	}
}

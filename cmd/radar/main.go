package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"RSRadar/internal/collector"
	"RSRadar/internal/config"
	"RSRadar/internal/logger"
	"RSRadar/internal/model"
	"RSRadar/internal/notifier"
	"RSRadar/internal/recorder"
	"RSRadar/internal/scheduler"
	"RSRadar/internal/scoring"
	"RSRadar/internal/spot"
	"RSRadar/internal/universe"
)

const usage = `usage: radar <command> [flags]

commands:
  scan               score the universe across weekly/daily/hourly timeframes
  spot [SYMBOL]      intraday spot scan (whole universe, or one symbol)
  daemon             run scheduled scans and serve Telegram commands
  report-stock SYM   historical scan scores for one symbol
  report-rankings    composite history pivoted per symbol, recent scans
  report-watchlists  strong/weak watchlist appearance counts
  report-sectors     sector score history
  report-sector-change  latest sector scores vs N days ago

common flags (scan, spot, daemon):
  -config PATH       config file (default configs/config.yaml, or CONFIG_PATH)
  -mock              use generated data instead of the live data source
`

func main() {
	_ = godotenv.Load()
	logger.Init()
	defer logger.GetLogger().Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "scan":
		err = cmdScan(args)
	case "spot":
		err = cmdSpot(args)
	case "daemon":
		err = cmdDaemon(args)
	case "report-stock":
		err = cmdReportStock(args)
	case "report-rankings":
		err = cmdReportRankings(args)
	case "report-watchlists":
		err = cmdReportWatchlists(args)
	case "report-sectors":
		err = cmdReportSectors(args)
	case "report-sector-change":
		err = cmdReportSectorChange(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal("command failed", zap.String("command", command), zap.Error(err))
	}
}

// commonFlags holds the flags shared by the scanning subcommands.
type commonFlags struct {
	configPath string
	mock       bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	fs.StringVar(&cf.configPath, "config", defaultPath, "config file path")
	fs.BoolVar(&cf.mock, "mock", false, "use generated data instead of the live data source")
	return cf
}

// scanFlags captures the scan tuning flags; only flags the user actually
// set override the loaded config.
type scanFlags struct {
	topN, tradingDays, weeks, hourlyDays int
	noHourly                             bool
	model                                string
}

func registerScan(fs *flag.FlagSet) *scanFlags {
	sf := &scanFlags{}
	fs.IntVar(&sf.topN, "top-n", 0, "watchlist size")
	fs.IntVar(&sf.tradingDays, "trading-days", 0, "daily bar history to fetch")
	fs.IntVar(&sf.weeks, "weeks", 0, "weekly bar history to fetch")
	fs.IntVar(&sf.hourlyDays, "hourly-days", 0, "hourly bar history to fetch, in days")
	fs.BoolVar(&sf.noHourly, "no-hourly", false, "skip the hourly timeframe")
	fs.StringVar(&sf.model, "model", "", "scoring model version")
	return sf
}

func (sf *scanFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "top-n":
			cfg.Scan.TopN = sf.topN
		case "trading-days":
			cfg.Scan.TradingDays = sf.tradingDays
		case "weeks":
			cfg.Scan.Weeks = sf.weeks
		case "hourly-days":
			cfg.Scan.HourlyDays = sf.hourlyDays
		case "no-hourly":
			cfg.Scan.NoHourly = sf.noHourly
		case "model":
			cfg.Scan.Model = sf.model
		}
	})
}

// buildScheduler wires the fetcher, engines, recorder, and notifier from
// config. The caller owns the returned cleanup func.
func buildScheduler(ctx context.Context, cfg *config.Config, mock bool) (*scheduler.Scheduler, func(), error) {
	m, err := scoring.ModelByVersion(cfg.Scan.Model)
	if err != nil {
		return nil, nil, err
	}

	var fetcher collector.Fetcher
	if mock {
		fetcher = &collector.MockFetcher{}
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		fetcher = collector.NewAlpacaFetcher(cfg.DataSource.APIKey, cfg.DataSource.APISecret, cfg.DataSource.Feed)
	}
	logger.Info("data source", zap.String("fetcher", fetcher.Name()))

	if missing := universe.Unmapped(cfg.Universe.Symbols, cfg.Universe.SectorMap); len(missing) > 0 {
		logger.Warn("symbols without sector mapping, excluded from rollups",
			zap.Strings("symbols", missing))
	}

	col := collector.NewCollector(fetcher, cfg.Universe.Benchmark)
	scanEng := scoring.NewEngine(m, cfg.Universe.Benchmark, cfg.Universe.SectorMap, cfg.Scan.TopN)
	spotEng := spot.NewEngine(m, cfg.Universe.Benchmark, cfg.Universe.SectorMap)

	var rec recorder.Recorder
	cleanup := func() {}
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn("sqlite recorder unavailable, history disabled", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			cleanup = func() { sr.Close() }
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "")
	params := scheduler.ScanParams{
		Symbols:     cfg.Universe.Symbols,
		TopN:        cfg.Scan.TopN,
		TradingDays: cfg.Scan.TradingDays,
		Weeks:       cfg.Scan.Weeks,
		HourlyDays:  cfg.Scan.HourlyDays,
		NoHourly:    cfg.Scan.NoHourly,
	}
	return scheduler.NewScheduler(ctx, col, scanEng, spotEng, tn, rec, params), cleanup, nil
}

func cmdScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	cf := registerCommon(fs)
	sf := registerScan(fs)
	sector := fs.String("sector", "", "only show symbols in this sector ETF")
	symbol := fs.String("symbol", "", "only show this symbol's row")
	fs.Parse(args)
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return err
	}
	sf.apply(fs, cfg)

	sched, cleanup, err := buildScheduler(context.Background(), cfg, cf.mock)
	if err != nil {
		return err
	}
	defer cleanup()

	ranked, err := sched.RunScan()
	if err != nil {
		return err
	}
	// Filters narrow the output only; scoring stays cross-sectional over
	// the whole universe.
	printScan(ranked, strings.ToUpper(*sector), strings.ToUpper(*symbol))
	return nil
}

func cmdSpot(args []string) error {
	var symbol string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		symbol = strings.ToUpper(args[0])
		args = args[1:]
	}
	fs := flag.NewFlagSet("spot", flag.ExitOnError)
	cf := registerCommon(fs)
	sector := fs.String("sector", "", "only show symbols in this sector ETF")
	fs.Parse(args)
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return err
	}

	sched, cleanup, err := buildScheduler(context.Background(), cfg, cf.mock)
	if err != nil {
		return err
	}
	defer cleanup()

	if symbol != "" {
		m, err := sched.RunSpotSymbol(symbol)
		if err != nil {
			return err
		}
		fmt.Println(stripTags(notifier.FormatSpotDetail(m)))
		return nil
	}

	results, err := sched.RunSpot()
	if err != nil {
		return err
	}
	if want := strings.ToUpper(*sector); want != "" {
		filtered := results[:0]
		for _, m := range results {
			if m.Sector == want {
				filtered = append(filtered, m)
			}
		}
		results = filtered
	}
	printSpot(results, cfg.Scan.TopN)
	return nil
}

func cmdDaemon(args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	cf := registerCommon(fs)
	sf := registerScan(fs)
	fs.Parse(args)
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return err
	}
	sf.apply(fs, cfg)
	if !cf.mock {
		if err := cfg.ValidateDaemon(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched, cleanup, err := buildScheduler(ctx, cfg, cf.mock)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.SpotCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go sched.Notifier.StartPolling(ctx, sched.HandleCommand)
	logger.Info("telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing scan now")
		go sched.RunScanNow()
	}

	logger.Info("radar daemon running, Ctrl+C to stop")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	cancel()
	return nil
}

// openReporter opens the scan history database for the report commands.
func openReporter(configPath string) (recorder.Reporter, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open scan history: %w", err)
	}
	return sr, func() { sr.Close() }, nil
}

func cmdReportStock(args []string) error {
	fs := flag.NewFlagSet("report-stock", flag.ExitOnError)
	cf := registerCommon(fs)
	limit := fs.Int("limit", 20, "number of scans to show")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: radar report-stock SYMBOL")
	}
	symbol := strings.ToUpper(fs.Arg(0))

	rep, cleanup, err := openReporter(cf.configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := rep.StockHistory(symbol, *limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("no scan history for %s\n", symbol)
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSCAN\tCOMPOSITE\tRANK\tALIGNED")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%+.3f\t%d\t%v\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.ScanID, r.Composite, r.Rank, r.Aligned)
	}
	return w.Flush()
}

func cmdReportRankings(args []string) error {
	fs := flag.NewFlagSet("report-rankings", flag.ExitOnError)
	cf := registerCommon(fs)
	scans := fs.Int("scans", 10, "number of recent scans to pivot")
	fs.Parse(args)

	rep, cleanup, err := openReporter(cf.configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	pivot, err := rep.RankingHistory(*scans)
	if err != nil {
		return err
	}
	if len(pivot.ScanTimes) == 0 {
		fmt.Println("no scan history yet")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprint(w, "SYMBOL")
	for _, ts := range pivot.ScanTimes {
		fmt.Fprintf(w, "\t%s", ts.Format("01-02 15:04"))
	}
	fmt.Fprintln(w)
	for _, row := range pivot.Rows {
		fmt.Fprint(w, row.Symbol)
		for _, c := range row.Composites {
			fmt.Fprintf(w, "\t%s", cell(c))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func cmdReportWatchlists(args []string) error {
	fs := flag.NewFlagSet("report-watchlists", flag.ExitOnError)
	cf := registerCommon(fs)
	limit := fs.Int("limit", 15, "number of symbols per side")
	fs.Parse(args)

	rep, cleanup, err := openReporter(cf.configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, side := range []string{"STRONG", "WEAK"} {
		rows, err := rep.WatchlistFrequency(side, *limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\tAPPEARANCES\n", side)
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%d\n", r.Symbol, r.Count)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func cmdReportSectors(args []string) error {
	fs := flag.NewFlagSet("report-sectors", flag.ExitOnError)
	cf := registerCommon(fs)
	limit := fs.Int("limit", 50, "number of entries to show")
	fs.Parse(args)

	rep, cleanup, err := openReporter(cf.configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := rep.SectorTrend(*limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSECTOR\tSCORE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%+.3f\n", r.Timestamp.Format("2006-01-02 15:04"), r.Sector, r.Score)
	}
	return w.Flush()
}

func cmdReportSectorChange(args []string) error {
	fs := flag.NewFlagSet("report-sector-change", flag.ExitOnError)
	cf := registerCommon(fs)
	days := fs.Int("days", 5, "how far back to compare")
	fs.Parse(args)

	rep, cleanup, err := openReporter(cf.configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	changes, err := rep.SectorChange(*days)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Println("no sector history yet")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SECTOR\tCURRENT\tPREVIOUS\tDELTA\tDIR")
	for _, c := range changes {
		dir := "·"
		switch {
		case c.Delta > 0:
			dir = "↑"
		case c.Delta < 0:
			dir = "↓"
		case math.IsNaN(c.Delta):
			dir = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.Sector, cell(c.Current), cell(c.Previous), cell(c.Delta), dir)
	}
	return w.Flush()
}

func printScan(ranked *model.RankedUniverse, sector, symbol string) {
	fmt.Printf("scan %s | model %s | %s | timeframes %v\n\n",
		ranked.ScanID, ranked.ModelVersion, ranked.Timestamp.Format("2006-01-02 15:04"), ranked.Timeframes)

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSYMBOL\tSECTOR\tCOMPOSITE\tWEEKLY\tDAILY\tHOURLY\tALIGNED")
	for i, row := range ranked.Rows {
		if sector != "" && row.Sector != sector {
			continue
		}
		if symbol != "" && row.Symbol != symbol {
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%v\n",
			i+1, row.Symbol, row.Sector, cell(row.Composite),
			tfCell(&row, model.TimeframeWeekly), tfCell(&row, model.TimeframeDaily), tfCell(&row, model.TimeframeHourly),
			row.Aligned)
	}
	w.Flush()

	if sector == "" && symbol == "" && len(ranked.Sectors) > 0 {
		fmt.Println("\nsectors:")
		for _, s := range ranked.Sectors {
			fmt.Printf("  %-6s %+.3f (%d members)\n", s.Sector, s.Score, s.Members)
		}
	}
}

func printSpot(results []*model.SpotMetrics, topN int) {
	limit := topN
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tPRICE\tMOMENTUM\tDAY RANGE (ATR)\t20D HIGH %\tALIGNED")
	for i := 0; i < limit; i++ {
		m := results[i]
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\t%s\t%v\n",
			m.Symbol, m.Price, cell(m.Momentum), cell(m.DailyRangeConsumed), cell(m.PctFrom20DHigh), m.MomentumAligned)
	}
	w.Flush()
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%+.3f", v)
}

func tfCell(row *model.SymbolScore, tf model.Timeframe) string {
	res, ok := row.Timeframes[tf]
	if !ok || res == nil {
		return "-"
	}
	return cell(res.Score)
}

var tagReplacer = strings.NewReplacer("<b>", "", "</b>", "")

func stripTags(s string) string {
	return tagReplacer.Replace(s)
}

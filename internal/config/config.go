package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"RSRadar/internal/universe"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Feed      string `yaml:"feed"`
	} `yaml:"data_source"`
	Universe struct {
		Benchmark string            `yaml:"benchmark"`
		Symbols   []string          `yaml:"symbols"`
		SectorMap map[string]string `yaml:"sector_map"`
	} `yaml:"universe"`
	Scan struct {
		TopN        int    `yaml:"top_n"`
		TradingDays int    `yaml:"trading_days"`
		Weeks       int    `yaml:"weeks"`
		HourlyDays  int    `yaml:"hourly_days"`
		NoHourly    bool   `yaml:"no_hourly"`
		Model       string `yaml:"model"`
	} `yaml:"scan"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
		SpotCron string `yaml:"spot_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is fine: defaults plus env vars
// are a complete configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		cfg.DataSource.APISecret = v
	}
	if v := os.Getenv("ALPACA_FEED"); v != "" {
		cfg.DataSource.Feed = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SPOT_CRON"); v != "" {
		cfg.Schedule.SpotCron = v
	}
	if v := os.Getenv("TOP_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.TopN = n
		}
	}

	// Defaults
	if cfg.DataSource.Feed == "" {
		cfg.DataSource.Feed = "iex"
	}
	if cfg.Universe.Benchmark == "" {
		cfg.Universe.Benchmark = universe.Benchmark
	}
	if len(cfg.Universe.Symbols) == 0 {
		cfg.Universe.Symbols = universe.Symbols
	}
	if len(cfg.Universe.SectorMap) == 0 {
		cfg.Universe.SectorMap = universe.SectorMap
	}
	if cfg.Scan.TopN == 0 {
		cfg.Scan.TopN = 10
	}
	if cfg.Scan.TradingDays == 0 {
		cfg.Scan.TradingDays = 60
	}
	if cfg.Scan.Weeks == 0 {
		cfg.Scan.Weeks = 26
	}
	if cfg.Scan.HourlyDays == 0 {
		cfg.Scan.HourlyDays = 30
	}
	if cfg.Scan.Model == "" {
		cfg.Scan.Model = "v1.3"
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 30 16 * * 1-5" // after the close, Mon-Fri
	}
	if cfg.Schedule.SpotCron == "" {
		cfg.Schedule.SpotCron = "0 0 10-15 * * 1-5" // hourly through the session
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/rsradar.db"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.APIKey == "" || c.DataSource.APISecret == "" {
		return fmt.Errorf("data_source.api_key and api_secret are required (or ALPACA_API_KEY / ALPACA_SECRET_KEY)")
	}
	if len(c.Universe.Symbols) == 0 {
		return fmt.Errorf("universe.symbols must not be empty")
	}
	if c.Scan.TopN <= 0 {
		return fmt.Errorf("scan.top_n must be positive")
	}
	return nil
}

// ValidateDaemon additionally requires the Telegram credentials daemon
// mode pushes reports through.
func (c *Config) ValidateDaemon() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.bot_token and chat_id are required in daemon mode")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"EquityLens/internal/analytics"
	"EquityLens/internal/calculator"
)

// EnvPrefix namespaces environment overrides. Plain names such as BET_SIZE
// are accepted as well.
const EnvPrefix = "EQUITYLENS"

// StrategyConfig is one backtest trade file.
type StrategyConfig struct {
	ID         string   `yaml:"id"`
	Label      string   `yaml:"label"`
	File       string   `yaml:"file"`
	PnLColumns []string `yaml:"pnl_columns"`
}

// Config holds all application configuration.
type Config struct {
	Sources struct {
		DataDir    string           `yaml:"data_dir" envconfig:"DATA_DIR"`
		BaseURL    string           `yaml:"base_url" envconfig:"DATA_BASE_URL"`
		APIKey     string           `yaml:"api_key" envconfig:"DATA_API_KEY"`
		Timeout    time.Duration    `yaml:"timeout" envconfig:"FETCH_TIMEOUT"`
		Strategies []StrategyConfig `yaml:"strategies" ignored:"true"`
		MonteCarlo struct {
			Stats       string `yaml:"stats" envconfig:"MC_STATS_FILE"`
			Paths       string `yaml:"paths" envconfig:"MC_PATHS_FILE"`
			Percentiles string `yaml:"percentiles" envconfig:"MC_PERCENTILES_FILE"`
		} `yaml:"monte_carlo"`
	} `yaml:"sources"`
	Analytics struct {
		StartingCapital  float64 `yaml:"starting_capital" envconfig:"STARTING_CAPITAL"`
		BetSize          float64 `yaml:"bet_size" envconfig:"BET_SIZE"`
		AssetFilter      string  `yaml:"asset_filter" envconfig:"ASSET_FILTER"`
		Scenario         string  `yaml:"scenario" envconfig:"SCENARIO"`
		PerformanceStart string  `yaml:"performance_start" envconfig:"PERFORMANCE_START"`
		MCAnchor         string  `yaml:"mc_anchor" envconfig:"MC_ANCHOR"`
		MCPathKey        string  `yaml:"mc_path_key" envconfig:"MC_PATH_KEY"`
	} `yaml:"analytics"`
	Server struct {
		Addr string `yaml:"addr" envconfig:"HTTP_ADDR"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" envconfig:"CRON_REFRESH"`
		DigestCron  string `yaml:"digest_cron" envconfig:"CRON_DIGEST"`
	} `yaml:"schedule"`
	Log struct {
		Level string `yaml:"level" envconfig:"LOG_LEVEL"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then a .env file if present, then
// environment variable overrides.
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

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sources.DataDir == "" {
		c.Sources.DataDir = "."
	}
	if c.Sources.Timeout <= 0 {
		c.Sources.Timeout = 30 * time.Second
	}
	if len(c.Sources.Strategies) == 0 {
		c.Sources.Strategies = []StrategyConfig{{
			ID:         "time_add20_1230_1430",
			Label:      "Time Add 20% (12:30, 14:30)",
			File:       "reports/cp12_continuous_backtest_100usd_add20_1230_add20_1430_futgtcp2.trades.csv",
			PnLColumns: []string{"new_total_pnl_usd", "pnl_usd_100", "base_pnl_usd"},
		}}
	}
	for i := range c.Sources.Strategies {
		s := &c.Sources.Strategies[i]
		if s.ID == "" {
			s.ID = fmt.Sprintf("strategy_%d", i+1)
		}
		if s.Label == "" {
			s.Label = s.ID
		}
	}
	mc := &c.Sources.MonteCarlo
	if mc.Stats == "" {
		mc.Stats = "reports/mc_1y_time_add20_stats.csv"
	}
	if mc.Paths == "" {
		mc.Paths = "reports/mc_trade_by_trade_p1_p5_p95_paths.csv"
	}
	if mc.Percentiles == "" {
		mc.Percentiles = "reports/mc_1y_time_add20_equity_percentiles.csv"
	}

	a := &c.Analytics
	if a.StartingCapital == 0 {
		a.StartingCapital = analytics.DefaultStartingEquity
	}
	if a.BetSize == 0 {
		a.BetSize = analytics.DefaultBetSize
	}
	if a.AssetFilter == "" {
		a.AssetFilter = analytics.AssetBoth
	}
	if a.Scenario == "" {
		a.Scenario = string(analytics.ScenarioBacktest)
	}
	if a.PerformanceStart == "" {
		a.PerformanceStart = analytics.PerformanceStart
	}
	if a.MCAnchor == "" {
		a.MCAnchor = analytics.PerformanceStart
	}
	if a.MCPathKey == "" {
		a.MCPathKey = "p50"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 5 0 * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Sources.Strategies) == 0 {
		return fmt.Errorf("sources.strategies is required")
	}
	for i, s := range c.Sources.Strategies {
		if s.File == "" {
			return fmt.Errorf("sources.strategies[%d].file is required", i)
		}
		if len(s.PnLColumns) == 0 {
			return fmt.Errorf("sources.strategies[%d].pnl_columns is required", i)
		}
	}
	if c.Analytics.StartingCapital <= 0 {
		return fmt.Errorf("analytics.starting_capital must be positive")
	}
	if c.Analytics.BetSize <= 0 {
		return fmt.Errorf("analytics.bet_size must be positive")
	}
	if _, ok := calculator.ParseIsoDate(c.Analytics.PerformanceStart); !ok {
		return fmt.Errorf("analytics.performance_start must be YYYY-MM-DD")
	}
	if _, ok := calculator.ParseIsoDate(c.Analytics.MCAnchor); !ok {
		return fmt.Errorf("analytics.mc_anchor must be YYYY-MM-DD")
	}
	if _, err := cronParser.Parse(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("schedule.refresh_cron: %w", err)
	}
	if c.Schedule.DigestCron != "" {
		if _, err := cronParser.Parse(c.Schedule.DigestCron); err != nil {
			return fmt.Errorf("schedule.digest_cron: %w", err)
		}
		if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
			return fmt.Errorf("schedule.digest_cron requires telegram.bot_token and telegram.chat_id")
		}
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

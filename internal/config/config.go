package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Page renderers for the stock source.
const (
	RenderHTTP    = "http"
	RenderBrowser = "browser"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Stock struct {
		Enabled      *bool  `yaml:"enabled"`
		URL          string `yaml:"url"`
		HeaderText   string `yaml:"header_text"`
		Render       string `yaml:"render"`
		BrowserURL   string `yaml:"browser_url"`
		SnapshotFile string `yaml:"snapshot_file"`
		LogFile      string `yaml:"log_file"`
	} `yaml:"stock"`
	Lottery struct {
		Enabled      *bool  `yaml:"enabled"`
		URL          string `yaml:"url"`
		SnapshotFile string `yaml:"snapshot_file"`
		LogFile      string `yaml:"log_file"`
	} `yaml:"lottery"`
	Schedule struct {
		MinInterval     time.Duration `yaml:"min_interval"`
		MaxInterval     time.Duration `yaml:"max_interval"`
		MaxRetries      int           `yaml:"max_retries"`
		RetryDelay      time.Duration `yaml:"retry_delay"`
		DigestCron      string        `yaml:"digest_cron"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file location from CONFIG_PATH or the default.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("STOCK_URL"); v != "" {
		c.Stock.URL = v
	}
	if v := os.Getenv("LOTTERY_URL"); v != "" {
		c.Lottery.URL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("MIN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MIN_INTERVAL: %w", err)
		}
		c.Schedule.MinInterval = d
	}
	if v := os.Getenv("MAX_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MAX_INTERVAL: %w", err)
		}
		c.Schedule.MaxInterval = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Stock.Enabled == nil {
		c.Stock.Enabled = ptr(true)
	}
	if c.Stock.HeaderText == "" {
		c.Stock.HeaderText = "หวยหุ้นต่างประเทศ"
	}
	if c.Stock.Render == "" {
		c.Stock.Render = RenderHTTP
	}
	if c.Stock.SnapshotFile == "" {
		c.Stock.SnapshotFile = "data/stock_snapshot.json"
	}
	if c.Stock.LogFile == "" {
		c.Stock.LogFile = "logs/stock.log"
	}

	if c.Lottery.Enabled == nil {
		c.Lottery.Enabled = ptr(true)
	}
	if c.Lottery.URL == "" {
		c.Lottery.URL = "https://lotto.api.rayriffy.com/latest"
	}
	if c.Lottery.SnapshotFile == "" {
		c.Lottery.SnapshotFile = "data/lottery_snapshot.json"
	}
	if c.Lottery.LogFile == "" {
		c.Lottery.LogFile = "logs/lottery.log"
	}

	if c.Schedule.MinInterval == 0 {
		c.Schedule.MinInterval = 10 * time.Minute
	}
	if c.Schedule.MaxInterval == 0 {
		c.Schedule.MaxInterval = 15 * time.Minute
	}
	if c.Schedule.MaxRetries == 0 {
		c.Schedule.MaxRetries = 3
	}
	if c.Schedule.RetryDelay == 0 {
		c.Schedule.RetryDelay = 5 * time.Second
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 9 * * *"
	}
	if c.Schedule.ShutdownTimeout == 0 {
		c.Schedule.ShutdownTimeout = 30 * time.Second
	}

	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/lotto_sentinel.db"
	}
}

// StockEnabled reports whether the stock source should be polled.
func (c *Config) StockEnabled() bool { return c.Stock.Enabled == nil || *c.Stock.Enabled }

// LotteryEnabled reports whether the lottery source should be polled.
func (c *Config) LotteryEnabled() bool { return c.Lottery.Enabled == nil || *c.Lottery.Enabled }

// TelegramEnabled reports whether both Telegram credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

var digestParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.StockEnabled() && !c.LotteryEnabled() {
		return errors.New("at least one of stock and lottery must be enabled")
	}
	if c.StockEnabled() {
		if c.Stock.URL == "" {
			return errors.New("stock.url is required")
		}
		if c.Stock.Render != RenderHTTP && c.Stock.Render != RenderBrowser {
			return fmt.Errorf("stock.render must be %q or %q, got %q", RenderHTTP, RenderBrowser, c.Stock.Render)
		}
	}
	if c.LotteryEnabled() && c.Lottery.URL == "" {
		return errors.New("lottery.url is required")
	}
	if c.Schedule.MinInterval <= 0 {
		return errors.New("schedule.min_interval must be positive")
	}
	if c.Schedule.MaxInterval < c.Schedule.MinInterval {
		return errors.New("schedule.max_interval must not be below schedule.min_interval")
	}
	if c.Schedule.MaxRetries < 1 {
		return errors.New("schedule.max_retries must be at least 1")
	}
	if c.Schedule.RetryDelay < 0 {
		return errors.New("schedule.retry_delay must not be negative")
	}
	if _, err := digestParser.Parse(c.Schedule.DigestCron); err != nil {
		return fmt.Errorf("schedule.digest_cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

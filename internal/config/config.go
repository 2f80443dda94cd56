package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/calculator"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/collector"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/logger"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/scanner"
)

const (
	ProviderYahoo  = "yahoo"
	ProviderAlpaca = "alpaca"
)

// Config holds all application configuration.
type Config struct {
	Universe   []string `yaml:"universe"`
	Indicators struct {
		RSIPeriod   int `yaml:"rsi_period"`
		MAWindow    int `yaml:"ma_window"`
		HistoryDays int `yaml:"history_days"`
	} `yaml:"indicators"`
	Rules   RulesConfig `yaml:"rules"`
	Scanner struct {
		Workers              int     `yaml:"workers"`
		RatePerSecond        float64 `yaml:"rate_per_second"`
		Burst                int     `yaml:"burst"`
		TickerTimeoutSeconds int     `yaml:"ticker_timeout_seconds"`
		MaxRetries           *int    `yaml:"max_retries"`
	} `yaml:"scanner"`
	DataSource struct {
		Provider     string `yaml:"provider"`
		AlpacaKey    string `yaml:"alpaca_key"`
		AlpacaSecret string `yaml:"alpaca_secret"`
		Proxy        string `yaml:"proxy"`
	} `yaml:"data_source"`
	Cache struct {
		SQLitePath string  `yaml:"sqlite_path"` // empty disables the cache
		TTLHours   float64 `yaml:"ttl_hours"`
	} `yaml:"cache"`
	Email struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Sender   string `yaml:"sender"`
		Password string `yaml:"password"`
		Receiver string `yaml:"receiver"` // comma separated
		Subject  string `yaml:"subject"`
	} `yaml:"email"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Log logger.Config `yaml:"log"`
}

// Load reads .env files (missing ones are ignored), then the YAML file at path,
// then applies environment variable overrides and defaults. With no envFiles,
// ".env" in the working directory is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

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

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Email.Sender, "EMAIL_SENDER")
	set(&c.Email.Password, "EMAIL_PASSWORD")
	set(&c.Email.Receiver, "EMAIL_RECEIVER")
	set(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	set(&c.DataSource.AlpacaKey, "ALPACA_API_KEY")
	set(&c.DataSource.AlpacaSecret, "ALPACA_API_SECRET")
	set(&c.DataSource.Proxy, "HTTPS_PROXY")
	set(&c.Cache.SQLitePath, "SQLITE_PATH")
	set(&c.Schedule.Cron, "SCAN_CRON")
	set(&c.Log.Level, "LOG_LEVEL")
	set(&c.Log.Format, "LOG_FORMAT")
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scanner.Workers = n
		}
	}
}

func (c *Config) applyDefaults() {
	if len(c.Universe) == 0 {
		c.Universe = DefaultUniverse()
	}
	c.Universe = Dedupe(c.Universe)

	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = calculator.DefaultParams.RSIPeriod
	}
	if c.Indicators.MAWindow == 0 {
		c.Indicators.MAWindow = calculator.DefaultParams.MAWindow
	}
	if c.Indicators.HistoryDays == 0 {
		c.Indicators.HistoryDays = 400
	}
	if c.Rules.NearMissThreshold == 0 {
		c.Rules.NearMissThreshold = scanner.DefaultOptions.NearMissThreshold
	}
	if c.Scanner.Workers == 0 {
		c.Scanner.Workers = scanner.DefaultOptions.Workers
	}
	if c.Scanner.RatePerSecond == 0 {
		c.Scanner.RatePerSecond = collector.DefaultGuardConfig.RatePerSecond
	}
	if c.Scanner.Burst == 0 {
		c.Scanner.Burst = collector.DefaultGuardConfig.Burst
	}
	if c.Scanner.TickerTimeoutSeconds == 0 {
		c.Scanner.TickerTimeoutSeconds = int(scanner.DefaultOptions.TickerTimeout / time.Second)
	}
	if c.Scanner.MaxRetries == nil {
		n := collector.DefaultGuardConfig.MaxRetries
		c.Scanner.MaxRetries = &n
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.Cache.TTLHours == 0 {
		c.Cache.TTLHours = 24
	}
	if c.Email.Host == "" {
		c.Email.Host = "smtp.gmail.com"
	}
	if c.Email.Port == 0 {
		c.Email.Port = 465
	}
	if c.Email.Subject == "" {
		c.Email.Subject = "Buy the Dip Alert"
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 30 22 * * 1-5"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if len(c.Universe) == 0 {
		return fmt.Errorf("universe is empty")
	}
	if c.Indicators.RSIPeriod < 1 {
		return fmt.Errorf("indicators.rsi_period must be positive")
	}
	if c.Indicators.MAWindow < 1 {
		return fmt.Errorf("indicators.ma_window must be positive")
	}
	if c.Indicators.HistoryDays <= c.Indicators.RSIPeriod {
		return fmt.Errorf("indicators.history_days must exceed rsi_period (%d)", c.Indicators.RSIPeriod)
	}
	if c.Rules.NearMissThreshold <= 0 || c.Rules.NearMissThreshold > 1 {
		return fmt.Errorf("rules.near_miss_threshold must be in (0, 1]")
	}
	if _, err := c.RuleSet(); err != nil {
		return err
	}
	if c.Scanner.Workers < 1 {
		return fmt.Errorf("scanner.workers must be at least 1")
	}
	if c.Scanner.TickerTimeoutSeconds < 0 {
		return fmt.Errorf("scanner.ticker_timeout_seconds must not be negative")
	}
	if *c.Scanner.MaxRetries < 0 {
		return fmt.Errorf("scanner.max_retries must not be negative")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo:
	case ProviderAlpaca:
		if c.DataSource.AlpacaKey == "" || c.DataSource.AlpacaSecret == "" {
			return fmt.Errorf("data_source.alpaca_key and alpaca_secret are required for provider %q", ProviderAlpaca)
		}
	default:
		return fmt.Errorf("data_source.provider %q: want %s or %s", c.DataSource.Provider, ProviderYahoo, ProviderAlpaca)
	}
	if c.Cache.TTLHours < 0 {
		return fmt.Errorf("cache.ttl_hours must not be negative")
	}
	if _, err := cron.NewParser(cronFields).Parse(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron %q: %w", c.Schedule.Cron, err)
	}
	return nil
}

// cronFields matches cron.WithSeconds, which the scheduler uses.
const cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

// Params returns the indicator parameters.
func (c *Config) Params() calculator.Params {
	return calculator.Params{RSIPeriod: c.Indicators.RSIPeriod, MAWindow: c.Indicators.MAWindow}
}

// GuardConfig returns the provider protection settings.
func (c *Config) GuardConfig() collector.GuardConfig {
	g := collector.DefaultGuardConfig
	g.RatePerSecond = c.Scanner.RatePerSecond
	g.Burst = c.Scanner.Burst
	if c.Scanner.MaxRetries != nil {
		g.MaxRetries = *c.Scanner.MaxRetries
	}
	return g
}

// ScannerOptions returns the orchestrator settings.
func (c *Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		Workers:           c.Scanner.Workers,
		TickerTimeout:     time.Duration(c.Scanner.TickerTimeoutSeconds) * time.Second,
		NearMissThreshold: c.Rules.NearMissThreshold,
	}
}

// CacheTTL returns how long cached fundamentals stay fresh.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours * float64(time.Hour))
}

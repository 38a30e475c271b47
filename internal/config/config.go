package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"SignalSentinel/internal/strategy"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider  string  `yaml:"provider"` // twelvedata, yahoo or mock
		BaseURL   string  `yaml:"base_url"`
		APIKey    string  `yaml:"api_key"`
		MockPrice float64 `yaml:"mock_price"`
	} `yaml:"data_source"`
	Schedule struct {
		EvaluateCron string `yaml:"evaluate_cron"`
		VerifyCron   string `yaml:"verify_cron"`
		Concurrency  int    `yaml:"concurrency"`
	} `yaml:"schedule"`
	Store struct {
		Driver     string `yaml:"driver"` // sqlite, redis or memory
		SQLitePath string `yaml:"sqlite_path"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"store"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Watches Watches `yaml:"watches"`
	Proxy   string  `yaml:"proxy"`
}

// Watch is one instrument evaluated on every run with its own strategy.
type Watch struct {
	Name            string             `yaml:"name"`
	Symbol          string             `yaml:"symbol"`
	IntervalMinutes int                `yaml:"interval_minutes"`
	Bars            int                `yaml:"bars"`
	Strategy        strategy.Reference `yaml:"strategy"`
}

// Load reads .env and the YAML file, then applies environment variable overrides.
// A missing file is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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
	set(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	set(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	set(&c.DataSource.Provider, "DATA_PROVIDER")
	set(&c.DataSource.BaseURL, "DATA_BASE_URL")
	set(&c.DataSource.APIKey, "TWELVEDATA_API_KEY")
	set(&c.Proxy, "HTTPS_PROXY")
	set(&c.Schedule.EvaluateCron, "CRON_EVALUATE")
	set(&c.Schedule.VerifyCron, "CRON_VERIFY")
	set(&c.Store.Driver, "STORE_DRIVER")
	set(&c.Store.SQLitePath, "SQLITE_PATH")
	set(&c.Store.Redis.Addr, "REDIS_ADDR")
	set(&c.Store.Redis.Password, "REDIS_PASSWORD")
	set(&c.Server.Addr, "SERVER_ADDR")
	set(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("LOG_PRETTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Pretty = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "twelvedata"
	}
	if c.DataSource.MockPrice == 0 {
		c.DataSource.MockPrice = 100
	}
	if c.Schedule.EvaluateCron == "" {
		c.Schedule.EvaluateCron = "5 0 * * * *" // just after each hourly bar closes
	}
	if c.Schedule.VerifyCron == "" {
		c.Schedule.VerifyCron = "30 */15 * * * *"
	}
	if c.Schedule.Concurrency <= 0 {
		c.Schedule.Concurrency = 4
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/signals.db"
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Watches {
		w := &c.Watches[i]
		if w.Name == "" {
			w.Name = fmt.Sprintf("%s-%dm", w.Symbol, w.IntervalMinutes)
		}
		if w.Bars == 0 && w.Strategy.Config != nil {
			w.Bars = max(100, 2*w.Strategy.Config.Lookback())
		}
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	switch c.DataSource.Provider {
	case "twelvedata":
		if c.DataSource.APIKey == "" {
			errs = append(errs, errors.New("data_source.api_key is required for twelvedata"))
		}
	case "yahoo", "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider))
	}
	switch c.Store.Driver {
	case "sqlite", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if len(c.Watches) == 0 {
		errs = append(errs, errors.New("at least one watch is required"))
	}

	seen := make(map[string]bool, len(c.Watches))
	for _, w := range c.Watches {
		if seen[w.Name] {
			errs = append(errs, fmt.Errorf("duplicate watch name %q", w.Name))
		}
		seen[w.Name] = true
		if err := w.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("watch %q: %w", w.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (w Watch) Validate() error {
	if w.Symbol == "" {
		return errors.New("symbol is required")
	}
	if w.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive, got %d", w.IntervalMinutes)
	}
	if w.Strategy.Config == nil {
		return errors.New("strategy is required")
	}
	if err := w.Strategy.Config.Validate(); err != nil {
		return fmt.Errorf("%s: %w", w.Strategy.Config.Family(), err)
	}
	if need := w.Strategy.Config.Lookback(); w.Bars < need {
		return fmt.Errorf("bars %d below the %d the %s strategy needs", w.Bars, need, w.Strategy.Config.Family())
	}
	return nil
}

// Watches is the configured watch list.
type Watches []Watch

// Find returns the watch with the given name.
func (ws Watches) Find(name string) (Watch, bool) {
	for _, w := range ws {
		if w.Name == name {
			return w, true
		}
	}
	return Watch{}, false
}

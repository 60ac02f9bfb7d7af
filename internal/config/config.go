package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	yaml "go.yaml.in/yaml/v3"
)

// Config keeps runtime settings for the API, the bot and the notifier.
type Config struct {
	TelegramToken      string
	DatabaseURL        string
	HTTPAddr           string
	MiniAppURL         string
	DebugAllowFakeAuth bool

	DefaultCurrency      string
	DefaultDailyPenalty  decimal.Decimal
	DefaultWeeklyPenalty decimal.Decimal

	// ReminderTime is HH:MM local time; empty disables the reminder job.
	ReminderTime     string
	NotifyTimeout    time.Duration
	NotifyRatePerSec int

	LogLevel  string
	LogFormat string

	// ConfigFile is an optional YAML overlay. Environment variables win over it.
	ConfigFile string
}

// fileConfig is the YAML shape. Pointers distinguish "absent" from zero values.
type fileConfig struct {
	TelegramToken        *string `yaml:"telegram_token"`
	DatabaseURL          *string `yaml:"database_url"`
	HTTPAddr             *string `yaml:"http_addr"`
	MiniAppURL           *string `yaml:"mini_app_url"`
	DebugAllowFakeAuth   *bool   `yaml:"debug_allow_fake_auth"`
	DefaultCurrency      *string `yaml:"default_currency"`
	DefaultDailyPenalty  *string `yaml:"default_daily_penalty"`
	DefaultWeeklyPenalty *string `yaml:"default_weekly_penalty"`
	ReminderTime         *string `yaml:"reminder_time"`
	NotifyTimeout        *string `yaml:"notify_timeout"`
	NotifyRatePerSec     *int    `yaml:"notify_rate_per_sec"`
	LogLevel             *string `yaml:"log_level"`
	LogFormat            *string `yaml:"log_format"`
}

func Defaults() Config {
	return Config{
		DatabaseURL:          "routine.db",
		HTTPAddr:             ":8000",
		MiniAppURL:           "http://localhost:8000",
		DebugAllowFakeAuth:   true,
		DefaultCurrency:      "EUR",
		DefaultDailyPenalty:  decimal.NewFromInt(10),
		DefaultWeeklyPenalty: decimal.NewFromInt(20),
		NotifyTimeout:        6 * time.Second,
		NotifyRatePerSec:     20,
		LogLevel:             "info",
		LogFormat:            "console",
	}
}

// Load reads configuration from an optional YAML file and environment variables
// with sane defaults.
func Load() (Config, error) {
	cfg := Defaults()
	cfg.ConfigFile = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports configurations that cannot serve requests.
func (c Config) Validate() error {
	if c.TelegramToken == "" && !c.DebugAllowFakeAuth {
		return errors.New("TELEGRAM_TOKEN is required unless DEBUG_ALLOW_FAKE_AUTH is enabled")
	}
	if strings.TrimSpace(c.DefaultCurrency) == "" {
		return errors.New("default currency is empty")
	}
	if c.DefaultDailyPenalty.IsNegative() || c.DefaultWeeklyPenalty.IsNegative() {
		return errors.New("default penalties must not be negative")
	}
	if c.ReminderTime != "" {
		if _, _, err := ParseClock(c.ReminderTime); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	setString(&c.TelegramToken, fc.TelegramToken)
	setString(&c.DatabaseURL, fc.DatabaseURL)
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.MiniAppURL, fc.MiniAppURL)
	setString(&c.DefaultCurrency, fc.DefaultCurrency)
	setString(&c.ReminderTime, fc.ReminderTime)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	if fc.DebugAllowFakeAuth != nil {
		c.DebugAllowFakeAuth = *fc.DebugAllowFakeAuth
	}
	if fc.NotifyRatePerSec != nil {
		c.NotifyRatePerSec = *fc.NotifyRatePerSec
	}
	if fc.DefaultDailyPenalty != nil {
		if c.DefaultDailyPenalty, err = decimal.NewFromString(*fc.DefaultDailyPenalty); err != nil {
			return fmt.Errorf("default_daily_penalty: %w", err)
		}
	}
	if fc.DefaultWeeklyPenalty != nil {
		if c.DefaultWeeklyPenalty, err = decimal.NewFromString(*fc.DefaultWeeklyPenalty); err != nil {
			return fmt.Errorf("default_weekly_penalty: %w", err)
		}
	}
	if fc.NotifyTimeout != nil {
		if c.NotifyTimeout, err = time.ParseDuration(*fc.NotifyTimeout); err != nil {
			return fmt.Errorf("notify_timeout: %w", err)
		}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	setEnv(&c.TelegramToken, env("TELEGRAM_TOKEN"))
	setEnv(&c.DatabaseURL, env("DATABASE_URL"))
	setEnv(&c.HTTPAddr, env("HTTP_ADDR"))
	setEnv(&c.MiniAppURL, env("MINI_APP_URL"))
	setEnv(&c.DefaultCurrency, env("DEFAULT_CURRENCY"))
	setEnv(&c.ReminderTime, env("REMINDER_TIME"))
	setEnv(&c.LogLevel, env("LOG_LEVEL"))
	setEnv(&c.LogFormat, env("LOG_FORMAT"))

	if raw := env("DEBUG_ALLOW_FAKE_AUTH"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("DEBUG_ALLOW_FAKE_AUTH: %w", err)
		}
		c.DebugAllowFakeAuth = v
	}
	if raw := env("DEFAULT_DAILY_PENALTY"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("DEFAULT_DAILY_PENALTY: %w", err)
		}
		c.DefaultDailyPenalty = v
	}
	if raw := env("DEFAULT_WEEKLY_PENALTY"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("DEFAULT_WEEKLY_PENALTY: %w", err)
		}
		c.DefaultWeeklyPenalty = v
	}
	if raw := env("NOTIFY_TIMEOUT"); raw != "" {
		v, err := time.ParseDuration(raw)
		if err != nil || v <= 0 {
			return fmt.Errorf("NOTIFY_TIMEOUT: invalid duration %q", raw)
		}
		c.NotifyTimeout = v
	}
	if raw := env("NOTIFY_RATE_PER_SEC"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return fmt.Errorf("NOTIFY_RATE_PER_SEC: invalid value %q", raw)
		}
		c.NotifyRatePerSec = v
	}
	return nil
}

// ParseClock parses an HH:MM string.
func ParseClock(timeStr string) (int, int, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", timeStr)
	}
	return hour, minute, nil
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

func setEnv(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Package config loads tv-finder settings from defaults, an optional TOML
// file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ulule/limiter/v3"
)

// Config holds the application configuration
type Config struct {
	ListenAddr           string   `toml:"listen_addr"`
	ProviderBaseURL      string   `toml:"provider_base_url"`
	RequestTimeout       Duration `toml:"request_timeout"`
	DBPath               string   `toml:"db_path"`
	SessionTTL           Duration `toml:"session_ttl"`
	RateLimit            string   `toml:"rate_limit"` // limiter format, e.g. "120-M"
	APIToken             string   `toml:"api_token"`
	TelegramBotToken     string   `toml:"telegram_bot_token"`
	TelegramChatID       int64    `toml:"telegram_chat_id"`
	DiagnosticsRetention Duration `toml:"diagnostics_retention"`
	GinMode              string   `toml:"gin_mode"`
}

// Duration is a time.Duration that decodes from TOML strings like "30m"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		ListenAddr:           ":8080",
		ProviderBaseURL:      "https://api.tvmaze.com",
		RequestTimeout:       Duration{10 * time.Second},
		DBPath:               "tv_finder.db",
		SessionTTL:           Duration{30 * time.Minute},
		RateLimit:            "120-M",
		DiagnosticsRetention: Duration{7 * 24 * time.Hour},
		GinMode:              "release",
	}
}

// Load builds the configuration. path may be empty, and a missing file is
// not an error; environment variables override whatever the file sets.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)
	c.ProviderBaseURL = getEnv("TVMAZE_BASE_URL", c.ProviderBaseURL)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.RateLimit = getEnv("RATE_LIMIT", c.RateLimit)
	c.APIToken = getEnv("WEB_API_TOKEN", c.APIToken)
	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"REQUEST_TIMEOUT", &c.RequestTimeout},
		{"SESSION_TTL", &c.SessionTTL},
		{"DIAGNOSTICS_RETENTION", &c.DiagnosticsRetention},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		if err := d.dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	return nil
}

// Validate checks config values are within acceptable bounds
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	u, err := url.Parse(c.ProviderBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("provider base URL %q must be an absolute http(s) URL", c.ProviderBaseURL)
	}

	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.SessionTTL.Duration <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.DiagnosticsRetention.Duration <= 0 {
		return fmt.Errorf("diagnostics retention must be positive")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path cannot be empty (use :memory: for no file)")
	}

	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("rate limit %q: %w", c.RateLimit, err)
	}

	switch strings.ToLower(c.GinMode) {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported gin mode %q (valid: debug, release, test)", c.GinMode)
	}

	return nil
}

// TelegramEnabled reports whether operator alerts are configured
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

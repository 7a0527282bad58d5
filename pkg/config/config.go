// Linkbot - Discord front end for the stream link control plane
// License: MIT
//
// Copyright (c) 2026 Linkbot contributors

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
)

// PlaceholderToken is written into a freshly created config file.
const PlaceholderToken = "DISCORD_BOT_TOKEN_HERE"

var (
	// ErrConfigCreated is returned by LoadConfig when no config file existed and a
	// default one was written in its place.
	ErrConfigCreated = errors.New("default configuration created")
	// ErrMissingToken is returned by Validate when the bot token is empty or
	// still the placeholder.
	ErrMissingToken = errors.New("discord bot token is not set")
)

// ChannelID is a nullable Discord channel snowflake. The empty value encodes
// as JSON null, and both strings and numbers are accepted on decode.
type ChannelID string

func (c ChannelID) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

func (c *ChannelID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ChannelID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("channel id must be a string or number: %w", err)
	}
	*c = ChannelID(n.String())
	return nil
}

// UnmarshalText lets env overrides set the channel id.
func (c *ChannelID) UnmarshalText(text []byte) error {
	*c = ChannelID(strings.TrimSpace(string(text)))
	return nil
}

type Config struct {
	Token               string    `json:"token" env:"LINKBOT_TOKEN"`
	Prefix              string    `json:"prefix" env:"LINKBOT_PREFIX"`
	APIURL              string    `json:"apiUrl" env:"LINKBOT_API_URL"`
	LogChannelID        ChannelID `json:"logChannelId" env:"LINKBOT_LOG_CHANNEL_ID"`
	HealthCheckSchedule string    `json:"healthCheckSchedule" env:"LINKBOT_HEALTH_CHECK_SCHEDULE"`
	RateLimitPerMinute  int       `json:"rateLimitPerMinute" env:"LINKBOT_RATE_LIMIT_PER_MINUTE"` // 0 = unlimited
	LogFile             string    `json:"logFile,omitempty" env:"LINKBOT_LOG_FILE"`
	LogLevel            string    `json:"logLevel,omitempty" env:"LINKBOT_LOG_LEVEL"` // debug, info, warn, error
	Proxy               string    `json:"proxy,omitempty" env:"LINKBOT_PROXY"`
}

// Validate reports the first configuration problem that prevents the bot
// from starting.
func (c *Config) Validate() error {
	token := strings.TrimSpace(c.Token)
	if token == "" || token == PlaceholderToken {
		return ErrMissingToken
	}
	if c.Prefix == "" {
		return errors.New("prefix must not be empty")
	}
	if strings.ContainsAny(c.Prefix, " \t\n") {
		return fmt.Errorf("prefix %q must not contain whitespace", c.Prefix)
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("apiUrl %q is not an absolute URL", c.APIURL)
	}
	if c.HealthCheckSchedule != "" && !gronx.New().IsValid(c.HealthCheckSchedule) {
		return fmt.Errorf("healthCheckSchedule %q is not a valid cron expression", c.HealthCheckSchedule)
	}
	if c.Proxy != "" {
		p, err := url.Parse(c.Proxy)
		if err != nil || p.Scheme == "" || p.Host == "" {
			return fmt.Errorf("proxy %q is not an absolute URL", c.Proxy)
		}
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rateLimitPerMinute must be >= 0, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// LoadConfig reads path, applying defaults for missing keys. When the file
// does not exist the defaults are written to path and ErrConfigCreated is
// returned together with the default config.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := SaveConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, ErrConfigCreated
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overlays LINKBOT_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0o600)
}

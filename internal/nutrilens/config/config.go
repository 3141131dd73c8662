package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/nutrilens/nlens/internal/api"
	"github.com/nutrilens/nlens/internal/nutrilens/mode"
	"github.com/nutrilens/nlens/internal/nutrilens/reveal"
)

// Config holds the configuration for the NutriLens client
type Config struct {
	APIBaseURL           string `toml:"api_base_url" mapstructure:"api_base_url"`
	Token                string `toml:"token" mapstructure:"token"`               // $VAR and ${VAR} are expanded
	DefaultMode          string `toml:"default_mode" mapstructure:"default_mode"` // text, image or combined
	RevealDelay          string `toml:"reveal_delay" mapstructure:"reveal_delay"` // Go duration, "0" disables the typing effect
	SessionRetentionDays int    `toml:"session_retention_days" mapstructure:"session_retention_days"`
	LogLevel             string `toml:"log_level" mapstructure:"log_level"`
	LogFormat            string `toml:"log_format" mapstructure:"log_format"`
	HistoryMaxPages      int    `toml:"history_max_pages" mapstructure:"history_max_pages"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		APIBaseURL:           api.DefaultBaseURL,
		Token:                "$NUTRILENS_TOKEN",
		DefaultMode:          string(mode.Text),
		RevealDelay:          reveal.DefaultDelay.String(),
		SessionRetentionDays: 30,
		LogLevel:             "warn",
		LogFormat:            "text",
		HistoryMaxPages:      10,
	}
}

// SetDefaults registers the default values with viper.
func SetDefaults() {
	d := NewDefaultConfig()
	viper.SetDefault("api_base_url", d.APIBaseURL)
	viper.SetDefault("token", d.Token)
	viper.SetDefault("default_mode", d.DefaultMode)
	viper.SetDefault("reveal_delay", d.RevealDelay)
	viper.SetDefault("session_retention_days", d.SessionRetentionDays)
	viper.SetDefault("log_level", d.LogLevel)
	viper.SetDefault("log_format", d.LogFormat)
	viper.SetDefault("history_max_pages", d.HistoryMaxPages)
}

// LoadConfig loads configuration from viper and expands environment
// variable references.
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	config.APIBaseURL = expandEnvVar(config.APIBaseURL)
	config.Token = expandEnvVar(config.Token)

	return config, nil
}

// GetMode returns the mode new sessions start in.
func (c *Config) GetMode() (mode.Mode, error) {
	if c.DefaultMode == "" {
		return mode.Text, nil
	}
	m, err := mode.Parse(c.DefaultMode)
	if err != nil {
		return "", fmt.Errorf("invalid default_mode: %w", err)
	}
	return m, nil
}

// GetRevealDelay parses reveal_delay. Negative values count as zero.
func (c *Config) GetRevealDelay() (time.Duration, error) {
	if c.RevealDelay == "" {
		return reveal.DefaultDelay, nil
	}
	d, err := time.ParseDuration(c.RevealDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid reveal_delay %q: %w", c.RevealDelay, err)
	}
	return max(d, 0), nil
}

// GetRetention returns how long transcripts are kept. Zero keeps them
// forever.
func (c *Config) GetRetention() time.Duration {
	if c.SessionRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.SessionRetentionDays) * 24 * time.Hour
}

package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("log_level", "info")

	// Define environment variables
	v.BindEnv("XUI_URL")
	v.BindEnv("XUI_USER")
	v.BindEnv("XUI_PASSWORD")
	v.BindEnv("XUI_DIALECT")
	v.BindEnv("XUI_INSECURE")
	v.BindEnv("XUI_HOSTNAME")
	v.BindEnv("LOG_LEVEL")

	cfg := &Config{
		LogLevel: v.GetString("LOG_LEVEL"),
		Panel: PanelConfig{
			URL:      strings.TrimSpace(v.GetString("XUI_URL")),
			User:     strings.TrimSpace(v.GetString("XUI_USER")),
			Password: strings.TrimSpace(v.GetString("XUI_PASSWORD")),
			Dialect:  strings.TrimSpace(v.GetString("XUI_DIALECT")),
			Insecure: v.GetBool("XUI_INSECURE"),
			Hostname: strings.TrimSpace(v.GetString("XUI_HOSTNAME")),
		},
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = v.GetString("log_level")
	}

	if cfg.Panel.Hostname == "" && cfg.Panel.URL != "" {
		if u, err := url.Parse(cfg.Panel.URL); err == nil {
			cfg.Panel.Hostname = u.Hostname()
		}
	}

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Panel.URL == "" {
		return errors.New("XUI_URL is required")
	}
	if cfg.Panel.User == "" {
		return errors.New("XUI_USER is required")
	}
	if cfg.Panel.Password == "" {
		return errors.New("XUI_PASSWORD is required")
	}
	return nil
}

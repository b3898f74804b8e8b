package config

// Config represents the application configuration
type Config struct {
	Panel    PanelConfig `mapstructure:"panel"`
	LogLevel string      `mapstructure:"log_level"`
}

// PanelConfig holds the connection settings for an XUI panel
type PanelConfig struct {
	URL      string `mapstructure:"url"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Dialect  string `mapstructure:"dialect"`
	Insecure bool   `mapstructure:"insecure"`

	// Hostname is the public address placed in generated access links.
	// Defaults to the panel URL host.
	Hostname string `mapstructure:"hostname"`
}

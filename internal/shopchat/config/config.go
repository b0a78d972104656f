package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the chat widget
type Config struct {
	EndpointURL    string        `toml:"endpoint_url" mapstructure:"endpoint_url"`       // Chat endpoint questions are posted to
	SiteURL        string        `toml:"site_url" mapstructure:"site_url"`               // Store root used for product detail links
	RequestTimeout time.Duration `toml:"request_timeout" mapstructure:"request_timeout"` // 0 = no timeout
	ListenAddr     string        `toml:"listen_addr" mapstructure:"listen_addr"`
	AllowedOrigins []string      `toml:"allowed_origins" mapstructure:"allowed_origins"`
	SessionIdleTTL time.Duration `toml:"session_idle_ttl" mapstructure:"session_idle_ttl"` // Idle browser transcripts are dropped after this
	StaticDir      string        `toml:"static_dir" mapstructure:"static_dir"`             // Optional override for the embedded stylesheet
	Title          string        `toml:"title" mapstructure:"title"`
	ErrorText      string        `toml:"error_text" mapstructure:"error_text"`
	LogLevel       string        `toml:"log_level" mapstructure:"log_level"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		EndpointURL:    "http://localhost:8000/api/chat/",
		SiteURL:        "http://localhost:8000",
		RequestTimeout: 0, // Default: wait as long as the endpoint takes
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		SessionIdleTTL: 30 * time.Minute,
		StaticDir:      "",
		Title:          "Shopping Assistant",
		ErrorText:      "Sorry, I encountered an error while processing your request. Please try again.",
		LogLevel:       "info",
	}
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("endpoint_url", d.EndpointURL)
	v.SetDefault("site_url", d.SiteURL)
	v.SetDefault("request_timeout", d.RequestTimeout.String())
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("session_idle_ttl", d.SessionIdleTTL.String())
	v.SetDefault("static_dir", d.StaticDir)
	v.SetDefault("title", d.Title)
	v.SetDefault("error_text", d.ErrorText)
	v.SetDefault("log_level", d.LogLevel)
}

// FileValues returns the configuration in the shape written to config.toml.
// Durations are written as strings ("30m0s") so they read back unchanged.
func (c *Config) FileValues() map[string]interface{} {
	return map[string]interface{}{
		"endpoint_url":     c.EndpointURL,
		"site_url":         c.SiteURL,
		"request_timeout":  c.RequestTimeout.String(),
		"listen_addr":      c.ListenAddr,
		"allowed_origins":  c.AllowedOrigins,
		"session_idle_ttl": c.SessionIdleTTL.String(),
		"static_dir":       c.StaticDir,
		"title":            c.Title,
		"error_text":       c.ErrorText,
		"log_level":        c.LogLevel,
	}
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	// Expand $VAR references
	var err error
	if config.EndpointURL, err = expandEnvVar(config.EndpointURL); err != nil {
		return nil, err
	}
	if config.SiteURL, err = expandEnvVar(config.SiteURL); err != nil {
		return nil, err
	}

	if config.StaticDir != "" {
		absPath, err := ResolvePath(v, config.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("error resolving static directory path '%s': %v", config.StaticDir, err)
		}
		config.StaticDir = absPath
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would only fail later at request time
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EndpointURL) == "" {
		return fmt.Errorf("endpoint URL is not configured. Set it in config file (endpoint_url) or environment variable (SHOPCHAT_ENDPOINT_URL)")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative (got %s)", c.RequestTimeout)
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("session_idle_ttl must not be negative (got %s)", c.SessionIdleTTL)
	}
	return nil
}

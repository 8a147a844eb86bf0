// Package config loads this forwarder's configuration with Viper:
// defaults, an optional YAML file, then DNSFWD_-prefixed environment
// variables, in increasing priority.
//
// Environment variables use the DNSFWD_ prefix and underscore
// separated keys: DNSFWD_UPSTREAM_ADDR -> upstream_addr,
// DNSFWD_UDP_LISTEN -> udp_listen, and so on.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure (spec §6 "Environment/config").
type Config struct {
	UpstreamAddr      string `mapstructure:"upstream_addr"`
	UDPListen         string `mapstructure:"udp_listen"`
	DoHListen         string `mapstructure:"doh_listen"`
	UpstreamTimeoutMS int    `mapstructure:"upstream_timeout_ms"`

	Logging LoggingConfig `mapstructure:"logging"`

	// StorePath, when non-empty, persists this configuration into a
	// sqlite-backed settings store (internal/store) so it survives
	// across restarts without a config file. Empty disables persistence.
	StorePath string `mapstructure:"store_path"`
}

// LoggingConfig controls the slog handler internal/logging configures.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Structured bool   `mapstructure:"structured"`
	Format     string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream_addr", "9.9.9.9:53")
	v.SetDefault("udp_listen", "0.0.0.0:3553")
	v.SetDefault("doh_listen", "127.0.0.1:4443")
	v.SetDefault("upstream_timeout_ms", 2000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.structured", true)
	v.SetDefault("logging.format", "json")
	v.SetDefault("store_path", "")
}

// Load reads configuration from defaults, an optional YAML file at path
// (ignored if empty), and environment variables prefixed DNSFWD_, in
// that increasing order of priority.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DNSFWD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UpstreamTimeout returns UpstreamTimeoutMS as a time.Duration.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutMS) * time.Millisecond
}

// Validate checks invariants Load cannot express through viper alone.
func (c *Config) Validate() error {
	if c.UpstreamAddr == "" {
		return fmt.Errorf("config: upstream_addr must not be empty")
	}
	if c.UDPListen == "" {
		return fmt.Errorf("config: udp_listen must not be empty")
	}
	if c.DoHListen == "" {
		return fmt.Errorf("config: doh_listen must not be empty")
	}
	if c.UpstreamTimeoutMS <= 0 {
		return fmt.Errorf("config: upstream_timeout_ms must be positive, got %d", c.UpstreamTimeoutMS)
	}
	return nil
}

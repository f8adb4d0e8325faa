// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration. Every field has a default,
// so an empty environment is valid.
type Config struct {
	BindIP   string `env:"BIND_IP" envDefault:"0.0.0.0"`
	BindPort uint16 `env:"BIND_PORT" envDefault:"6969"`

	Log    LogConfig
	Avatar AvatarConfig
	Cache  CacheConfig

	TransformTimeout time.Duration `env:"TRANSFORM_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// LogConfig controls verbosity and output format
type LogConfig struct {
	// DevLogging set to DEV_DEBUG enables debug output.
	DevLogging string `env:"DEV_LOGGING" envDefault:"DEV_INFO"`
	// Level, when set, names a zerolog level and wins over DevLogging.
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// AvatarConfig holds image source settings
type AvatarConfig struct {
	BaseURL      string        `env:"AVATAR_BASE_URL" envDefault:"https://avatar.cdev.shop"`
	UserAgent    string        `env:"AVATAR_USER_AGENT" envDefault:"petpet-api/1.0"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	Rate         float64       `env:"FETCH_RATE" envDefault:"0"`
	Burst        int           `env:"FETCH_BURST" envDefault:"1"`
}

// CacheConfig holds cache store settings
type CacheConfig struct {
	Shards         int  `env:"CACHE_SHARDS" envDefault:"1"`
	CoalesceMisses bool `env:"COALESCE_MISSES" envDefault:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that parse but cannot work
func (c *Config) Validate() error {
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.Log.Format)
	}
	if c.Avatar.Rate < 0 {
		return fmt.Errorf("FETCH_RATE must not be negative, got %v", c.Avatar.Rate)
	}
	if c.Avatar.FetchTimeout <= 0 || c.TransformTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT and TRANSFORM_TIMEOUT must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindIP, strconv.Itoa(int(c.BindPort)))
}

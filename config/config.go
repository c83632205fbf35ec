// Package config loads engine limits and service settings from the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
	"github.com/ardnew/pattern/pkg"
)

// Config holds settings read from PATTERN_-prefixed environment variables.
type Config struct {
	// Engine limits
	MaxDepth  int  `env:"MAX_DEPTH"  envDefault:"64"`
	LoopLimit int  `env:"LOOP_LIMIT" envDefault:"5000"`
	Strict    bool `env:"STRICT"     envDefault:"false"`

	// Redis live objects. An empty address disables them.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASS"`
	RedisDB       int           `env:"REDIS_DB"      envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX"`
	RedisTimeout  time.Duration `env:"REDIS_TIMEOUT" envDefault:"2s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses the given environment instead of the process environment.
// A nil map reads the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}

	err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      pkg.EnvPrefix(),
		Environment: environ,
	})
	if err != nil {
		return nil, pkg.ErrInvalidConfig.Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first setting out of range.
func (c *Config) Validate() error {
	switch {
	case c.MaxDepth < 1:
		return pkg.ErrInvalidConfig.Wrapf("MAX_DEPTH must be positive: %d", c.MaxDepth)
	case c.LoopLimit < 1:
		return pkg.ErrInvalidConfig.Wrapf("LOOP_LIMIT must be positive: %d", c.LoopLimit)
	case c.RedisDB < 0:
		return pkg.ErrInvalidConfig.Wrapf("REDIS_DB must be non-negative: %d", c.RedisDB)
	case c.RedisTimeout <= 0:
		return pkg.ErrInvalidConfig.Wrapf("REDIS_TIMEOUT must be positive: %s", c.RedisTimeout)
	}

	if log.ParseLevel(c.LogLevel) == log.DefaultLevel &&
		!isDefaultLevelName(c.LogLevel) {
		return pkg.ErrInvalidConfig.Wrapf("LOG_LEVEL is not a level name: %q", c.LogLevel)
	}

	return nil
}

func isDefaultLevelName(s string) bool {
	var l slog.Level

	return l.UnmarshalText([]byte(s)) == nil && log.Level(l) == log.DefaultLevel
}

// Policy returns the evaluation error policy selected by Strict.
func (c *Config) Policy() lang.Policy {
	if c.Strict {
		return lang.PolicyStrict
	}

	return lang.PolicyNull
}

// Options returns the template options for the configured limits.
func (c *Config) Options() []lang.Option {
	return []lang.Option{
		lang.WithMaxDepth(c.MaxDepth),
		lang.WithLoopLimit(c.LoopLimit),
		lang.WithPolicy(c.Policy()),
	}
}

// Level returns the configured log level.
func (c *Config) Level() log.Level {
	return log.ParseLevel(c.LogLevel)
}

// LogValue implements [slog.LogValuer]. The Redis password is omitted.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_depth", c.MaxDepth),
		slog.Int("loop_limit", c.LoopLimit),
		slog.String("policy", c.Policy().String()),
		slog.String("redis_addr", c.RedisAddr),
		slog.Int("redis_db", c.RedisDB),
		slog.String("log_level", c.LogLevel),
	)
}

// String returns a summary without the Redis password.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{MaxDepth=%d, LoopLimit=%d, Strict=%t, RedisAddr=%s, RedisDB=%d, LogLevel=%s}",
		c.MaxDepth, c.LoopLimit, c.Strict, c.RedisAddr, c.RedisDB, c.LogLevel,
	)
}

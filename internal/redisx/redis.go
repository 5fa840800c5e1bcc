// Package redisx builds the shared Redis client used by the event bus and
// the enrichment queue.
package redisx

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goalcheck/goalcheck/config"
)

const pingTimeout = 5 * time.Second

// Config configures the Redis client.
type Config struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	TLSEnabled  bool
	TLSInsecure bool
}

// FromConfig extracts the Redis settings from the process configuration.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Addr:        cfg.RedisAddr,
		Username:    cfg.RedisUsername,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		TLSEnabled:  cfg.RedisTLSEnabled,
		TLSInsecure: cfg.RedisTLSInsecure,
	}
}

// Enabled reports whether an address was configured.
func (c Config) Enabled() bool { return c.Addr != "" }

// Options converts the settings to go-redis options.
func (c Config) Options() *redis.Options {
	opts := &redis.Options{
		Addr:     c.Addr,
		Username: c.Username,
		Password: c.Password,
		DB:       c.DB,
	}
	if c.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: c.TLSInsecure, // #nosec G402 – opt-in for dev clusters
		}
	}
	return opts
}

// NewClient returns a connected client, or nil when Redis is not configured.
// Callers run in single-process mode on nil.
func NewClient(cfg Config) (redis.UniversalClient, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client := redis.NewClient(cfg.Options())
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

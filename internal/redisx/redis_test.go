package redisx

import (
	"testing"

	"github.com/goalcheck/goalcheck/config"
)

func TestNewClientWithoutAddress(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{})
	if err != nil || client != nil {
		t.Fatalf("expected nil client, got %v, %v", client, err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := FromConfig(&config.Config{
		RedisAddr:        "cache:6379",
		RedisUsername:    "svc",
		RedisDB:          2,
		RedisTLSEnabled:  true,
		RedisTLSInsecure: true,
	})
	if !cfg.Enabled() {
		t.Fatal("expected enabled config")
	}
	opts := cfg.Options()
	if opts.Addr != "cache:6379" || opts.Username != "svc" || opts.DB != 2 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.TLSConfig == nil || !opts.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config, got %+v", opts.TLSConfig)
	}
	if FromConfig(&config.Config{}).Options().TLSConfig != nil {
		t.Fatal("TLS should be off by default")
	}
}

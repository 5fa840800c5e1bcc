package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goalcheck/goalcheck/internal/store"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultContext = "default"
)

// Config represents the CLI configuration file.
type Config struct {
	CurrentContext string             `yaml:"currentContext" json:"currentContext"`
	Contexts       map[string]Context `yaml:"contexts" json:"contexts"`
	Metadata       map[string]string  `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Context holds the settings for one backend.
type Context struct {
	Name   string `yaml:"name" json:"name"`
	Server string `yaml:"server" json:"server"`
	// StateDriver and StateDSN locate the session and local history. An
	// empty driver means sqlite, an empty sqlite DSN a per-context file.
	StateDriver string `yaml:"stateDriver,omitempty" json:"stateDriver,omitempty"`
	StateDSN    string `yaml:"stateDSN,omitempty" json:"stateDSN,omitempty"`
	AdProvider  string `yaml:"adProvider,omitempty" json:"adProvider,omitempty"`
	AdClient    string `yaml:"adClient,omitempty" json:"adClient,omitempty"`
	// AdSlot is the AdSense slot or the PropellerAds zone.
	AdSlot string `yaml:"adSlot,omitempty" json:"adSlot,omitempty"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Contexts: map[string]Context{},
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = map[string]Context{}
	}
	return cfg, nil
}

func SaveConfig(cfg *Config, path string) error {
	if cfg.Contexts == nil {
		cfg.Contexts = map[string]Context{}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "goalcheck")
}

func defaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultStatePath keeps one state file per context so sessions never leak
// between backends.
func defaultStatePath(contextName string) string {
	return filepath.Join(configDir(), "state", contextName+".db")
}

// stateDriver normalizes a configured state driver name.
func stateDriver(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", store.DriverSQLite:
		return store.DriverSQLite, nil
	case store.DriverPostgres, "pgx":
		return store.DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported state driver %q (want sqlite or postgres)", name)
	}
}

func setContext(cfg *Config, ctx Context, makeCurrent bool) {
	if cfg.Contexts == nil {
		cfg.Contexts = map[string]Context{}
	}
	cfg.Contexts[ctx.Name] = ctx
	if cfg.CurrentContext == "" || makeCurrent {
		cfg.CurrentContext = ctx.Name
	}
}

func ensureContextExists(cfg *Config, name string) error {
	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	return nil
}

func (c *Config) contextNames() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

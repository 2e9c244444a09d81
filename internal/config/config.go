package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/sandbox"
)

type ProviderConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Models  map[string]string `mapstructure:"models"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type SandboxConfig struct {
	// Allow is the capability allow-list: dotted name prefixes a snippet
	// may import. Loaded once at startup, never mutated at runtime.
	Allow []string `mapstructure:"allow"`
	// Manifest optionally points at a versioned YAML allow-list file that
	// overrides Allow.
	Manifest string `mapstructure:"manifest"`
}

type Config struct {
	Server          ServerConfig              `mapstructure:"server"`
	Storage         StorageConfig             `mapstructure:"storage"`
	Sandbox         SandboxConfig             `mapstructure:"sandbox"`
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
	DefaultProvider string                    `mapstructure:"default_provider"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("crucible")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.crucible")

	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".crucible", "crucible.db"))
	v.SetDefault("sandbox.allow", caps.Default().Names())

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has a default.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Expand environment variables in API keys
	for name, p := range cfg.Providers {
		if strings.HasPrefix(p.APIKey, "${") && strings.HasSuffix(p.APIKey, "}") {
			envVar := p.APIKey[2 : len(p.APIKey)-1]
			p.APIKey = os.Getenv(envVar)
			cfg.Providers[name] = p
		}
	}

	if cfg.Sandbox.Manifest != "" {
		m, err := LoadManifest(cfg.Sandbox.Manifest)
		if err != nil {
			return nil, err
		}
		cfg.Sandbox.Allow = m.Allow
	}

	return &cfg, nil
}

// Policy builds the process-wide gatekeeper policy from the configured
// allow-list.
func (c *Config) Policy() sandbox.Policy {
	return sandbox.NewPolicy(c.Sandbox.Allow)
}

// Provider returns the config for a named provider, falling back to the default.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown provider: %s", name)
	}
	return p, nil
}

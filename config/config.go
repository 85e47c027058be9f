// Package config handles configuration loading for codegate.
// Configuration is loaded from:
// 1. ~/.config/codegate/config.yaml (user-level)
// 2. .codegate/config.yaml (project-level override)
// 3. Environment variables (highest priority)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Port the gateway listens on (default: 3001)
	Port int `yaml:"port"`

	// ShutdownSeconds bounds graceful shutdown (default: 10)
	ShutdownSeconds int `yaml:"shutdown_seconds"`
}

// ProjectConfig holds settings for the project model.
type ProjectConfig struct {
	// Manifest is the path to the project's go.mod. Required.
	Manifest string `yaml:"manifest"`

	// CacheTTLMinutes is how long a model stays live (default: 5)
	CacheTTLMinutes int `yaml:"cache_ttl_minutes"`
}

// Config is the main configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Project ProjectConfig `yaml:"project"`

	// Debug enables verbose logging
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3001,
			ShutdownSeconds: 10,
		},
		Project: ProjectConfig{
			CacheTTLMinutes: 5,
		},
	}
}

// CacheTTL returns the model TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Project.CacheTTLMinutes) * time.Minute
}

// Load reads configuration from standard locations and merges with
// defaults. Priority (highest to lowest):
// 1. Environment variables (a local .env is loaded first if present)
// 2. Project config (.codegate/config.yaml)
// 3. User config (~/.config/codegate/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if p, err := userConfigPath(); err == nil {
		if data, err := os.ReadFile(p); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing user config %s: %w", p, err)
			}
		}
	}

	projectConfigPath := filepath.Join(".codegate", "config.yaml")
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing project config %s: %w", projectConfigPath, err)
		}
	}

	// Best-effort: a missing .env is not an error.
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadFromPath reads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Project.Manifest == "" {
		errs = append(errs, "project manifest is required (set project.manifest or CODEGATE_MANIFEST)")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port %d out of range", c.Server.Port))
	}
	if c.Project.CacheTTLMinutes < 1 {
		errs = append(errs, "cache_ttl_minutes must be at least 1")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// userConfigPath returns the path to the user configuration file.
func userConfigPath() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "codegate", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codegate", "config.yaml"), nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODEGATE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CODEGATE_MANIFEST"); v != "" {
		cfg.Project.Manifest = v
	}
	if v := os.Getenv("CODEGATE_CACHE_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Project.CacheTTLMinutes = n
		}
	}
	if v := os.Getenv("CODEGATE_DEBUG"); v == "1" || strings.ToLower(v) == "true" {
		cfg.Debug = true
	}
}

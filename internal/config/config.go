package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Edition  EditionConfig  `yaml:"edition"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port"`
	// AuthTokens maps bearer tokens to roles ("director" or "admin").
	// Callers presenting a mapped token may enter results.
	AuthTokens map[string]string `yaml:"auth_tokens"`
}

// EditionConfig selects which edition queries default to.
type EditionConfig struct {
	// Year pins the default edition; 0 means the latest edition in the
	// database.
	Year int `yaml:"year"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./taca.db"},
		Server:   ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TACA_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TACA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TACA_ADMIN_TOKEN"); v != "" {
		if cfg.Server.AuthTokens == nil {
			cfg.Server.AuthTokens = make(map[string]string)
		}
		cfg.Server.AuthTokens[v] = "admin"
	}
	if v := os.Getenv("TACA_EDITION_YEAR"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			cfg.Edition.Year = year
		}
	}
}

// Copyright (c) 2025, the idpkit contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/idpkit/idpkit/internal/securestore"
)

// Config is the top-level configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Providers ProvidersConfig `toml:"providers"`
	Biometric BiometricConfig `toml:"biometric"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr" env:"IDPKIT__LISTEN_ADDR"`
}

// StoreConfig selects and configures the secure store backend.
type StoreConfig struct {
	Type   string      `toml:"type" env:"IDPKIT__STORE_TYPE"`
	Secret string      `toml:"secret" env:"IDPKIT__STORE_SECRET"`
	Redis  RedisConfig `toml:"redis"`
	SQL    SQLConfig   `toml:"sql"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Host string `toml:"host" env:"IDPKIT__REDIS_HOST"`
	Port int    `toml:"port" env:"IDPKIT__REDIS_PORT"`
}

// SQLConfig holds the sqlite/postgres backend configuration.
type SQLConfig struct {
	Path     string `toml:"path" env:"IDPKIT__DB_PATH"`
	Host     string `toml:"host" env:"IDPKIT__DB_HOST"`
	Port     int    `toml:"port" env:"IDPKIT__DB_PORT"`
	User     string `toml:"user" env:"IDPKIT__DB_USER"`
	Password string `toml:"password" env:"IDPKIT__DB_PASSWORD"`
	Name     string `toml:"name" env:"IDPKIT__DB_NAME"`
}

// ProvidersConfig points at the provider catalog file.
type ProvidersConfig struct {
	Path string `toml:"path" env:"IDPKIT__PROVIDERS_PATH"`
}

// BiometricConfig selects the sensor integration. The default build has no
// platform sensor, so "none" is the only kind that does anything unless a
// platform gate is compiled in.
type BiometricConfig struct {
	Kind string `toml:"kind" env:"IDPKIT__BIOMETRIC_KIND"`
}

// Defaults returns a configuration that runs without a config file: memory
// store, no biometrics, catalog expected at providers.yaml.
func Defaults() *Config {
	return &Config{
		Server:    ServerConfig{ListenAddr: "localhost:8080"},
		Store:     StoreConfig{Type: "memory"},
		Providers: ProvidersConfig{Path: "providers.yaml"},
		Biometric: BiometricConfig{Kind: "none"},
	}
}

// Load reads the TOML file at path and applies environment overrides. An
// empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	config := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	loadEnvOverrides(config)
	return config, nil
}

// SecureStoreConfig translates the file/env form into the securestore form.
func (c *Config) SecureStoreConfig() securestore.Config {
	return securestore.Config{
		Type:   securestore.Type(c.Store.Type),
		Secret: c.Store.Secret,
		Redis: securestore.RedisConfig{
			Host: c.Store.Redis.Host,
			Port: c.Store.Redis.Port,
		},
		SQL: securestore.SQLConfig{
			Path:     c.Store.SQL.Path,
			Host:     c.Store.SQL.Host,
			Port:     c.Store.SQL.Port,
			User:     c.Store.SQL.User,
			Password: c.Store.SQL.Password,
			DBName:   c.Store.SQL.Name,
		},
	}
}

// loadEnvOverrides checks for environment variables and overrides config values
func loadEnvOverrides(config *Config) {
	// Server
	if env := os.Getenv("IDPKIT__LISTEN_ADDR"); env != "" {
		config.Server.ListenAddr = env
	}

	// Store
	if env := os.Getenv("IDPKIT__STORE_TYPE"); env != "" {
		config.Store.Type = env
	}
	if env := os.Getenv("IDPKIT__STORE_SECRET"); env != "" {
		config.Store.Secret = env
	}
	if env := os.Getenv("IDPKIT__REDIS_HOST"); env != "" {
		config.Store.Redis.Host = env
	}
	if env := os.Getenv("IDPKIT__REDIS_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			config.Store.Redis.Port = port
		}
	}
	if env := os.Getenv("IDPKIT__DB_PATH"); env != "" {
		config.Store.SQL.Path = env
	}
	if env := os.Getenv("IDPKIT__DB_HOST"); env != "" {
		config.Store.SQL.Host = env
	}
	if env := os.Getenv("IDPKIT__DB_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			config.Store.SQL.Port = port
		}
	}
	if env := os.Getenv("IDPKIT__DB_USER"); env != "" {
		config.Store.SQL.User = env
	}
	if env := os.Getenv("IDPKIT__DB_PASSWORD"); env != "" {
		config.Store.SQL.Password = env
	}
	if env := os.Getenv("IDPKIT__DB_NAME"); env != "" {
		config.Store.SQL.Name = env
	}

	// Providers
	if env := os.Getenv("IDPKIT__PROVIDERS_PATH"); env != "" {
		config.Providers.Path = env
	}

	// Biometric
	if env := os.Getenv("IDPKIT__BIOMETRIC_KIND"); env != "" {
		config.Biometric.Kind = env
	}
}

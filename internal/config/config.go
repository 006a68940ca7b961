// Parcelario - Forest Parcel Mapping and Species Distribution Backend
// Copyright 2026 A. Morales (agroforestal)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agroforestal/parcelario

// Package config provides layered configuration loading for Parcelario.
//
// Configuration is loaded via Koanf v2 from three sources, highest
// priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
//
// The JWT signing secret deliberately has NO built-in default. The
// server refuses to start without an explicit, sufficiently long
// JWT_SECRET; a well-known fallback secret would make every default
// deployment trivially forgeable.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Parcelario server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	GBIF     GBIFConfig     `koanf:"gbif"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds BadgerDB settings. Path is the directory for the
// on-disk store; InMemory bypasses the filesystem and is intended for
// tests.
type DatabaseConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SecurityConfig holds authentication and request-protection settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens. Required, minimum 32 characters,
	// no default.
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	BcryptCost        int           `koanf:"bcrypt_cost"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// GBIFConfig holds settings for the GBIF species-occurrence proxy.
type GBIFConfig struct {
	BaseURL string `koanf:"base_url"`
	// OccurrenceLimit is the page size requested from the occurrence
	// search endpoint.
	OccurrenceLimit int           `koanf:"occurrence_limit"`
	Timeout         time.Duration `koanf:"timeout"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads and validates the configuration from all layered sources.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Validate checks the configuration for values that are unusable or
// unsafe. Startup must fail on any error returned here.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in range 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required and has no default; generate one with: openssl rand -base64 32")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive, got %s", c.Security.SessionTimeout)
	}
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("security.bcrypt_cost must be in range 10-31, got %d", c.Security.BcryptCost)
	}

	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path is required unless database.in_memory is set")
	}

	if c.GBIF.BaseURL == "" {
		return fmt.Errorf("gbif.base_url must not be empty")
	}
	if c.GBIF.OccurrenceLimit <= 0 {
		return fmt.Errorf("gbif.occurrence_limit must be positive, got %d", c.GBIF.OccurrenceLimit)
	}
	if c.GBIF.Timeout <= 0 {
		return fmt.Errorf("gbif.timeout must be positive, got %s", c.GBIF.Timeout)
	}

	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment != "production"
}

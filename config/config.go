// Package config loads process settings from an optional config file and
// STRATA_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/strata-cms/strata/database"
)

// Settings is the full process configuration.
type Settings struct {
	// SchemaDir is the directory holding the document type definition files.
	SchemaDir string `mapstructure:"schema_dir"`
	// LogLevel selects the zap level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	Database Database `mapstructure:"database"`
}

// Database mirrors database.Config in file/env layout.
type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	Schema   string `mapstructure:"schema"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`

	MinConnections        int `mapstructure:"min_connections"`
	MaxConnections        int `mapstructure:"max_connections"`
	AcquireTimeoutSeconds int `mapstructure:"acquire_timeout_seconds"`
}

// Load reads settings from the given config file (optional when empty; then
// only defaults and environment apply). Environment variables use the
// STRATA_ prefix with underscores, e.g. STRATA_DATABASE_HOST.
func Load(configFile string) (Settings, error) {
	v := viper.New()

	// Every key needs a default so environment overrides reach Unmarshal.
	v.SetDefault("schema_dir", "./schemas")
	v.SetDefault("log_level", "info")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.sslmode", "prefer")
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.acquire_timeout_seconds", 5)

	v.SetEnvPrefix("strata")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return settings, nil
}

// DatabaseConfig converts the settings into the database package's config.
func (s Settings) DatabaseConfig() database.Config {
	return database.Config{
		Host:           s.Database.Host,
		Port:           s.Database.Port,
		Name:           s.Database.Name,
		Schema:         s.Database.Schema,
		User:           s.Database.User,
		Password:       s.Database.Password,
		SSLMode:        s.Database.SSLMode,
		MinConnections: s.Database.MinConnections,
		MaxConnections: s.Database.MaxConnections,
		AcquireTimeout: time.Duration(s.Database.AcquireTimeoutSeconds) * time.Second,
	}
}

// Package config loads formbuilder settings from an optional YAML file and
// FORMBUILDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. FORMBUILDER_SERVER_PORT.
const EnvPrefix = "FORMBUILDER"

// ErrConfigNotFound is returned when an explicitly named config file is missing.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Live      LiveConfig      `mapstructure:"live"`
}

// ServerConfig represents HTTP server settings
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	// Driver is one of memory, bolt or sqlite.
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	TimeFormat   string `mapstructure:"time_format"`
	ReportCaller bool   `mapstructure:"report_caller"`
}

// GeneratorConfig represents scaffold script settings
type GeneratorConfig struct {
	Version string `mapstructure:"version"`
}

// LiveConfig represents live builder session limits
type LiveConfig struct {
	MaxAge      time.Duration `mapstructure:"max_age"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:    "memory",
			Path:      "formbuilder.db",
			CacheSize: 256,
		},
		Logging: LoggingConfig{
			Level:      "info",
			TimeFormat: time.Kitchen,
		},
		Generator: GeneratorConfig{
			Version: "2.0.0",
		},
		Live: LiveConfig{
			MaxAge:      8 * time.Hour,
			IdleTimeout: 30 * time.Minute,
		},
	}
}

// Load reads configFile when given and applies environment overrides on top
// of the defaults. An empty configFile means defaults plus environment only.
func Load(configFile string) (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	setDefaults(v, config)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file content: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("store.driver", c.Store.Driver)
	v.SetDefault("store.path", c.Store.Path)
	v.SetDefault("store.cache_size", c.Store.CacheSize)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.time_format", c.Logging.TimeFormat)
	v.SetDefault("logging.report_caller", c.Logging.ReportCaller)
	v.SetDefault("generator.version", c.Generator.Version)
	v.SetDefault("live.max_age", c.Live.MaxAge)
	v.SetDefault("live.idle_timeout", c.Live.IdleTimeout)
}

// Validate checks values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "bolt", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q (want memory, bolt or sqlite)", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents application configuration
type Config struct {
	DataDir       string            `mapstructure:"data_dir"`
	API           APIConfig         `mapstructure:"api"`
	Anniversaries map[string]string `mapstructure:"anniversaries"`
	Log           LogConfig         `mapstructure:"log"`
	Daemon        DaemonConfig      `mapstructure:"daemon"`
}

// APIConfig represents the remote calendar API configuration
type APIConfig struct {
	URL            string `mapstructure:"url"`
	StaleAfterDays int    `mapstructure:"stale_after_days"`
	RequestDelay   string `mapstructure:"request_delay"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	Schedule string `mapstructure:"schedule"` // Cron expression for refresh runs
}

// Load loads configuration from file. A missing config file is not an
// error; defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.holidaycal")
		v.AddConfigPath("/etc/holidaycal")
	}

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("api.url", "http://tool.bitefu.net/jiari/")
	v.SetDefault("api.stale_after_days", 15)
	v.SetDefault("api.request_delay", "500ms")
	v.SetDefault("log.level", "info")
	v.SetDefault("daemon.schedule", "0 */4 * * *")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.DataDir = os.ExpandEnv(config.DataDir)
	config.Log.File = os.ExpandEnv(config.Log.File)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}
	if c.API.StaleAfterDays < 0 {
		return fmt.Errorf("api.stale_after_days must not be negative")
	}
	return nil
}

// DatabasePath returns the SQLite database path under the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "data.db")
}

// SnapshotPath returns the JSON snapshot path under the data dir.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "holiday.json")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".holidaycal")
}

package config

import (
	"fmt"
	"os"

	"wortmann-import/internal/logger"
)

type Config struct {
	// Data directory holding master data, settings and import output
	DataDir string

	// Settings file name relative to DataDir
	SettingsFile string

	// Master data seed file name relative to DataDir
	MasterDataFile string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		DataDir:        getEnv("WORTMANN_DATA_DIR", "data"),
		SettingsFile:   getEnv("WORTMANN_SETTINGS_FILE", "settings.json"),
		MasterDataFile: getEnv("WORTMANN_MASTERDATA_FILE", "masterdata.json"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("WORTMANN_DATA_DIR must not be empty")
	}
	if c.SettingsFile == "" {
		return fmt.Errorf("WORTMANN_SETTINGS_FILE must not be empty")
	}
	if c.MasterDataFile == "" {
		return fmt.Errorf("WORTMANN_MASTERDATA_FILE must not be empty")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

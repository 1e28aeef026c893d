// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every environment variable read by the application
const envPrefix = "PFASGRAPH_"

// DefaultInputPath is the input file read when none is configured
const DefaultInputPath = "pdh_data.csv"

// Config represents the application configuration
type Config struct {
	// Input CSV
	InputPath string

	// Output tables destination
	Output *OutputConfig

	// Run summary key relative to the output prefix; empty disables the summary
	SummaryKey string
	// Read every table back after writing and compare row counts
	Verify bool

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. Variables are
// first populated from envFiles, or from an optional ./.env when none are
// given; variables already set in the process environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	return LoadConfigWithOverrides(nil, envFiles...)
}

// LoadConfigWithOverrides loads configuration like LoadConfig and lets
// override adjust it, e.g. from command-line flags, before it is validated.
func LoadConfigWithOverrides(override func(*Config), envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:  getEnv("INPUT_PATH", DefaultInputPath),
		SummaryKey: getEnv("SUMMARY_KEY", ""),
		Verify:     getEnvAsBool("VERIFY", false),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
	}

	outputConfig, err := LoadOutputConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load output configuration: %w", err)
	}
	cfg.Output = outputConfig

	if override != nil {
		override(cfg)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFiles(envFiles []string) error {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(envFiles...); err != nil {
		return fmt.Errorf("failed to load env files %v: %w", envFiles, err)
	}
	return nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputPath) == "" {
		return errors.New("input path is required")
	}

	if c.Output == nil {
		return errors.New("output configuration is required")
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

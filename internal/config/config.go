// Package config loads the server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/omr-match-mcp/internal/distance"
)

// Config holds the server configuration.
type Config struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Distance transform defaults
	Kernel    string
	Threshold int

	// Template construction
	TemplateThreshold int
	SmallRatio        float64
	StemDX            float64
	StemDY            float64
	KeepTemplatesDir  string

	// Watershed
	WatershedStep int

	// Matching
	MaxCandidates int

	// Distance tables kept in memory
	MaxTables int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		LogLevel:          getEnvOrDefault("OMR_MCP_LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("OMR_MCP_LOG_FORMAT", "console"),
		Kernel:            getEnvOrDefault("OMR_MCP_KERNEL", "chamfer3"),
		Threshold:         getEnvAsIntOrDefault("OMR_MCP_THRESHOLD", 140),
		TemplateThreshold: getEnvAsIntOrDefault("OMR_MCP_TEMPLATE_THRESHOLD", 175),
		SmallRatio:        getEnvAsFloatOrDefault("OMR_MCP_SMALL_RATIO", 0.67),
		StemDX:            getEnvAsFloatOrDefault("OMR_MCP_STEM_DX", 0.05),
		StemDY:            getEnvAsFloatOrDefault("OMR_MCP_STEM_DY", 0.0),
		KeepTemplatesDir:  getEnvOrDefault("OMR_MCP_KEEP_TEMPLATES_DIR", ""),
		WatershedStep:     getEnvAsIntOrDefault("OMR_MCP_WATERSHED_STEP", 1),
		MaxCandidates:     getEnvAsIntOrDefault("OMR_MCP_MAX_CANDIDATES", 200),
		MaxTables:         getEnvAsIntOrDefault("OMR_MCP_MAX_TABLES", 16),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("OMR_MCP_LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}

	if _, err := distance.KernelByName(c.Kernel); err != nil {
		return fmt.Errorf("OMR_MCP_KERNEL: %w", err)
	}

	if c.Threshold < 0 || c.Threshold > 255 {
		return fmt.Errorf("OMR_MCP_THRESHOLD must be between 0 and 255, got %d", c.Threshold)
	}

	if c.TemplateThreshold < 0 || c.TemplateThreshold > 255 {
		return fmt.Errorf("OMR_MCP_TEMPLATE_THRESHOLD must be between 0 and 255, got %d", c.TemplateThreshold)
	}

	if c.SmallRatio <= 0 || c.SmallRatio > 1 {
		return fmt.Errorf("OMR_MCP_SMALL_RATIO must be in (0,1], got %v", c.SmallRatio)
	}

	if c.StemDX < 0 || c.StemDX > 0.5 || c.StemDY < 0 || c.StemDY > 0.5 {
		return fmt.Errorf("OMR_MCP_STEM_DX and OMR_MCP_STEM_DY must be in [0,0.5], got %v and %v", c.StemDX, c.StemDY)
	}

	if c.WatershedStep < 1 || c.WatershedStep > 256 {
		return fmt.Errorf("OMR_MCP_WATERSHED_STEP must be between 1 and 256, got %d", c.WatershedStep)
	}

	if c.MaxCandidates < 1 {
		return fmt.Errorf("OMR_MCP_MAX_CANDIDATES must be positive, got %d", c.MaxCandidates)
	}

	if c.MaxTables < 1 {
		return fmt.Errorf("OMR_MCP_MAX_TABLES must be positive, got %d", c.MaxTables)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

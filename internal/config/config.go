// Package config provides engine configuration for tsprep node executions
package config

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config represents the engine configuration shared by all node executions
type Config struct {
	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold" mapstructure:"parallel_threshold"` // Minimum rows to parse timestamps in parallel
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size" mapstructure:"worker_pool_size"`       // Number of worker goroutines (0 = auto-detect)

	// Resource limits
	MaxAlignmentRows int `json:"max_alignment_rows" yaml:"max_alignment_rows" mapstructure:"max_alignment_rows"` // Longest sequence the aligner may generate

	// Logging Configuration
	LogLevel  string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`    // debug, info, warn, error
	LogFormat string `json:"log_format" yaml:"log_format" mapstructure:"log_format"` // json or console

	// Debugging Configuration
	MetricsCollection bool `json:"metrics_collection" yaml:"metrics_collection" mapstructure:"metrics_collection"` // Enable metrics collection
}

// Global configuration instance
var (
	globalConfig = NewConfig()
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultParallelThreshold = 10000
	DefaultMaxAlignmentRows  = 10_000_000
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"

	// EnvPrefix is prepended to every configuration key read from the environment
	EnvPrefix = "TSPREP"
)

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect
		MaxAlignmentRows:  DefaultMaxAlignmentRows,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		MetricsCollection: false,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.ParallelThreshold <= 0 {
		return fmt.Errorf("ParallelThreshold must be positive, got %d", c.ParallelThreshold)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize)
	}

	if c.MaxAlignmentRows <= 0 {
		return fmt.Errorf("MaxAlignmentRows must be positive, got %d", c.MaxAlignmentRows)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LogLevel must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("LogFormat must be json or console, got %q", c.LogFormat)
	}

	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.MaxAlignmentRows == 0 {
		c.MaxAlignmentRows = defaults.MaxAlignmentRows
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}

	// Note: Boolean fields are intentionally not set to defaults here
	// This allows distinguishing between explicitly set false and unset values

	return c
}

// Workers returns the effective worker pool size
func (c Config) Workers() int {
	if c.WorkerPoolSize > 0 {
		return c.WorkerPoolSize
	}
	return runtime.NumCPU()
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// Load builds the configuration from defaults, an optional file and
// TSPREP_* environment variables, in increasing order of precedence.
// An empty filename skips the file. The file format follows its extension
// (yaml, yml, json or toml).
func Load(filename string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
		}
	}

	cfg := Config{
		ParallelThreshold: v.GetInt("parallel_threshold"),
		WorkerPoolSize:    v.GetInt("worker_pool_size"),
		MaxAlignmentRows:  v.GetInt("max_alignment_rows"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		MetricsCollection: v.GetBool("metrics_collection"),
	}.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() (Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	defaults := NewConfig()
	v.SetDefault("parallel_threshold", defaults.ParallelThreshold)
	v.SetDefault("worker_pool_size", defaults.WorkerPoolSize)
	v.SetDefault("max_alignment_rows", defaults.MaxAlignmentRows)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("metrics_collection", defaults.MetricsCollection)
}

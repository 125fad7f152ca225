package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Mongo     MongoConfig     `json:"mongo"`
	LLM       LLMConfig       `json:"llm"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Workflow  WorkflowConfig  `json:"workflow"`
	History   HistoryConfig   `json:"history"`
	Logging   LoggingConfig   `json:"logging"`
}

// MongoConfig represents MongoDB connection configuration
type MongoConfig struct {
	URI              string `json:"uri"               env:"MONGODB_URI"`
	Database         string `json:"database"          env:"MONGODB_DATABASE"`
	ConnectTimeout   string `json:"connect_timeout"   env:"MONGODB_CONNECT_TIMEOUT"   envDefault:"10s"`
	OperationTimeout string `json:"operation_timeout" env:"MONGODB_OPERATION_TIMEOUT" envDefault:"30s"`
}

// LLMConfig represents the completion API configuration
type LLMConfig struct {
	APIKey  string `json:"-"        env:"LLM_API_KEY"`
	BaseURL string `json:"base_url" env:"LLM_API_URL"`
	Model   string `json:"model"    env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
}

// RateLimitConfig represents the shared completion-call rate limit
type RateLimitConfig struct {
	Calls         int `json:"calls"          env:"RATE_LIMIT_CALLS"  envDefault:"60"`
	PeriodSeconds int `json:"period_seconds" env:"RATE_LIMIT_PERIOD" envDefault:"60"`
}

// WorkflowConfig represents question-answering workflow settings
type WorkflowConfig struct {
	MaxRetries       int `json:"max_retries"       env:"ASKMONGO_MAX_RETRIES"       envDefault:"3"`
	BatchConcurrency int `json:"batch_concurrency" env:"ASKMONGO_BATCH_CONCURRENCY" envDefault:"3"`
}

// HistoryConfig represents the local run-history store configuration
type HistoryConfig struct {
	Enabled bool   `json:"enabled" env:"ASKMONGO_HISTORY_ENABLED" envDefault:"true"`
	Path    string `json:"path"    env:"ASKMONGO_HISTORY_PATH"    envDefault:"~/.config/askmongo/history.db"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`                           // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`                           // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"`                         // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.config/askmongo/logs/app.log"` // log file path when output is file
}

// LoadConfig loads configuration from .env, file, environment variables, and defaults
func LoadConfig() (*Config, error) {
	return LoadConfigWithOverrides(nil)
}

// LoadConfigWithOverrides loads configuration with optional command-line flag overrides
func LoadConfigWithOverrides(flagOverrides map[string]interface{}) (*Config, error) {
	// A .env in the working directory feeds the same variables; absence is fine
	_ = godotenv.Load()

	config := &Config{}

	// Load from config file if it exists
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides using env library (also sets defaults)
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// OPENAI_API_KEY is honored as an alias for LLM_API_KEY
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if flagOverrides != nil {
		if err := applyFlagOverrides(config, flagOverrides); err != nil {
			return nil, fmt.Errorf("failed to apply flag overrides: %w", err)
		}
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadConfigFromFile overlays values from a JSON config file onto cfg.
func loadConfigFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	overlay(reflect.ValueOf(cfg).Elem(), reflect.ValueOf(&fileCfg).Elem())

	return nil
}

// overlay copies non-zero values from src onto dst, recursing into
// structs. Bools are copied unconditionally so an explicit false in
// the file takes effect.
func overlay(dst, src reflect.Value) {
	switch {
	case dst.Kind() != src.Kind():
		return
	case src.Kind() == reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			overlay(dst.Field(i), src.Field(i))
		}
	case src.Kind() == reflect.Bool || !src.IsZero():
		dst.Set(src)
	}
}

// applyFlagOverrides applies command-line flag overrides to configuration
func applyFlagOverrides(config *Config, overrides map[string]interface{}) error {
	for key, value := range overrides {
		switch key {
		case "mongo-uri":
			if str, ok := value.(string); ok && str != "" {
				config.Mongo.URI = str
			}
		case "mongo-database":
			if str, ok := value.(string); ok && str != "" {
				config.Mongo.Database = str
			}
		case "log-level":
			if str, ok := value.(string); ok && str != "" {
				config.Logging.Level = str
			}
		case "verbose":
			if b, ok := value.(bool); ok && b {
				config.Logging.Level = "debug"
			}
		case "history-path":
			if str, ok := value.(string); ok && str != "" {
				config.History.Path = str
			}
		case "max-retries":
			if n, ok := value.(int); ok && n >= 0 {
				config.Workflow.MaxRetries = n
			}
		}
	}

	return nil
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	if !oneOf(config.Logging.Level, "debug", "info", "warn", "error") {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	if !oneOf(config.Logging.Format, "text", "json") {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	if !oneOf(config.Logging.Output, "stdout", "stderr", "file") {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if _, err := time.ParseDuration(config.Mongo.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid mongo connect timeout: %s", config.Mongo.ConnectTimeout)
	}

	if _, err := time.ParseDuration(config.Mongo.OperationTimeout); err != nil {
		return fmt.Errorf("invalid mongo operation timeout: %s", config.Mongo.OperationTimeout)
	}

	if config.RateLimit.Calls <= 0 {
		return fmt.Errorf("rate limit calls must be positive: %d", config.RateLimit.Calls)
	}

	if config.RateLimit.PeriodSeconds <= 0 {
		return fmt.Errorf("rate limit period must be positive: %d", config.RateLimit.PeriodSeconds)
	}

	if config.Workflow.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative: %d", config.Workflow.MaxRetries)
	}

	if config.Workflow.BatchConcurrency <= 0 {
		return fmt.Errorf(
			"batch concurrency must be positive: %d",
			config.Workflow.BatchConcurrency,
		)
	}

	return nil
}

func oneOf(value string, allowed ...string) bool {
	return slices.Contains(allowed, strings.ToLower(value))
}

// ValidateRequired checks that every variable the query workflow depends on is
// set, reporting all missing ones at once.
func (c *Config) ValidateRequired() error {
	var missing []string

	if c.Mongo.URI == "" {
		missing = append(missing, "MONGODB_URI")
	}

	if c.Mongo.Database == "" {
		missing = append(missing, "MONGODB_DATABASE")
	}

	if c.LLM.APIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf(
			"missing required environment variables: %s\n"+
				"Please create a .env file with these variables or export them",
			strings.Join(missing, ", "),
		)
	}

	return nil
}

// ConnectTimeoutDuration returns the parsed mongo connect timeout
func (c *MongoConfig) ConnectTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		return 10 * time.Second
	}

	return d
}

// OperationTimeoutDuration returns the parsed mongo operation timeout
func (c *MongoConfig) OperationTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.OperationTimeout)
	if err != nil {
		return 30 * time.Second
	}

	return d
}

// Period returns the rate limit window as a duration
func (c *RateLimitConfig) Period() time.Duration {
	return time.Duration(c.PeriodSeconds) * time.Second
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("ASKMONGO_CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "askmongo", "config.json")
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.History.Path = expandPath(c.History.Path)
	c.Logging.File = expandPath(c.Logging.File)
}

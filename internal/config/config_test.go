package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *Config {
	return &Config{
		Mongo: MongoConfig{
			URI:              "mongodb://localhost:27017",
			Database:         "cinema_db",
			ConnectTimeout:   "10s",
			OperationTimeout: "30s",
		},
		LLM: LLMConfig{
			APIKey: "test-key",
			Model:  "gpt-4o-mini",
		},
		RateLimit: RateLimitConfig{
			Calls:         60,
			PeriodSeconds: 60,
		},
		Workflow: WorkflowConfig{
			MaxRetries:       3,
			BatchConcurrency: 3,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.config/askmongo/history.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
			File:   "~/.config/askmongo/logs/app.log",
		},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	tempConfigPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("ASKMONGO_CONFIG", tempConfigPath)
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "10s", cfg.Mongo.ConnectTimeout)
	assert.Equal(t, "30s", cfg.Mongo.OperationTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 60, cfg.RateLimit.Calls)
	assert.Equal(t, 60, cfg.RateLimit.PeriodSeconds)
	assert.Equal(t, 3, cfg.Workflow.MaxRetries)
	assert.Equal(t, 3, cfg.Workflow.BatchConcurrency)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	tempConfigPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("ASKMONGO_CONFIG", tempConfigPath)
	t.Setenv("MONGODB_URI", "mongodb://db.example.com:27017")
	t.Setenv("MONGODB_DATABASE", "cinema_db")
	t.Setenv("LLM_API_KEY", "env-key")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("RATE_LIMIT_CALLS", "30")
	t.Setenv("RATE_LIMIT_PERIOD", "120")
	t.Setenv("ASKMONGO_MAX_RETRIES", "5")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.example.com:27017", cfg.Mongo.URI)
	assert.Equal(t, "cinema_db", cfg.Mongo.Database)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30, cfg.RateLimit.Calls)
	assert.Equal(t, 120, cfg.RateLimit.PeriodSeconds)
	assert.Equal(t, 5, cfg.Workflow.MaxRetries)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfigOpenAIKeyAlias(t *testing.T) {
	tempConfigPath := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("ASKMONGO_CONFIG", tempConfigPath)
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "alias-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "alias-key", cfg.LLM.APIKey)
}

func TestLoadConfigFromFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	testConfig := map[string]interface{}{
		"mongo": map[string]interface{}{
			"uri":      "mongodb://file.example.com:27017",
			"database": "file_db",
		},
		"logging": map[string]interface{}{
			"level":  "debug",
			"format": "json",
		},
		"history": map[string]interface{}{
			"enabled": false,
			"path":    "/custom/history.db",
		},
	}

	data, err := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, err)

	err = os.WriteFile(configPath, data, 0600)
	require.NoError(t, err)

	config := baseConfig()
	err = loadConfigFromFile(config, configPath)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://file.example.com:27017", config.Mongo.URI)
	assert.Equal(t, "file_db", config.Mongo.Database)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
	assert.False(t, config.History.Enabled)
	assert.Equal(t, "/custom/history.db", config.History.Path)
}

func TestLoadConfigFromFileInvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	err := os.WriteFile(configPath, []byte("invalid json"), 0600)
	require.NoError(t, err)

	config := baseConfig()
	err = loadConfigFromFile(config, configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestApplyFlagOverrides(t *testing.T) {
	config := baseConfig()

	overrides := map[string]interface{}{
		"mongo-uri":      "mongodb://flag.example.com:27017",
		"mongo-database": "flag_db",
		"log-level":      "error",
		"history-path":   "/flag/history.db",
		"max-retries":    1,
	}

	err := applyFlagOverrides(config, overrides)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://flag.example.com:27017", config.Mongo.URI)
	assert.Equal(t, "flag_db", config.Mongo.Database)
	assert.Equal(t, "error", config.Logging.Level)
	assert.Equal(t, "/flag/history.db", config.History.Path)
	assert.Equal(t, 1, config.Workflow.MaxRetries)
}

func TestApplyFlagOverridesVerbose(t *testing.T) {
	config := baseConfig()

	err := applyFlagOverrides(config, map[string]interface{}{"verbose": true})
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Logging.Level)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name          string
		modifyConfig  func(*Config)
		expectError   bool
		errorContains string
	}{
		{
			name: "valid config",
			modifyConfig: func(_ *Config) {
				// No modifications - should be valid
			},
			expectError: false,
		},
		{
			name: "invalid log level",
			modifyConfig: func(c *Config) {
				c.Logging.Level = "invalid"
			},
			expectError:   true,
			errorContains: "invalid log level",
		},
		{
			name: "invalid log format",
			modifyConfig: func(c *Config) {
				c.Logging.Format = "invalid"
			},
			expectError:   true,
			errorContains: "invalid log format",
		},
		{
			name: "invalid log output",
			modifyConfig: func(c *Config) {
				c.Logging.Output = "invalid"
			},
			expectError:   true,
			errorContains: "invalid log output",
		},
		{
			name: "invalid connect timeout",
			modifyConfig: func(c *Config) {
				c.Mongo.ConnectTimeout = "invalid"
			},
			expectError:   true,
			errorContains: "invalid mongo connect timeout",
		},
		{
			name: "invalid operation timeout",
			modifyConfig: func(c *Config) {
				c.Mongo.OperationTimeout = "invalid"
			},
			expectError:   true,
			errorContains: "invalid mongo operation timeout",
		},
		{
			name: "invalid rate limit calls",
			modifyConfig: func(c *Config) {
				c.RateLimit.Calls = 0
			},
			expectError:   true,
			errorContains: "rate limit calls must be positive",
		},
		{
			name: "invalid rate limit period",
			modifyConfig: func(c *Config) {
				c.RateLimit.PeriodSeconds = -1
			},
			expectError:   true,
			errorContains: "rate limit period must be positive",
		},
		{
			name: "negative max retries",
			modifyConfig: func(c *Config) {
				c.Workflow.MaxRetries = -1
			},
			expectError:   true,
			errorContains: "max retries must not be negative",
		},
		{
			name: "invalid batch concurrency",
			modifyConfig: func(c *Config) {
				c.Workflow.BatchConcurrency = 0
			},
			expectError:   true,
			errorContains: "batch concurrency must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := baseConfig()
			tt.modifyConfig(config)

			err := validateConfig(config)
			if tt.expectError {
				assert.Error(t, err)

				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name         string
		modifyConfig func(*Config)
		wantMissing  []string
	}{
		{
			name:         "all set",
			modifyConfig: func(_ *Config) {},
			wantMissing:  nil,
		},
		{
			name: "missing uri",
			modifyConfig: func(c *Config) {
				c.Mongo.URI = ""
			},
			wantMissing: []string{"MONGODB_URI"},
		},
		{
			name: "missing everything",
			modifyConfig: func(c *Config) {
				c.Mongo.URI = ""
				c.Mongo.Database = ""
				c.LLM.APIKey = ""
			},
			wantMissing: []string{"MONGODB_URI", "MONGODB_DATABASE", "LLM_API_KEY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := baseConfig()
			tt.modifyConfig(config)

			err := config.ValidateRequired()
			if len(tt.wantMissing) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)

			for _, name := range tt.wantMissing {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := baseConfig()

	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.Mongo.OperationTimeoutDuration())
	assert.Equal(t, 60*time.Second, cfg.RateLimit.Period())

	// Unparseable values fall back to defaults
	cfg.Mongo.ConnectTimeout = "bogus"
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeoutDuration())
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "absolute path",
			input:    "/absolute/path",
			expected: "/absolute/path",
		},
		{
			name:     "relative path",
			input:    "relative/path",
			expected: "relative/path",
		},
		{
			name:     "home directory only",
			input:    "~",
			expected: os.Getenv("HOME"),
		},
		{
			name:     "home directory with path",
			input:    "~/config/file.json",
			expected: filepath.Join(os.Getenv("HOME"), "config/file.json"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)

			if tt.expected == os.Getenv("HOME") && tt.expected == "" {
				// Skip test if HOME is not set
				t.Skip("HOME environment variable not set")
			}

			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfigExpandAllPaths(t *testing.T) {
	config := &Config{
		History: HistoryConfig{
			Path: "~/history/test.db",
		},
		Logging: LoggingConfig{
			File: "~/logs/app.log",
		},
	}

	config.ExpandAllPaths()

	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		t.Skip("HOME environment variable not set")
	}

	assert.Equal(t, filepath.Join(homeDir, "history/test.db"), config.History.Path)
	assert.Equal(t, filepath.Join(homeDir, "logs/app.log"), config.Logging.File)
}

func TestOverlay(t *testing.T) {
	target := baseConfig()
	source := &Config{
		Mongo: MongoConfig{
			URI:      "mongodb://merged.example.com:27017",
			Database: "merged_db",
		},
		Logging: LoggingConfig{
			Level: "debug",
		},
	}

	overlay(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())

	assert.Equal(t, "mongodb://merged.example.com:27017", target.Mongo.URI)
	assert.Equal(t, "merged_db", target.Mongo.Database)
	assert.Equal(t, "debug", target.Logging.Level)

	// Zero values in the source leave the target untouched
	assert.Equal(t, "30s", target.Mongo.OperationTimeout)
	assert.Equal(t, "text", target.Logging.Format)

	// Bools copy unconditionally
	assert.False(t, target.History.Enabled)
}

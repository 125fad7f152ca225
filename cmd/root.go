package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/config"
	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/logging"
)

type contextKey string

const configContextKey contextKey = "config"

var (
	flagMongoURI      string
	flagMongoDatabase string
	flagLogLevel      string
	flagVerbose       bool
	flagHistoryPath   string
	flagMaxRetries    int
)

var rootCmd = &cobra.Command{
	Use:   "askmongo",
	Short: "Ask questions about your MongoDB data in natural language",
	Long: `askmongo answers natural language questions about a MongoDB database.
It introspects the database schema, asks an LLM to generate a mongosh-style
read query, validates the query against the schema, executes it, and
summarizes the results, with every run recorded in a local history.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfigIntoContext,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMongoURI, "mongo-uri", "", "MongoDB connection URI (overrides MONGODB_URI)")
	rootCmd.PersistentFlags().StringVar(&flagMongoDatabase, "mongo-database", "", "Database name (overrides MONGODB_DATABASE)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagHistoryPath, "history-path", "", "Path to the run history database")
	rootCmd.PersistentFlags().IntVar(&flagMaxRetries, "max-retries", -1, "Retry ceiling for query and summary regeneration")
}

// loadConfigIntoContext loads configuration with flag overrides, sets up
// the global logger, and stashes the config on the command context.
func loadConfigIntoContext(cmd *cobra.Command, _ []string) error {
	overrides := map[string]interface{}{
		"mongo-uri":      flagMongoURI,
		"mongo-database": flagMongoDatabase,
		"log-level":      flagLogLevel,
		"verbose":        flagVerbose,
		"history-path":   flagHistoryPath,
		"max-retries":    flagMaxRetries,
	}

	cfg, err := config.LoadConfigWithOverrides(overrides)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeConfig, "failed to load configuration")
	}

	cfg.ExpandAllPaths()

	if err := logging.InitializeLogger(cfg.Logging); err != nil {
		logging.SetupFallbackLogger()
		logging.Warnf("Logger setup failed, using fallback: %v", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), configContextKey, cfg))

	return nil
}

// GetConfigFromContext returns the configuration loaded by the root
// command's PersistentPreRunE.
func GetConfigFromContext(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configContextKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New(errors.ErrTypeConfig, "configuration not initialized")
	}

	return cfg, nil
}

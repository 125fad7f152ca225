package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the active configuration",
	Long: `Show the current active configuration including settings from the
config file, environment variables, and command-line flags. Secrets are
masked.

Examples:
  askmongo config`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfigFromContext(cmd)
	if err != nil {
		return err
	}

	printConfig(cmd.OutOrStdout(), cfg)

	return nil
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Active Configuration")
	fmt.Fprintln(out, "====================")

	fmt.Fprintln(out, "\nMongoDB:")
	fmt.Fprintf(out, "  URI: %s\n", maskMongoURI(cfg.Mongo.URI))
	fmt.Fprintf(out, "  Database: %s\n", valueOrUnset(cfg.Mongo.Database))
	fmt.Fprintf(out, "  Connect Timeout: %s\n", cfg.Mongo.ConnectTimeout)
	fmt.Fprintf(out, "  Operation Timeout: %s\n", cfg.Mongo.OperationTimeout)

	fmt.Fprintln(out, "\nLLM:")
	fmt.Fprintf(out, "  API Key: %s\n", maskAPIKey(cfg.LLM.APIKey))
	fmt.Fprintf(out, "  Base URL: %s\n", valueOrDefault(cfg.LLM.BaseURL))
	fmt.Fprintf(out, "  Model: %s\n", cfg.LLM.Model)

	fmt.Fprintln(out, "\nRate Limit:")
	fmt.Fprintf(out, "  Calls: %d\n", cfg.RateLimit.Calls)
	fmt.Fprintf(out, "  Period: %s\n", cfg.RateLimit.Period())

	fmt.Fprintln(out, "\nWorkflow:")
	fmt.Fprintf(out, "  Max Retries: %d\n", cfg.Workflow.MaxRetries)
	fmt.Fprintf(out, "  Batch Concurrency: %d\n", cfg.Workflow.BatchConcurrency)

	fmt.Fprintln(out, "\nHistory:")
	fmt.Fprintf(out, "  Enabled: %t\n", cfg.History.Enabled)
	fmt.Fprintf(out, "  Path: %s\n", cfg.History.Path)

	fmt.Fprintln(out, "\nLogging:")
	fmt.Fprintf(out, "  Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  Format: %s\n", cfg.Logging.Format)
	fmt.Fprintf(out, "  Output: %s\n", cfg.Logging.Output)

	if cfg.Logging.Output == "file" {
		fmt.Fprintf(out, "  File: %s\n", cfg.Logging.File)
	}
}

// maskAPIKey hides the middle of a key so the output is safe to share.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 8 {
		return "****"
	}

	return key[:4] + "..." + key[len(key)-4:]
}

// maskMongoURI strips credentials embedded in a connection string.
func maskMongoURI(uri string) string {
	if uri == "" {
		return "(not set)"
	}

	schemeEnd := strings.Index(uri, "://")
	if schemeEnd == -1 {
		return uri
	}

	at := strings.LastIndex(uri, "@")
	if at == -1 || at < schemeEnd {
		return uri
	}

	return uri[:schemeEnd+3] + "***@" + uri[at+1:]
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(not set)"
	}

	return s
}

func valueOrDefault(s string) string {
	if s == "" {
		return "(default)"
	}

	return s
}

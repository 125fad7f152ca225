package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/config"
	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/monitor"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to MongoDB and the LLM configuration",
	Long: `Probe the MongoDB connection and verify the LLM API key is configured.
Exits non-zero when any check is degraded.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := GetConfigFromContext(cmd)
	if err != nil {
		return err
	}

	health := checkHealth(ctx, cfg)
	printHealth(cmd.OutOrStdout(), health)

	if health.Status != monitor.StatusHealthy {
		return errors.New(errors.ErrTypeInternal, "one or more health checks are degraded")
	}

	return nil
}

// checkHealth probes MongoDB when it is configured; an unreachable or
// unconfigured server degrades the report instead of failing the command.
func checkHealth(ctx context.Context, cfg *config.Config) monitor.Health {
	var checker *monitor.HealthChecker

	client, err := connectMongo(ctx, cfg)
	if err != nil {
		checker = monitor.NewHealthChecker(nil, cfg.LLM.APIKey != "")
	} else {
		defer func() { _ = client.Close(ctx) }()
		checker = monitor.NewHealthChecker(client, cfg.LLM.APIKey != "")
	}

	return checker.Check(ctx)
}

func printHealth(out io.Writer, health monitor.Health) {
	fmt.Fprintf(out, "Overall: %s\n\n", health.Status)

	names := make([]string, 0, len(health.Checks))
	for name := range health.Checks {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		check := health.Checks[name]
		fmt.Fprintf(out, "%-8s %s  %s\n", name+":", statusMark(check.Status), check.Detail)
	}
}

func statusMark(status monitor.Status) string {
	if status == monitor.StatusHealthy {
		return "✅"
	}

	return "⚠️"
}

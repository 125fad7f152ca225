package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/history"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display run history statistics",
	Long: `Show statistics about recorded question runs including totals,
success rate, average duration, and per-day activity.

Examples:
  askmongo stats`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfigFromContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	repo, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	return runStatsWithRepo(ctx, repo, cmd.OutOrStdout())
}

func runStatsWithRepo(ctx context.Context, repo history.Repository, out io.Writer) error {
	stats, err := repo.GetStats(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeStorage, "failed to get run statistics")
	}

	printStats(out, stats)

	return nil
}

func printStats(out io.Writer, stats *history.Stats) {
	fmt.Fprintf(out, "Run History Statistics\n")
	fmt.Fprintf(out, "======================\n\n")

	fmt.Fprintf(out, "Total Runs: %d\n", stats.TotalRuns)
	fmt.Fprintf(out, "Successful Runs: %d\n", stats.SuccessfulRuns)
	fmt.Fprintf(out, "Success Rate: %.1f%%\n", stats.SuccessRate)
	fmt.Fprintf(out, "Average Duration: %.0f ms\n", stats.AverageDurationMS)
	fmt.Fprintf(out, "Database Size: %.2f MB\n", stats.DatabaseSizeMB)

	if !stats.LastAskedAt.IsZero() {
		fmt.Fprintf(out, "Last Asked: %s\n", stats.LastAskedAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(out, "Last Asked: Never\n")
	}

	if len(stats.RunsPerDay) > 0 {
		fmt.Fprintf(out, "\nRuns Per Day:\n")

		days := make([]string, 0, len(stats.RunsPerDay))
		for day := range stats.RunsPerDay {
			days = append(days, day)
		}

		// Most recent day first
		sort.Sort(sort.Reverse(sort.StringSlice(days)))

		for _, day := range days {
			fmt.Fprintf(out, "  %s  %d runs\n", day, stats.RunsPerDay[day])
		}
	}
}

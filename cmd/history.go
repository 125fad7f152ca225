package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/history"
)

var (
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past question runs",
	Long: `Display recorded question runs with their generated queries and
outcomes, most recent first.

Examples:
  askmongo history
  askmongo history --limit 25
  askmongo history --limit 10 --offset 10`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "Maximum number of runs to display")
	historyCmd.Flags().IntVarP(&historyOffset, "offset", "o", 0, "Number of runs to skip")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
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

	return runHistoryWithRepo(ctx, repo, historyLimit, historyOffset, cmd.OutOrStdout())
}

func runHistoryWithRepo(ctx context.Context, repo history.Repository, limit, offset int, out io.Writer) error {
	runs, err := repo.ListRuns(ctx, limit, offset)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeStorage, "failed to list runs")
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "Run History\n")
	fmt.Fprintf(out, "===========\n\n")

	for i, run := range runs {
		printRun(out, offset+i+1, run)
	}

	return nil
}

func printRun(out io.Writer, position int, run history.Run) {
	mark := "✓"
	if !run.QuerySuccess {
		mark = "✗"
	}

	fmt.Fprintf(out, "%d. [%s] %s %s\n",
		position, run.AskedAt.Format("2006-01-02 15:04:05"), mark, truncateString(run.Question, 70))

	if run.GeneratedQuery != "" {
		fmt.Fprintf(out, "   Query: %s\n", truncateString(run.GeneratedQuery, 80))
	}

	if run.QueryError != "" {
		fmt.Fprintf(out, "   Error: %s\n", truncateString(run.QueryError, 80))
	}

	fmt.Fprintf(out, "   Duration: %d ms", run.DurationMS)

	if run.QueryRetries > 0 || run.SummaryRetries > 0 {
		fmt.Fprintf(out, "  Retries: query %d, summary %d", run.QueryRetries, run.SummaryRetries)
	}

	fmt.Fprintf(out, "\n\n")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}

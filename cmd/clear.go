package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/history"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the run history",
	Long: `Remove all recorded question runs from the local history database.
This action requires confirmation.

Examples:
  askmongo clear
  askmongo clear --force`,
	Args: cobra.NoArgs,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
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

	return runClearWithRepo(ctx, clearForce, repo, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runClearWithRepo(ctx context.Context, force bool, repo history.Repository, in io.Reader, out io.Writer) error {
	stats, err := repo.GetStats(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeStorage, "failed to get run statistics")
	}

	if stats.TotalRuns == 0 {
		fmt.Fprintln(out, "History is already empty.")
		return nil
	}

	fmt.Fprintf(out, "This will delete:\n")
	fmt.Fprintf(out, "  • %d recorded runs\n", stats.TotalRuns)
	fmt.Fprintf(out, "  • %.2f MB of data\n", stats.DatabaseSizeMB)

	if !force {
		fmt.Fprintf(out, "\nAre you sure you want to clear the run history? This action cannot be undone.\n")
		fmt.Fprintf(out, "Type 'yes' to confirm: ")

		reader := bufio.NewReader(in)

		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return errors.Wrap(err, errors.ErrTypeValidation, "failed to read input")
		}

		response = strings.TrimSpace(strings.ToLower(response))
		if response != "yes" {
			fmt.Fprintln(out, "Operation cancelled.")
			return nil
		}
	}

	if err := repo.Clear(ctx); err != nil {
		return errors.Wrap(err, errors.ErrTypeStorage, "failed to clear run history")
	}

	fmt.Fprintln(out, "Run history cleared successfully.")

	return nil
}

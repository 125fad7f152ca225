package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/seed"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with sample cinema data",
	Long: `Drop and recreate the cinema collections with generated sample data:
movies, theaters, showtimes, customers, tickets, reviews, and staff.

Any existing data in those collections is replaced, so this action
requires confirmation.

Examples:
  askmongo seed
  askmongo seed --force`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVarP(&seedForce, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfigFromContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	client, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	out := cmd.OutOrStdout()

	if !seedForce {
		fmt.Fprintf(out, "This will drop and reseed the cinema collections in %q.\n", client.DatabaseName())
		fmt.Fprintf(out, "Type 'yes' to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())

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

	fmt.Fprintln(out, "Seeding database with sample cinema data...")

	summary, err := seed.New(client.Database(), activeLogger()).Run(ctx)
	if err != nil {
		return err
	}

	printSeedSummary(out, summary)

	return nil
}

func printSeedSummary(out io.Writer, summary *seed.Summary) {
	fmt.Fprintln(out, "\nDatabase seeded successfully:")
	fmt.Fprintf(out, "  Movies: %d\n", summary.Movies)
	fmt.Fprintf(out, "  Theaters: %d\n", summary.Theaters)
	fmt.Fprintf(out, "  Showtimes: %d\n", summary.Showtimes)
	fmt.Fprintf(out, "  Customers: %d\n", summary.Customers)
	fmt.Fprintf(out, "  Tickets: %d\n", summary.Tickets)
	fmt.Fprintf(out, "  Reviews: %d\n", summary.Reviews)
	fmt.Fprintf(out, "  Staff: %d\n", summary.Staff)
}

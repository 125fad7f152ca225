package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/askmongo/askmongo/internal/workflow"
)

// interactiveFieldLimit caps how many fields the interactive schema
// command prints per collection.
const interactiveFieldLimit = 15

const banner = `
╔══════════════════════════════════════════════════════════╗
║                    askmongo                              ║
║   Natural language queries for your MongoDB database     ║
╚══════════════════════════════════════════════════════════╝`

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a natural language question about your data",
	Long: `Answer a single question when one is given, or start an interactive
session when called without arguments.

Examples:
  askmongo ask "How many movies are in the database?"
  askmongo ask "Which theater sold the most tickets this week?"
  askmongo ask`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := GetConfigFromContext(cmd)
	if err != nil {
		return err
	}

	app, cleanup, err := connectApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(args) == 0 {
		return runInteractive(ctx, app, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	return runSingleQuestion(ctx, app, strings.Join(args, " "), cmd.OutOrStdout())
}

func runSingleQuestion(ctx context.Context, app *appContext, question string, out io.Writer) error {
	fmt.Fprintf(out, "\n🔍 Question: %s\n", question)

	record, err := askWithSpinner(ctx, app, question)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s\n", record.FinalAnswer)

	return nil
}

func runInteractive(ctx context.Context, app *appContext, in io.Reader, out io.Writer) error {
	printWelcome(ctx, app, out)

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "\n🔵 Your Question: ")

		if !scanner.Scan() {
			fmt.Fprintln(out, "\n👋 Goodbye!")

			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(question) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "\n👋 Goodbye!")

			return nil
		case "schema":
			printInteractiveSchema(ctx, app, out)

			continue
		case "metrics":
			fmt.Fprintln(out, "\n"+app.metrics.Formatted())

			continue
		case "help":
			printInteractiveHelp(out)

			continue
		}

		record, err := askWithSpinner(ctx, app, question)
		if err != nil {
			fmt.Fprintf(out, "\n❌ Error: %v\n", err)

			continue
		}

		fmt.Fprintf(out, "\n%s\n", record.FinalAnswer)
	}
}

func askWithSpinner(ctx context.Context, app *appContext, question string) (*workflow.Record, error) {
	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Suffix = " Processing your question..."
	spin.Start()

	record, err := app.workflow.AskQuestion(ctx, question)

	spin.Stop()

	return record, err
}

func printWelcome(ctx context.Context, app *appContext, out io.Writer) {
	fmt.Fprintln(out, banner)
	fmt.Fprintf(out, "\n📌 Database: %s\n", app.mongo.DatabaseName())

	schema, err := app.mongo.Schema(ctx)
	if err != nil {
		fmt.Fprintf(out, "⚠️  Could not read database schema: %v\n", err)
	} else {
		fmt.Fprintf(out, "📌 Collections: %d\n", len(schema.Collections))

		for _, coll := range schema.Collections {
			fmt.Fprintf(out, "   - %s (%d documents)\n", coll.Name, coll.DocumentCount)
		}
	}

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(out, "Type your questions in natural language.")
	fmt.Fprintln(out, "Commands: 'schema', 'metrics', 'help', 'quit'")
	fmt.Fprintln(out, strings.Repeat("=", 60))
}

func printInteractiveSchema(ctx context.Context, app *appContext, out io.Writer) {
	schema, err := app.mongo.Schema(ctx)
	if err != nil {
		fmt.Fprintf(out, "Error getting schema: %v\n", err)

		return
	}

	fmt.Fprintln(out, "\n📊 Database Schema:")
	fmt.Fprintln(out, strings.Repeat("-", 40))

	for _, coll := range schema.Collections {
		fmt.Fprintf(out, "\nCollection: %s\n", coll.Name)
		fmt.Fprintf(out, "  Documents: %d\n", coll.DocumentCount)

		if len(coll.SampleFields) == 0 {
			continue
		}

		fmt.Fprintln(out, "  Fields:")

		shown := coll.SampleFields
		if len(shown) > interactiveFieldLimit {
			shown = shown[:interactiveFieldLimit]
		}

		for _, field := range shown {
			fmt.Fprintf(out, "    - %s (%s)\n", field.Field, field.Type)
		}

		if extra := len(coll.SampleFields) - len(shown); extra > 0 {
			fmt.Fprintf(out, "    ... and %d more fields\n", extra)
		}
	}
}

func printInteractiveHelp(out io.Writer) {
	fmt.Fprintln(out, "\n📚 Help:")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintln(out, "Ask questions about your data in natural language.")
	fmt.Fprintln(out, "\nExamples:")
	fmt.Fprintln(out, "  - How many documents are in the movies collection?")
	fmt.Fprintln(out, "  - Show me all showtimes for tomorrow")
	fmt.Fprintln(out, "  - What is the average ticket price?")
	fmt.Fprintln(out, "  - Find customers who joined in 2024")
	fmt.Fprintln(out, "\nCommands:")
	fmt.Fprintln(out, "  schema  - View database structure")
	fmt.Fprintln(out, "  metrics - Show session metrics")
	fmt.Fprintln(out, "  help    - Show this help message")
	fmt.Fprintln(out, "  quit    - Exit the application")
}

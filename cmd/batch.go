package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/workflow"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer a file of questions concurrently",
	Long: `Run every question from a file through the workflow, bounded by the
configured batch concurrency. One question per line; blank lines and
lines starting with # are skipped. Use "-" to read from stdin.

Examples:
  askmongo batch questions.txt
  cat questions.txt | askmongo batch -`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

// askFunc answers a single question. It exists so batch runs can be
// tested without a connected workflow.
type askFunc func(ctx context.Context, question string) (*workflow.Record, error)

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := GetConfigFromContext(cmd)
	if err != nil {
		return err
	}

	questions, err := readQuestions(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	if len(questions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No questions to process.")

		return nil
	}

	app, cleanup, err := connectApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runBatchQuestions(
		ctx,
		app.workflow.AskQuestion,
		questions,
		cfg.Workflow.BatchConcurrency,
		cmd.OutOrStdout(),
	)

	return nil
}

// runBatchQuestions fans the questions out over concurrent workflow
// runs and prints the answers in input order.
func runBatchQuestions(ctx context.Context, ask askFunc, questions []string, maxConcurrent int, out io.Writer) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	fmt.Fprintf(out, "Processing %d questions (concurrency %d)...\n", len(questions), maxConcurrent)

	answers := make([]string, len(questions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, question := range questions {
		i, question := i, question

		g.Go(func() error {
			record, err := ask(ctx, question)
			if err != nil {
				answers[i] = fmt.Sprintf("Error: %v", err)

				return nil
			}

			answers[i] = record.FinalAnswer

			return nil
		})
	}

	_ = g.Wait()

	for i, question := range questions {
		fmt.Fprintf(out, "\n%d. %s\n", i+1, question)
		fmt.Fprintf(out, "   %s\n", strings.ReplaceAll(answers[i], "\n", "\n   "))
	}
}

// readQuestions loads one question per line, skipping blanks and
// # comments. A path of "-" reads from stdin.
func readQuestions(path string, stdin io.Reader) ([]string, error) {
	var reader io.Reader

	if path == "-" {
		reader = stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeValidation, "failed to open questions file")
		}
		defer file.Close()

		reader = file
	}

	var questions []string

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		questions = append(questions, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeValidation, "failed to read questions")
	}

	return questions, nil
}

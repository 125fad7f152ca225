package llm

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency caps concurrent completions in BatchComplete
// when no explicit limit is given.
const DefaultBatchConcurrency = 3

// Prompt is one item in a batch completion.
type Prompt struct {
	Messages []Message
	Options  Options
}

// BatchComplete fans prompts out over the client with bounded
// concurrency. Results align with the input by index; a failed item
// leaves an empty string placeholder rather than failing the batch.
func BatchComplete(ctx context.Context, client Client, prompts []Prompt, maxConcurrent int) []string {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultBatchConcurrency
	}

	results := make([]string, len(prompts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, p := range prompts {
		i, p := i, p

		g.Go(func() error {
			out, err := client.Complete(ctx, p.Messages, p.Options)
			if err != nil {
				return nil
			}

			results[i] = out

			return nil
		})
	}

	_ = g.Wait()

	return results
}

package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/askmongo/askmongo/internal/mongodb"
	"github.com/askmongo/askmongo/internal/prompts"
	"github.com/askmongo/askmongo/internal/shellquery"
)

// minQuestionLength is the fewest characters a question may have after
// trimming.
const minQuestionLength = 5

// unsafePatterns reject questions that read like injection attempts
// rather than data questions.
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$where\s*:`),
	regexp.MustCompile(`(?i)function\s*\(`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)db\.(drop|remove|delete)`),
	regexp.MustCompile(`(?i)db\.admin`),
}

// validateInput checks the question, normalizes its whitespace, and
// captures the schema context for the prompts that follow. A schema
// fetch failure does not fail the run; the prompts simply note that
// schema information is unavailable.
func (w *Workflow) validateInput(ctx context.Context, state *State) {
	question := strings.TrimSpace(state.Question)

	if question == "" {
		state.IsValid = false
		state.ValidationError = "Question cannot be empty. Please provide a valid question about your data."
		state.FinalAnswer = "Error: No question provided."

		return
	}

	if utf8.RuneCountInString(question) < minQuestionLength {
		state.IsValid = false
		state.ValidationError = "Question is too short. Please provide more details."
		state.FinalAnswer = "Error: Question is too short. Please provide more details."

		return
	}

	for _, pattern := range unsafePatterns {
		if pattern.MatchString(question) {
			state.IsValid = false
			state.ValidationError = "Question contains potentially unsafe content."
			state.FinalAnswer = "Error: Question contains potentially unsafe patterns."

			return
		}
	}

	state.ValidatedQuestion = strings.Join(strings.Fields(question), " ")
	state.IsValid = true
	state.ValidationError = ""

	schema, err := w.store.Schema(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("Schema introspection failed, continuing without schema context")

		schema = &mongodb.SchemaInfo{Error: err.Error()}
	}

	state.SchemaText = prompts.FormatSchema(schema)
}

// generateQuery asks the LLM for a mongosh statement. On a retry the
// counter advances before the call so the validator's ceiling check
// observes it. An LLM failure here ends the run.
func (w *Workflow) generateQuery(ctx context.Context, state *State) {
	if state.QueryHallucinationDetected {
		state.QueryRetryCount++

		if w.metrics != nil {
			w.metrics.RecordQueryRetry()
		}

		w.logger.WithField("attempt", state.QueryRetryCount).Info("Regenerating query after hallucination")
	}

	msgs, opts := prompts.BuildQueryGeneration(state.SchemaText, prompts.CurrentDate(), state.ValidatedQuestion)

	response, err := w.llm.Complete(ctx, msgs, opts)
	if err != nil {
		state.GeneratedQuery = ""
		state.QueryError = err.Error()
		state.FinalAnswer = fmt.Sprintf("Error calling LLM API: %v", err)
		state.generationFailed = true

		w.logger.WithError(err).Error("Query generation failed")

		return
	}

	state.GeneratedQuery = shellquery.Clean(response)
	state.QueryHallucinationDetected = false

	w.logger.WithField("query", state.GeneratedQuery).Debug("Generated query")
}

// checkQuery validates the generated query against the schema. At the
// retry ceiling the query is accepted unchecked, and any validator
// failure also falls open to acceptance.
func (w *Workflow) checkQuery(ctx context.Context, state *State) {
	if state.QueryRetryCount >= state.MaxRetries {
		state.QueryHallucinationDetected = false

		return
	}

	if state.GeneratedQuery == "" {
		state.QueryHallucinationDetected = false

		return
	}

	msgs, opts := prompts.BuildQueryHallucination(state.SchemaText, state.ValidatedQuestion, state.GeneratedQuery)

	response, err := w.llm.Complete(ctx, msgs, opts)
	if err != nil {
		w.logger.WithError(err).Warn("Query validation failed, accepting query")

		state.QueryHallucinationDetected = false

		return
	}

	state.QueryHallucinationDetected = !prompts.IsValidVerdict(response)

	if state.QueryHallucinationDetected {
		if w.metrics != nil {
			w.metrics.RecordQueryHallucination()
		}

		w.logger.WithField("verdict", response).Info("Hallucination detected in generated query")
	}
}

// executeQuery runs the accepted query. All failures, parse errors
// included, land in QueryError; nothing is raised.
func (w *Workflow) executeQuery(ctx context.Context, state *State) {
	if state.GeneratedQuery == "" {
		state.QuerySuccess = false
		state.QueryError = "No query was generated"
		state.FinalAnswer = "Error: Could not generate a valid query for your question."

		return
	}

	result := w.store.ExecuteShell(ctx, state.GeneratedQuery)

	if result.Succeeded() {
		state.QuerySuccess = true
		state.QueryResult = result
		state.QueryError = ""
		state.FinalAnswer = "" // summarization fills this in

		return
	}

	state.QuerySuccess = false
	state.QueryResult = nil
	state.QueryError = result.Err
	state.FinalAnswer = fmt.Sprintf("Query execution failed: %s", result.Err)

	w.logger.WithField("error", result.Err).Warn("Query execution failed")
}

// summarize turns the execution outcome into a natural language
// answer. Failed queries and missing results short-circuit without an
// LLM call; empty results get their own explanation prompt.
func (w *Workflow) summarize(ctx context.Context, state *State) {
	if state.SummaryHallucinationDetected {
		state.SummaryRetryCount++

		if w.metrics != nil {
			w.metrics.RecordSummaryRetry()
		}

		w.logger.WithField("attempt", state.SummaryRetryCount).Info("Regenerating summary after hallucination")
	}

	if !state.QuerySuccess {
		errMsg := state.QueryError
		if errMsg == "" {
			errMsg = "Query execution failed"
		}

		state.SummarizedAnswer = fmt.Sprintf("I encountered an error while processing your question: %s", errMsg)
		state.FinalAnswer = fmt.Sprintf("Error: %s", errMsg)

		return
	}

	if state.QueryResult == nil {
		state.SummarizedAnswer = "I couldn't retrieve any results for your query."
		state.FinalAnswer = "No results found for your query."

		return
	}

	if !state.QueryResult.IsCount && len(state.QueryResult.Documents) == 0 {
		w.summarizeEmptyResult(ctx, state)

		return
	}

	resultsText := prompts.FormatResultsForSummarization(state.QueryResult, prompts.SummaryMaxItems, prompts.SummaryMaxLength)
	msgs, opts := prompts.BuildSummarization(state.ValidatedQuestion, resultsText, state.GeneratedQuery)

	summary, err := w.llm.Complete(ctx, msgs, opts)
	if err != nil {
		w.logger.WithError(err).Warn("Summarization failed, falling back to raw results")

		state.SummarizedAnswer = ""
		state.SummaryHallucinationDetected = false

		if state.FinalAnswer == "" {
			state.FinalAnswer = fmt.Sprintf("Error during summarization: %v", err)
		}

		return
	}

	state.SummarizedAnswer = summary
	state.SummaryHallucinationDetected = false
	state.FinalAnswer = summary + "\n\n" + strings.Repeat("=", 60) + "\n📊 Detailed Results:\n" + strings.Repeat("=", 60) + "\n" +
		prompts.FormatResults(state.QueryResult, state.ValidatedQuestion, state.GeneratedQuery)
}

// summarizeEmptyResult still asks the LLM to phrase the empty outcome;
// if that call fails a canned explanation stands in.
func (w *Workflow) summarizeEmptyResult(ctx context.Context, state *State) {
	msgs, opts := prompts.BuildEmptyResultSummary(state.ValidatedQuestion, state.GeneratedQuery)

	summary, err := w.llm.Complete(ctx, msgs, opts)
	if err != nil {
		w.logger.WithError(err).Warn("Empty-result summarization failed, using fallback answer")

		state.SummarizedAnswer = "No results were found matching your query criteria."
		state.FinalAnswer = fmt.Sprintf("No results found.\n\nQuery: %s", state.GeneratedQuery)

		return
	}

	state.SummarizedAnswer = summary
	state.SummaryHallucinationDetected = false
	state.FinalAnswer = fmt.Sprintf("%s\n\n%s\n📊 Query Details:\n%s\nQuery: %s\n\nNo documents found matching your query.",
		summary, strings.Repeat("=", 60), strings.Repeat("=", 60), state.GeneratedQuery)
}

// checkSummary fact-checks the summary against the results that
// produced it, with the same ceiling and fail-open rules as checkQuery.
func (w *Workflow) checkSummary(ctx context.Context, state *State) {
	if state.SummaryRetryCount >= state.MaxRetries {
		state.SummaryHallucinationDetected = false

		return
	}

	if state.SummarizedAnswer == "" || state.QueryResult == nil {
		state.SummaryHallucinationDetected = false

		return
	}

	resultsText := prompts.FormatResultsForSummarization(state.QueryResult, prompts.ValidatorMaxItems, prompts.ValidatorMaxLength)
	msgs, opts := prompts.BuildSummaryHallucination(state.ValidatedQuestion, resultsText, state.SummarizedAnswer)

	response, err := w.llm.Complete(ctx, msgs, opts)
	if err != nil {
		w.logger.WithError(err).Warn("Summary validation failed, accepting summary")

		state.SummaryHallucinationDetected = false

		return
	}

	state.SummaryHallucinationDetected = !prompts.IsValidVerdict(response)

	if state.SummaryHallucinationDetected {
		if w.metrics != nil {
			w.metrics.RecordSummaryHallucination()
		}

		w.logger.WithField("verdict", response).Info("Hallucination detected in summary")
	}
}

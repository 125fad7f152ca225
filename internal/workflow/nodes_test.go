package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askmongo/askmongo/internal/mongodb"
	"github.com/askmongo/askmongo/internal/monitor"
)

// generatorCalls counts LLM calls made with the query generation
// options. Generation is the only prompt using 1000 max tokens.
func generatorCalls(client *scriptedLLM) int {
	n := 0

	for _, call := range client.calls {
		if call.options.MaxTokens == 1000 {
			n++
		}
	}

	return n
}

func TestAskQuestionQueryRetry(t *testing.T) {
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}
	client := &scriptedLLM{t: t, replies: []llmReply{
		{content: `db.movies.find({"nonexistent": true})`},
		{content: "HALLUCINATION: the field nonexistent does not exist"},
		{content: "db.movies.find({})"},
		{content: "VALID"},
		{content: "Two movies."},
		{content: "VALID"},
	}}

	w := newTestWorkflow(t, store, client)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	assert.Equal(t, 1, record.QueryRetries)
	assert.Equal(t, "db.movies.find({})", record.GeneratedQuery)
	assert.True(t, record.QuerySuccess)

	// Only the accepted query reaches the database.
	assert.Equal(t, []string{"db.movies.find({})"}, store.executed)
}

func TestAskQuestionQueryRetryCeiling(t *testing.T) {
	// With a ceiling of 3 and a validator that always rejects, the
	// generator runs exactly 4 times (1 initial + 3 retries) and the
	// 4th query is accepted without a validation call.
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}

	var replies []llmReply
	for attempt := 1; attempt <= 3; attempt++ {
		replies = append(replies,
			llmReply{content: fmt.Sprintf(`db.movies.find({"attempt": %d})`, attempt)},
			llmReply{content: "HALLUCINATION: made-up field"},
		)
	}
	replies = append(replies,
		llmReply{content: `db.movies.find({"attempt": 4})`},
		llmReply{content: "Two movies."},
		llmReply{content: "VALID"},
	)

	client := &scriptedLLM{t: t, replies: replies}
	metrics := monitor.NewCollector()

	w, err := New(Config{Store: store, LLM: client, Metrics: metrics, Logger: testLogger(t)})
	require.NoError(t, err)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	assert.Equal(t, 4, generatorCalls(client))
	assert.Equal(t, 3, record.QueryRetries)
	assert.Equal(t, `db.movies.find({"attempt": 4})`, record.GeneratedQuery)
	assert.True(t, record.QuerySuccess)
	assert.Equal(t, []string{`db.movies.find({"attempt": 4})`}, store.executed)

	// 4 generations + 3 validations + 1 summary + 1 summary check.
	assert.Len(t, client.calls, 9)

	stats := metrics.Snapshot()
	assert.Equal(t, int64(3), stats.QueryHallucinations)
	assert.Equal(t, int64(3), stats.QueryRetries)
}

func TestAskQuestionQueryValidatorFailsOpen(t *testing.T) {
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}
	client := &scriptedLLM{t: t, replies: []llmReply{
		{content: "db.movies.find({})"},
		{err: errors.New("rate limited")},
		{content: "Two movies."},
		{content: "VALID"},
	}}

	w := newTestWorkflow(t, store, client)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	// A validator failure accepts the query instead of retrying.
	assert.Zero(t, record.QueryRetries)
	assert.True(t, record.QuerySuccess)
	assert.Len(t, client.calls, 4)
}

func TestAskQuestionAmbiguousVerdictTriggersRetry(t *testing.T) {
	// Anything that does not start with VALID counts as a rejection,
	// including prose that merely contains the word.
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}
	client := &scriptedLLM{t: t, replies: []llmReply{
		{content: "db.movies.find({})"},
		{content: "The query looks valid to me."},
		{content: "db.movies.find({})"},
		{content: "valid"},
		{content: "Two movies."},
		{content: "VALID"},
	}}

	w := newTestWorkflow(t, store, client)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	// First verdict rejects, the lowercase "valid" on retry accepts.
	assert.Equal(t, 1, record.QueryRetries)
	assert.True(t, record.QuerySuccess)
}

func TestAskQuestionSummaryRetry(t *testing.T) {
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}
	client := &scriptedLLM{t: t, replies: []llmReply{
		{content: "db.movies.find({})"},
		{content: "VALID"},
		{content: "There are seventeen movies."},
		{content: "HALLUCINATION: the data shows 2 movies, not 17"},
		{content: "There are 2 movies."},
		{content: "VALID"},
	}}

	w := newTestWorkflow(t, store, client)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	assert.Equal(t, 1, record.SummaryRetries)
	assert.Equal(t, "There are 2 movies.", record.SummarizedAnswer)
	assert.Contains(t, record.FinalAnswer, "There are 2 movies.")
	assert.NotContains(t, record.FinalAnswer, "seventeen")
}

func TestAskQuestionSummaryRetryCeiling(t *testing.T) {
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}

	replies := []llmReply{
		{content: "db.movies.find({})"},
		{content: "VALID"},
	}
	for attempt := 1; attempt <= 3; attempt++ {
		replies = append(replies,
			llmReply{content: fmt.Sprintf("Summary attempt %d.", attempt)},
			llmReply{content: "HALLUCINATION: numbers do not match"},
		)
	}
	replies = append(replies, llmReply{content: "Summary attempt 4."})

	client := &scriptedLLM{t: t, replies: replies}
	metrics := monitor.NewCollector()

	w, err := New(Config{Store: store, LLM: client, Metrics: metrics, Logger: testLogger(t)})
	require.NoError(t, err)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	// The 4th summary is accepted without a validation call.
	assert.Equal(t, 3, record.SummaryRetries)
	assert.Equal(t, "Summary attempt 4.", record.SummarizedAnswer)
	assert.Len(t, client.calls, 9)

	stats := metrics.Snapshot()
	assert.Equal(t, int64(3), stats.SummaryHallucinations)
	assert.Equal(t, int64(3), stats.SummaryRetries)
}

func TestAskQuestionSummaryValidatorFailsOpen(t *testing.T) {
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}
	client := &scriptedLLM{t: t, replies: []llmReply{
		{content: "db.movies.find({})"},
		{content: "VALID"},
		{content: "Two movies."},
		{err: errors.New("rate limited")},
	}}

	w := newTestWorkflow(t, store, client)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	assert.Zero(t, record.SummaryRetries)
	assert.Equal(t, "Two movies.", record.SummarizedAnswer)
	assert.Len(t, client.calls, 4)
}

func TestAskQuestionSummarizationFailureFallsBack(t *testing.T) {
	store := &fakeStore{result: &mongodb.Result{Documents: movieDocs(), Count: 2}}
	client := &scriptedLLM{t: t, replies: []llmReply{
		{content: "db.movies.find({})"},
		{content: "VALID"},
		{err: errors.New("model overloaded")},
	}}

	w := newTestWorkflow(t, store, client)

	record, err := w.AskQuestion(context.Background(), "How many movies are there?")
	require.NoError(t, err)

	assert.True(t, record.QuerySuccess)
	assert.Empty(t, record.SummarizedAnswer)
	assert.Equal(t, "Error during summarization: model overloaded", record.FinalAnswer)

	// No summary means nothing to fact-check.
	assert.Len(t, client.calls, 3)
}

func TestAskQuestionEmptyResultSummarizationFailure(t *testing.T) {
	store := &fakeStore{result: &mongodb.Result{Documents: []map[string]any{}}}
	client := &scriptedLLM{t: t, replies: []llmReply{
		{content: `db.movies.find({"year": 1850})`},
		{content: "VALID"},
		{err: errors.New("model overloaded")},
		{content: "VALID"},
	}}

	w := newTestWorkflow(t, store, client)

	record, err := w.AskQuestion(context.Background(), "Which movies are from 1850?")
	require.NoError(t, err)

	assert.Equal(t, "No results were found matching your query criteria.", record.SummarizedAnswer)
	assert.Equal(t, "No results found.\n\nQuery: db.movies.find({\"year\": 1850})", record.FinalAnswer)

	// The canned summary still goes through fact-checking.
	assert.Len(t, client.calls, 4)
}

func TestNextRouting(t *testing.T) {
	tests := []struct {
		name   string
		stage  stage
		mutate func(*State)
		want   stage
	}{
		{
			name:  "invalid input ends the run",
			stage: stageValidate,
			mutate: func(s *State) {
				s.IsValid = false
			},
			want: stageDone,
		},
		{
			name:  "valid input proceeds to generation",
			stage: stageValidate,
			mutate: func(s *State) {
				s.IsValid = true
			},
			want: stageGenerate,
		},
		{
			name:  "generation failure ends the run",
			stage: stageGenerate,
			mutate: func(s *State) {
				s.generationFailed = true
			},
			want: stageDone,
		},
		{
			name:   "generation success proceeds to query check",
			stage:  stageGenerate,
			mutate: func(s *State) {},
			want:   stageCheckQuery,
		},
		{
			name:  "hallucinated query under the ceiling regenerates",
			stage: stageCheckQuery,
			mutate: func(s *State) {
				s.QueryHallucinationDetected = true
				s.QueryRetryCount = 2
			},
			want: stageGenerate,
		},
		{
			name:  "hallucinated query at the ceiling executes anyway",
			stage: stageCheckQuery,
			mutate: func(s *State) {
				s.QueryHallucinationDetected = true
				s.QueryRetryCount = 3
			},
			want: stageExecute,
		},
		{
			name:   "accepted query executes",
			stage:  stageCheckQuery,
			mutate: func(s *State) {},
			want:   stageExecute,
		},
		{
			name:   "execution always summarizes",
			stage:  stageExecute,
			mutate: func(s *State) {},
			want:   stageSummarize,
		},
		{
			name:   "summary always gets checked",
			stage:  stageSummarize,
			mutate: func(s *State) {},
			want:   stageCheckSummary,
		},
		{
			name:  "hallucinated summary under the ceiling resummarizes",
			stage: stageCheckSummary,
			mutate: func(s *State) {
				s.SummaryHallucinationDetected = true
				s.SummaryRetryCount = 0
			},
			want: stageSummarize,
		},
		{
			name:   "accepted summary ends the run",
			stage:  stageCheckSummary,
			mutate: func(s *State) {},
			want:   stageDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newState("how many movies are there?", DefaultMaxRetries)
			tt.mutate(state)

			assert.Equal(t, tt.want, next(tt.stage, state))
		})
	}
}

func TestStageNames(t *testing.T) {
	names := map[stage]string{
		stageValidate:     "validate_input",
		stageGenerate:     "generate_query",
		stageCheckQuery:   "check_query",
		stageExecute:      "execute_query",
		stageSummarize:    "summarize",
		stageCheckSummary: "check_summary",
		stageDone:         "done",
	}

	for s, want := range names {
		assert.Equal(t, want, s.String())
	}
}

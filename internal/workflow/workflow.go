// Package workflow drives a question through input validation, query
// generation, hallucination checking, execution, and summarization.
// The flow is a small state machine:
//
//	validate -> generate -> check query -> execute -> summarize -> check summary -> done
//	               ^            |                        ^              |
//	               +-- retry ---+                        +--- retry ----+
//
// Invalid input and query-generation failure end the run early. Every
// node failure is absorbed into the run's state; AskQuestion always
// returns a fully populated record.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/history"
	"github.com/askmongo/askmongo/internal/llm"
	"github.com/askmongo/askmongo/internal/logging"
	"github.com/askmongo/askmongo/internal/mongodb"
	"github.com/askmongo/askmongo/internal/monitor"
)

// DefaultMaxRetries bounds hallucination-driven regeneration per stage.
const DefaultMaxRetries = 3

// Store is the database surface the workflow consumes.
type Store interface {
	Schema(ctx context.Context) (*mongodb.SchemaInfo, error)
	ExecuteShell(ctx context.Context, query string) *mongodb.Result
}

// Config carries the workflow's dependencies. Store and LLM are
// required; the rest are optional.
type Config struct {
	Store      Store
	LLM        llm.Client
	Metrics    *monitor.Collector
	History    history.Repository
	Logger     *logging.Logger
	MaxRetries int
}

// Workflow answers natural language questions about a MongoDB
// database.
type Workflow struct {
	store      Store
	llm        llm.Client
	metrics    *monitor.Collector
	history    history.Repository
	logger     *logging.Logger
	maxRetries int
}

// New creates a workflow from its dependencies.
func New(cfg Config) (*Workflow, error) {
	if cfg.Store == nil {
		return nil, errors.New(errors.ErrTypeConfig, "workflow requires a MongoDB store")
	}

	if cfg.LLM == nil {
		return nil, errors.New(errors.ErrTypeConfig, "workflow requires an LLM client")
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	if cfg.Logger == nil {
		cfg.Logger = logging.NewFallbackLogger()
	}

	return &Workflow{
		store:      cfg.Store,
		llm:        cfg.LLM,
		metrics:    cfg.Metrics,
		history:    cfg.History,
		logger:     cfg.Logger,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// AskQuestion runs the full workflow for one question. Node failures
// never surface as errors; they are folded into the returned record.
func (w *Workflow) AskQuestion(ctx context.Context, question string) (*Record, error) {
	if w.store == nil || w.llm == nil {
		return nil, errors.New(errors.ErrTypeConfig, "workflow is not configured")
	}

	start := time.Now()
	state := newState(question, w.maxRetries)

	w.run(ctx, state)

	record := state.record()
	record.RunID = uuid.New().String()
	record.Duration = time.Since(start)
	record.DurationMS = record.Duration.Milliseconds()

	if w.metrics != nil {
		w.metrics.RecordQuery(state.QuerySuccess, record.Duration)
	}

	if w.history != nil {
		if err := w.history.RecordRun(ctx, historyRun(record)); err != nil {
			w.logger.WithError(err).Warn("Failed to record run history")
		}
	}

	w.logger.WithFields(map[string]interface{}{
		"run_id":   record.RunID,
		"success":  record.QuerySuccess,
		"duration": record.Duration,
	}).Info("Question answered")

	return record, nil
}

// run drives the state machine to completion. The step bound covers
// the worst case of full retries in both stages; hitting it means a
// routing bug, not a long run.
func (w *Workflow) run(ctx context.Context, state *State) {
	maxSteps := 4*state.MaxRetries + 10
	current := stageValidate

	for step := 0; current != stageDone; step++ {
		if step >= maxSteps {
			w.logger.WithField("stage", current.String()).Error("Workflow exceeded step bound, stopping")

			break
		}

		w.logger.WithField("stage", current.String()).Debug("Entering workflow stage")

		switch current {
		case stageValidate:
			w.validateInput(ctx, state)
		case stageGenerate:
			w.generateQuery(ctx, state)
		case stageCheckQuery:
			w.checkQuery(ctx, state)
		case stageExecute:
			w.executeQuery(ctx, state)
		case stageSummarize:
			w.summarize(ctx, state)
		case stageCheckSummary:
			w.checkSummary(ctx, state)
		}

		current = next(current, state)
	}
}

// next routes between stages. Retries loop back to the producing
// stage only while a hallucination is flagged below the ceiling.
func next(current stage, state *State) stage {
	switch current {
	case stageValidate:
		if !state.IsValid {
			return stageDone
		}

		return stageGenerate
	case stageGenerate:
		if state.generationFailed {
			return stageDone
		}

		return stageCheckQuery
	case stageCheckQuery:
		if state.QueryHallucinationDetected && state.QueryRetryCount < state.MaxRetries {
			return stageGenerate
		}

		return stageExecute
	case stageExecute:
		return stageSummarize
	case stageSummarize:
		return stageCheckSummary
	case stageCheckSummary:
		if state.SummaryHallucinationDetected && state.SummaryRetryCount < state.MaxRetries {
			return stageSummarize
		}

		return stageDone
	default:
		return stageDone
	}
}

// historyRun maps a finished record onto its persisted form.
func historyRun(record *Record) history.Run {
	return history.Run{
		ID:                record.RunID,
		AskedAt:           time.Now(),
		Question:          record.Question,
		ValidatedQuestion: record.ValidatedQuestion,
		IsValid:           record.IsValid,
		GeneratedQuery:    record.GeneratedQuery,
		QuerySuccess:      record.QuerySuccess,
		QueryError:        record.QueryError,
		Answer:            record.FinalAnswer,
		SummarizedAnswer:  record.SummarizedAnswer,
		QueryRetries:      record.QueryRetries,
		SummaryRetries:    record.SummaryRetries,
		DurationMS:        record.DurationMS,
	}
}

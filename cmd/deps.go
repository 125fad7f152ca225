package cmd

import (
	"context"

	"github.com/askmongo/askmongo/internal/config"
	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/history"
	"github.com/askmongo/askmongo/internal/llm"
	"github.com/askmongo/askmongo/internal/logging"
	"github.com/askmongo/askmongo/internal/mongodb"
	"github.com/askmongo/askmongo/internal/monitor"
	"github.com/askmongo/askmongo/internal/workflow"
)

// appContext bundles the connected dependencies of a question-answering
// session.
type appContext struct {
	cfg      *config.Config
	mongo    *mongodb.Client
	metrics  *monitor.Collector
	history  history.Repository
	workflow *workflow.Workflow
	logger   *logging.Logger
}

// connectApp builds the full stack: MongoDB connection, rate-limited
// LLM client, metrics, optional run history, and the workflow. The
// returned cleanup closes everything.
func connectApp(ctx context.Context, cfg *config.Config) (*appContext, func(), error) {
	if err := cfg.ValidateRequired(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrTypeConfig, "configuration incomplete").
			WithSuggestion("Create a .env file with MONGODB_URI, MONGODB_DATABASE, and LLM_API_KEY").
			WithSuggestion("Run 'askmongo config' to inspect the active configuration")
	}

	logger := activeLogger()

	mongo, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}

	metrics := monitor.NewCollector()

	client := llm.NewRateLimited(llm.NewOpenAIClient(cfg.LLM), cfg.RateLimit)
	client.OnCall = metrics.RecordAPICall

	app := &appContext{
		cfg:     cfg,
		mongo:   mongo,
		metrics: metrics,
		logger:  logger,
	}

	// History is best effort; a broken local store never blocks asking.
	if cfg.History.Enabled {
		repo, err := openHistory(ctx, cfg)
		if err != nil {
			logger.WithError(err).Warn("Run history unavailable, continuing without it")
		} else {
			app.history = repo
		}
	}

	wf, err := workflow.New(workflow.Config{
		Store:      mongo,
		LLM:        client,
		Metrics:    metrics,
		History:    app.history,
		Logger:     logger,
		MaxRetries: cfg.Workflow.MaxRetries,
	})
	if err != nil {
		closeApp(app)

		return nil, nil, err
	}

	app.workflow = wf

	return app, func() { closeApp(app) }, nil
}

func closeApp(app *appContext) {
	if app.history != nil {
		_ = app.history.Close()
	}

	_ = app.mongo.Close(context.Background())
}

// connectMongo builds just the MongoDB connection, for commands that
// never call the LLM.
func connectMongo(ctx context.Context, cfg *config.Config) (*mongodb.Client, error) {
	if cfg.Mongo.URI == "" || cfg.Mongo.Database == "" {
		return nil, errors.New(errors.ErrTypeConfig, "MONGODB_URI and MONGODB_DATABASE must be set").
			WithSuggestion("Create a .env file or export the variables").
			WithSuggestion("Run 'askmongo config' to inspect the active configuration")
	}

	return mongodb.Connect(ctx, cfg.Mongo)
}

// openHistory opens and initializes the run history store.
func openHistory(ctx context.Context, cfg *config.Config) (history.Repository, error) {
	if !cfg.History.Enabled {
		return nil, errors.New(errors.ErrTypeConfig, "run history is disabled").
			WithSuggestion("Set ASKMONGO_HISTORY_ENABLED=true to enable it")
	}

	repo, err := history.NewDuckDBRepository(cfg.History.Path)
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(ctx); err != nil {
		_ = repo.Close()

		return nil, err
	}

	return repo, nil
}

func activeLogger() *logging.Logger {
	if logger := logging.GetLogger(); logger != nil {
		return logger
	}

	return logging.NewFallbackLogger()
}

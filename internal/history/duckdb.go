package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// recentDayWindow bounds the per-day breakdown in GetStats.
const recentDayWindow = 7

// DuckDBRepository implements the Repository interface using DuckDB
type DuckDBRepository struct {
	db   *sql.DB
	path string
}

// NewDuckDBRepository creates a new DuckDB repository instance with connection pooling
func NewDuckDBRepository(dbPath string) (*DuckDBRepository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DuckDBRepository{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema using migrations
func (r *DuckDBRepository) Initialize(ctx context.Context) error {
	return NewMigrationManager(r.db).MigrateUp(ctx)
}

// RecordRun persists one workflow run. A run ID is assigned when the
// caller did not set one.
func (r *DuckDBRepository) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.AskedAt.IsZero() {
		run.AskedAt = time.Now()
	}

	insertSQL := `
	INSERT INTO runs (
		id, asked_at, question, validated_question, is_valid,
		generated_query, query_success, query_error,
		answer, summarized_answer,
		query_retries, summary_retries, duration_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, insertSQL,
		run.ID,
		run.AskedAt,
		run.Question,
		run.ValidatedQuestion,
		run.IsValid,
		run.GeneratedQuery,
		run.QuerySuccess,
		run.QueryError,
		run.Answer,
		run.SummarizedAnswer,
		run.QueryRetries,
		run.SummaryRetries,
		run.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// ListRuns returns stored runs, newest first.
func (r *DuckDBRepository) ListRuns(ctx context.Context, limit, offset int) ([]Run, error) {
	query := `
	SELECT id, asked_at, question, validated_question, is_valid,
		   generated_query, query_success, query_error,
		   answer, summarized_answer,
		   query_retries, summary_retries, duration_ms
	FROM runs
	ORDER BY asked_at DESC, id
	LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var run Run

		err := rows.Scan(
			&run.ID, &run.AskedAt, &run.Question, &run.ValidatedQuestion, &run.IsValid,
			&run.GeneratedQuery, &run.QuerySuccess, &run.QueryError,
			&run.Answer, &run.SummarizedAnswer,
			&run.QueryRetries, &run.SummaryRetries, &run.DurationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetStats summarizes the stored history.
func (r *DuckDBRepository) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		RunsPerDay: make(map[string]int),
	}

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get run count: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM runs WHERE query_success").Scan(&stats.SuccessfulRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get success count: %w", err)
	}

	if stats.TotalRuns > 0 {
		stats.SuccessRate = float64(stats.SuccessfulRuns) / float64(stats.TotalRuns) * 100
	}

	var avgDuration *float64

	err = r.db.QueryRowContext(ctx, "SELECT AVG(duration_ms) FROM runs").Scan(&avgDuration)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get average duration: %w", err)
	}

	if avgDuration != nil {
		stats.AverageDurationMS = *avgDuration
	}

	var lastAsked *time.Time

	err = r.db.QueryRowContext(ctx, "SELECT MAX(asked_at) FROM runs").Scan(&lastAsked)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last asked time: %w", err)
	}

	if lastAsked != nil {
		stats.LastAskedAt = *lastAsked
	}

	if info, err := os.Stat(r.path); err == nil {
		stats.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	cutoff := time.Now().AddDate(0, 0, -recentDayWindow)

	dayRows, err := r.db.QueryContext(ctx, `
		SELECT CAST(asked_at AS DATE) AS day, COUNT(*)
		FROM runs
		WHERE asked_at >= ?
		GROUP BY day
		ORDER BY day DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get per-day counts: %w", err)
	}
	defer dayRows.Close()

	for dayRows.Next() {
		var day time.Time

		var count int
		if err := dayRows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan per-day count: %w", err)
		}

		stats.RunsPerDay[day.Format("2006-01-02")] = count
	}

	return stats, dayRows.Err()
}

// Clear removes all stored runs.
func (r *DuckDBRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM runs")
	if err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (r *DuckDBRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}

	return nil
}

package history

import (
	"context"
	"time"
)

// Repository defines the interface for run-history persistence.
type Repository interface {
	Initialize(ctx context.Context) error
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit, offset int) ([]Run, error)
	GetStats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Run is one question-answering workflow execution as stored in the
// database.
type Run struct {
	ID                string    `json:"id"`
	AskedAt           time.Time `json:"asked_at"`
	Question          string    `json:"question"`
	ValidatedQuestion string    `json:"validated_question"`
	IsValid           bool      `json:"is_valid"`
	GeneratedQuery    string    `json:"generated_query"`
	QuerySuccess      bool      `json:"query_success"`
	QueryError        string    `json:"query_error,omitempty"`
	Answer            string    `json:"answer"`
	SummarizedAnswer  string    `json:"summarized_answer"`
	QueryRetries      int       `json:"query_retries"`
	SummaryRetries    int       `json:"summary_retries"`
	DurationMS        int64     `json:"duration_ms"`
}

// Stats summarizes the stored run history.
type Stats struct {
	TotalRuns         int            `json:"total_runs"`
	SuccessfulRuns    int            `json:"successful_runs"`
	SuccessRate       float64        `json:"success_rate"`
	AverageDurationMS float64        `json:"average_duration_ms"`
	LastAskedAt       time.Time      `json:"last_asked_at"`
	RunsPerDay        map[string]int `json:"runs_per_day"`
	DatabaseSizeMB    float64        `json:"database_size_mb"`
}

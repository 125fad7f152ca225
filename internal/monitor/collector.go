package monitor

import (
	"fmt"
	"sync"
	"time"
)

// Collector accumulates per-session workflow metrics. All methods are
// safe for concurrent use.
type Collector struct {
	mu sync.RWMutex

	totalQueries          int64
	successfulQueries     int64
	failedQueries         int64
	queryHallucinations   int64
	summaryHallucinations int64
	queryRetries          int64
	summaryRetries        int64
	apiCalls              int64
	totalQueryTime        time.Duration
	lastQueryAt           time.Time
}

// Stats is a point-in-time snapshot of collected metrics.
type Stats struct {
	TotalQueries          int64     `json:"total_queries"`
	SuccessfulQueries     int64     `json:"successful_queries"`
	FailedQueries         int64     `json:"failed_queries"`
	QueryHallucinations   int64     `json:"query_hallucinations"`
	SummaryHallucinations int64     `json:"summary_hallucinations"`
	QueryRetries          int64     `json:"query_retries"`
	SummaryRetries        int64     `json:"summary_retries"`
	APICalls              int64     `json:"api_calls"`
	AverageQueryTimeMS    float64   `json:"average_query_time_ms"`
	SuccessRate           float64   `json:"success_rate"`
	FailureRate           float64   `json:"failure_rate"`
	LastQueryAt           time.Time `json:"last_query_at"`
}

// NewCollector creates an empty metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordQuery registers one completed workflow run.
func (c *Collector) RecordQuery(success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalQueries++
	if success {
		c.successfulQueries++
	} else {
		c.failedQueries++
	}
	c.totalQueryTime += duration
	c.lastQueryAt = time.Now()
}

// RecordQueryHallucination registers a rejected generated query.
func (c *Collector) RecordQueryHallucination() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryHallucinations++
}

// RecordSummaryHallucination registers a rejected summary.
func (c *Collector) RecordSummaryHallucination() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaryHallucinations++
}

// RecordQueryRetry registers one query regeneration attempt.
func (c *Collector) RecordQueryRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryRetries++
}

// RecordSummaryRetry registers one summary regeneration attempt.
func (c *Collector) RecordSummaryRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaryRetries++
}

// RecordAPICall registers one LLM API call. Wire this as the rate
// limiter's OnCall hook so every outbound call is counted.
func (c *Collector) RecordAPICall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiCalls++
}

// Snapshot returns current statistics with derived rates filled in.
func (c *Collector) Snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalQueries:          c.totalQueries,
		SuccessfulQueries:     c.successfulQueries,
		FailedQueries:         c.failedQueries,
		QueryHallucinations:   c.queryHallucinations,
		SummaryHallucinations: c.summaryHallucinations,
		QueryRetries:          c.queryRetries,
		SummaryRetries:        c.summaryRetries,
		APICalls:              c.apiCalls,
		LastQueryAt:           c.lastQueryAt,
	}
	if c.totalQueries > 0 {
		stats.AverageQueryTimeMS = float64(c.totalQueryTime.Milliseconds()) / float64(c.totalQueries)
		stats.SuccessRate = float64(c.successfulQueries) / float64(c.totalQueries) * 100
		stats.FailureRate = float64(c.failedQueries) / float64(c.totalQueries) * 100
	}
	return stats
}

// Reset clears all counters.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalQueries = 0
	c.successfulQueries = 0
	c.failedQueries = 0
	c.queryHallucinations = 0
	c.summaryHallucinations = 0
	c.queryRetries = 0
	c.summaryRetries = 0
	c.apiCalls = 0
	c.totalQueryTime = 0
	c.lastQueryAt = time.Time{}
}

// Formatted returns human-readable session metrics.
func (c *Collector) Formatted() string {
	stats := c.Snapshot()

	lastQuery := "never"
	if !stats.LastQueryAt.IsZero() {
		lastQuery = stats.LastQueryAt.Format("15:04:05")
	}

	return fmt.Sprintf(`Session Metrics:
  Total Queries: %d
  Successful: %d
  Failed: %d
  Success Rate: %.1f%%
  Query Hallucinations: %d
  Summary Hallucinations: %d
  Query Retries: %d
  Summary Retries: %d
  LLM API Calls: %d
  Average Query Time: %.0f ms
  Last Query: %s`,
		stats.TotalQueries,
		stats.SuccessfulQueries,
		stats.FailedQueries,
		stats.SuccessRate,
		stats.QueryHallucinations,
		stats.SummaryHallucinations,
		stats.QueryRetries,
		stats.SummaryRetries,
		stats.APICalls,
		stats.AverageQueryTimeMS,
		lastQuery,
	)
}

package monitor

import (
	"context"
	"time"
)

// Status classifies a dependency or the system as a whole.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// Check is the outcome of probing a single dependency.
type Check struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health aggregates all dependency checks. Overall status is degraded
// when any dependency is.
type Health struct {
	Status Status           `json:"status"`
	Checks map[string]Check `json:"checks"`
}

// Pinger probes a live connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker probes the workflow's external dependencies.
type HealthChecker struct {
	mongo        Pinger
	llmKeySet    bool
	probeTimeout time.Duration
}

// NewHealthChecker creates a checker over the MongoDB connection and
// the LLM configuration. mongo may be nil when no connection was
// established.
func NewHealthChecker(mongo Pinger, llmKeySet bool) *HealthChecker {
	return &HealthChecker{
		mongo:        mongo,
		llmKeySet:    llmKeySet,
		probeTimeout: 5 * time.Second,
	}
}

// Check probes every dependency and aggregates the results.
func (h *HealthChecker) Check(ctx context.Context) Health {
	health := Health{
		Status: StatusHealthy,
		Checks: map[string]Check{},
	}

	health.Checks["mongodb"] = h.checkMongo(ctx)
	health.Checks["llm"] = h.checkLLM()

	for _, check := range health.Checks {
		if check.Status != StatusHealthy {
			health.Status = StatusDegraded
			break
		}
	}
	return health
}

func (h *HealthChecker) checkMongo(ctx context.Context) Check {
	if h.mongo == nil {
		return Check{Status: StatusDegraded, Detail: "no connection configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()

	if err := h.mongo.Ping(probeCtx); err != nil {
		return Check{Status: StatusDegraded, Detail: err.Error()}
	}
	return Check{Status: StatusHealthy, Detail: "connected"}
}

func (h *HealthChecker) checkLLM() Check {
	if !h.llmKeySet {
		return Check{Status: StatusDegraded, Detail: "LLM_API_KEY is not set"}
	}
	return Check{Status: StatusHealthy, Detail: "api key configured"}
}

package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/askmongo/askmongo/internal/config"
)

// RateLimited wraps a Client with a token bucket. Callers block until a
// token is available; requests are never dropped, and context
// cancellation is the only early exit.
type RateLimited struct {
	inner   Client
	limiter *rate.Limiter

	// OnCall, when set, observes every request that clears the limiter.
	OnCall func()
}

// NewRateLimited enforces cfg.Calls requests per cfg.Period with a
// burst of the full window.
func NewRateLimited(inner Client, cfg config.RateLimitConfig) *RateLimited {
	interval := cfg.Period() / time.Duration(cfg.Calls)

	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), cfg.Calls),
	}
}

// Complete waits for a rate-limit token and then delegates.
func (r *RateLimited) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if r.OnCall != nil {
		r.OnCall()
	}

	return r.inner.Complete(ctx, messages, opts)
}

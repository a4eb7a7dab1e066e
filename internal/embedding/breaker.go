package embedding

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"signet/pkg/platform/circuit"
	"signet/pkg/platform/sentinel"
)

// defaultRetryAfter is how long an open circuit short-circuits calls before
// letting a probe through.
const defaultRetryAfter = 10 * time.Second

// Guarded wraps a provider with a circuit breaker so a down inference
// service fails fast instead of making every request wait out the full
// timeout. While the circuit is open, calls are rejected immediately; one
// probe is allowed through per retry window to detect recovery.
type Guarded struct {
	inner      Provider
	breaker    *circuit.Breaker
	retryAfter time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	lastProbe time.Time
}

// Guard wraps inner with a breaker that opens after five consecutive
// provider failures and closes again after one successful probe.
func Guard(inner Provider, logger *slog.Logger) *Guarded {
	return &Guarded{
		inner:      inner,
		breaker:    circuit.New("embedding"),
		retryAfter: defaultRetryAfter,
		logger:     logger,
	}
}

func (g *Guarded) Embed(ctx context.Context, image []byte) ([]float64, error) {
	if g.breaker.IsOpen() && !g.claimProbe() {
		return nil, Unavailable(errors.New("embedding service circuit open"))
	}

	vec, err := g.inner.Embed(ctx, image)
	if err != nil {
		// Cancellation is the caller's failure, not the provider's.
		if errors.Is(err, sentinel.ErrUnavailable) && ctx.Err() == nil {
			if _, change := g.breaker.RecordFailure(); change.Opened {
				g.mu.Lock()
				g.lastProbe = time.Now()
				g.mu.Unlock()
				g.logger.WarnContext(ctx, "embedding circuit opened", "error", err)
			}
		}
		return nil, err
	}

	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "embedding circuit closed")
	}
	return vec, nil
}

// claimProbe grants at most one call per retry window while the circuit is
// open.
func (g *Guarded) claimProbe() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	if now.Sub(g.lastProbe) < g.retryAfter {
		return false
	}
	g.lastProbe = now
	return true
}

func (g *Guarded) Dim() int { return g.inner.Dim() }

// Package ratelimit paces outbound requests to external sources using a
// per-source token bucket (golang.org/x/time/rate), so one misbehaving feed
// or API cannot starve the others of the Ingestor's concurrency budget.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"talk-less/internal/domain/entity"
)

// Limiter wraps a single source's token bucket. Burst is fixed at 1: a
// source's configured requests_per_minute describes a sustained rate, not a
// tolerance for bursts, since the Ingestor already fans fetches out across
// sources rather than hammering one of them.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter builds a Limiter from a requests-per-minute budget. A
// non-positive value is treated as unlimited.
func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	perSecond := float64(requestsPerMinute) / 60.0
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Registry holds one Limiter per configured source, keyed by source ID.
type Registry struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
}

// NewRegistry builds a Registry with one Limiter per source, sized to each
// source's requests_per_minute.
func NewRegistry(sources []entity.Source) *Registry {
	limiters := make(map[string]*Limiter, len(sources))
	for _, s := range sources {
		limiters[s.ID] = NewLimiter(s.RequestsPerMinute)
	}
	return &Registry{limiters: limiters}
}

// Wait blocks on the named source's limiter. Sources not present in the
// registry are unrestricted — this happens only for a source ID that was
// never loaded from the sources file, which a caller should treat as a bug
// rather than throttle around.
func (r *Registry) Wait(ctx context.Context, sourceID string) error {
	r.mu.RLock()
	l, ok := r.limiters[sourceID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return l.Wait(ctx)
}

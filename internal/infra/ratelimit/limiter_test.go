package ratelimit

import (
	"context"
	"testing"
	"time"

	"talk-less/internal/domain/entity"
)

func TestNewLimiter_UnlimitedWhenNonPositive(t *testing.T) {
	l := NewLimiter(0)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("unlimited limiter should never block: %v", err)
		}
	}
}

func TestLimiter_Wait_RespectsContextDeadline(t *testing.T) {
	l := NewLimiter(1) // 1 request per minute, burst of 1

	first := l.Wait(context.Background())
	if first != nil {
		t.Fatalf("first request should succeed immediately: %v", first)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("expected second request to be blocked by the minute-scale rate")
	}
}

func TestNewRegistry_PerSourceIsolation(t *testing.T) {
	sources := []entity.Source{
		{ID: "fast", RequestsPerMinute: 6000},
		{ID: "slow", RequestsPerMinute: 1},
	}
	reg := NewRegistry(sources)

	if err := reg.Wait(context.Background(), "fast"); err != nil {
		t.Fatalf("fast source should not block: %v", err)
	}

	if err := reg.Wait(context.Background(), "slow"); err != nil {
		t.Fatalf("first request to slow source should succeed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := reg.Wait(ctx, "slow"); err == nil {
		t.Error("expected slow source's second request to be rate limited")
	}
}

func TestRegistry_Wait_UnknownSourceIsUnrestricted(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Wait(context.Background(), "unregistered"); err != nil {
		t.Fatalf("unknown source should not be throttled: %v", err)
	}
}

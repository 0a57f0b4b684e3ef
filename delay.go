package main

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Delayer paces browser actions. Implementations must return early with the
// context's error when it is cancelled.
type Delayer interface {
	Delay(ctx context.Context) error
}

// NoDelay is a Delayer that never waits. Used in tests.
type NoDelay struct{}

func (NoDelay) Delay(ctx context.Context) error {
	return ctx.Err()
}

// HumanDelay sleeps a uniformly random duration in [min, max].
type HumanDelay struct {
	min, max time.Duration
	mu       sync.Mutex
	rnd      *rand.Rand
}

func NewHumanDelay(min, max time.Duration) *HumanDelay {
	if max < min {
		max = min
	}
	return &HumanDelay{
		min: min,
		max: max,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the duration the next Delay call will wait for.
func (h *HumanDelay) Next() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	span := h.max - h.min
	if span <= 0 {
		return h.min
	}
	return h.min + time.Duration(h.rnd.Int63n(int64(span)+1))
}

func (h *HumanDelay) Delay(ctx context.Context) error {
	d := h.Next()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

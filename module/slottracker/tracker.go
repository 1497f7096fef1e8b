// Package slottracker maintains a low-latency estimate of the external
// chain's current slot, refreshed opportunistically from RPC, so the hot
// eligibility-check path (spec.md §4.5) never blocks on network I/O
// (spec.md §4.1).
package slottracker

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/foresterd/forester/module/rpc"
)

// DefaultPollInterval is how often Run refreshes the tracked slot from RPC.
const DefaultPollInterval = 400 * time.Millisecond

// DefaultWaitPollInterval is the coarse sleep increment WaitUntil uses
// between re-checks.
const DefaultWaitPollInterval = 200 * time.Millisecond

// Tracker estimates the chain's current slot without a network round-trip
// on the hot path.
type Tracker struct {
	client       rpc.Client
	slotDuration time.Duration

	lastKnownSlot atomic.Uint64
	observedAt    atomic.Int64 // unix nanos
}

// New creates a Tracker. slotDuration is the nominal wall-clock duration of
// one chain slot, used to extrapolate between refreshes.
func New(client rpc.Client, slotDuration time.Duration) *Tracker {
	t := &Tracker{client: client, slotDuration: slotDuration}
	t.observedAt.Store(time.Now().UnixNano())
	return t
}

// Refresh fetches the current slot from RPC and updates the tracked
// estimate. Callers typically run this on a ticker (see Run).
func (t *Tracker) Refresh(ctx context.Context) error {
	slot, err := t.client.GetSlot(ctx)
	if err != nil {
		return err
	}
	t.lastKnownSlot.Store(slot)
	t.observedAt.Store(time.Now().UnixNano())
	return nil
}

// Run polls Refresh every interval until ctx is cancelled. A single failed
// refresh is not fatal: the estimate simply extrapolates further from the
// last successful observation.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = t.Refresh(ctx)
		}
	}
}

// EstimatedSlot returns last_known_slot + floor((now - observed_at) /
// slot_duration), with no blocking I/O.
func (t *Tracker) EstimatedSlot() uint64 {
	last := t.lastKnownSlot.Load()
	observedAt := time.Unix(0, t.observedAt.Load())
	if t.slotDuration <= 0 {
		return last
	}
	elapsed := time.Since(observedAt)
	if elapsed <= 0 {
		return last
	}
	return last + uint64(elapsed/t.slotDuration)
}

// WaitUntil sleeps in coarse increments until EstimatedSlot() >= target. It
// returns only on reaching target or on ctx cancellation.
func (t *Tracker) WaitUntil(ctx context.Context, target uint64) error {
	if t.EstimatedSlot() >= target {
		return nil
	}
	ticker := time.NewTicker(DefaultWaitPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if t.EstimatedSlot() >= target {
				return nil
			}
		}
	}
}

// Package unit provides a minimal reconstruction of the teacher codebase's
// engine.Unit: a small helper that bundles a cancellable context with a
// mutex and a WaitGroup for tracking detached goroutines. The original
// engine.Unit's source was not part of the retrieved example pack; this is
// reconstructed from its observed call sites (Launch, Lock/Unlock, Ctx,
// Done), narrowed to what engine/epoch actually needs.
package unit

import (
	"context"
	"sync"
)

// Unit tracks a set of detached goroutines sharing one cancellable context
// and one mutex, matching the cancellation model of spec.md §5: dropping
// the Unit is always safe, detached goroutines simply run to their next
// suspension point and observe Ctx().Done().
type Unit struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Unit whose context is derived from parent.
func New(parent context.Context) *Unit {
	ctx, cancel := context.WithCancel(parent)
	return &Unit{ctx: ctx, cancel: cancel}
}

// Ctx returns the Unit's cancellable context.
func (u *Unit) Ctx() context.Context { return u.ctx }

// Lock acquires the Unit's exclusive lock. Callers must never hold it
// across a suspension point that can block indefinitely (spec.md §5).
func (u *Unit) Lock() { u.mu.Lock() }

// Unlock releases the Unit's exclusive lock.
func (u *Unit) Unlock() { u.mu.Unlock() }

// Launch runs f in a new goroutine tracked by the Unit. Launch never
// blocks; f observes cancellation via u.Ctx().Done() cooperatively.
func (u *Unit) Launch(f func()) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		f()
	}()
}

// Cancel cancels the Unit's context. It does not wait for launched
// goroutines to return (spec.md §5: "detached controller tasks continue
// until their current await completes").
func (u *Unit) Cancel() { u.cancel() }

// Done returns a channel closed once every goroutine launched via Launch
// has returned. Callers that don't need a join (the common case per
// spec.md §9) can simply ignore it.
func (u *Unit) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()
	return done
}

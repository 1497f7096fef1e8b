package epoch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/rpc"
	syncunit "github.com/foresterd/forester/module/sync/unit"
	"github.com/foresterd/forester/module/slottracker"
)

// DefaultPollInterval is how long Run sleeps before probing the current slot
// again after a failed slot probe, or when the next epoch's registration
// start is not ahead of the current slot.
const DefaultPollInterval = time.Second

// ControllerFactory builds the Controller for one epoch, already wired with
// every collaborator it needs (spec.md §6). Manager only knows epoch
// numbers; it is the factory's job to turn one into a runnable Controller.
type ControllerFactory func(epoch uint64) *Controller

// Manager is the root monitor loop (spec.md §4.2): it watches the chain's
// current epoch and spawns one detached Controller per epoch boundary,
// never waiting on a spawned Controller to finish.
type Manager struct {
	rpcClient rpc.Client
	tracker   *slottracker.Tracker
	protocol  forester.ProtocolConfig
	factory   ControllerFactory
	logger    zerolog.Logger

	unit *syncunit.Unit

	mu      sync.Mutex
	seen    bool
	lastSaw uint64
}

// NewManager creates a Manager without any construction-time RPC call; use
// NewManagerWithRetry for the bootstrap path that spec.md §5 expects to
// survive a flaky initial connection.
func NewManager(rpcClient rpc.Client, tracker *slottracker.Tracker, protocol forester.ProtocolConfig, factory ControllerFactory, logger zerolog.Logger) *Manager {
	return &Manager{
		rpcClient: rpcClient,
		tracker:   tracker,
		protocol:  protocol,
		factory:   factory,
		logger:    logger,
	}
}

// bootstrapBackoff doubles from base to a max cap, never signalling stop;
// retry.Do only stops when the wrapped call itself succeeds or returns a
// non-retryable error (spec.md §5: "retry delay doubles from 1s to 30s cap").
type bootstrapBackoff struct {
	delay time.Duration
	max   time.Duration
}

func (b *bootstrapBackoff) Next() (time.Duration, bool) {
	d := b.delay
	b.delay *= 2
	if b.delay > b.max {
		b.delay = b.max
	}
	return d, false
}

// NewManagerWithRetry builds a Manager, retrying the initial chain-slot
// probe with a doubling backoff (base to max) until it succeeds or ctx is
// cancelled (spec.md §5).
func NewManagerWithRetry(ctx context.Context, rpcClient rpc.Client, tracker *slottracker.Tracker, protocol forester.ProtocolConfig, factory ControllerFactory, logger zerolog.Logger, base, max time.Duration) (*Manager, error) {
	backoff := &bootstrapBackoff{delay: base, max: max}
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := rpcClient.GetSlot(ctx); err != nil {
			logger.Warn().Err(err).Msg("manager bootstrap slot probe failed, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("epoch: manager bootstrap: %w", err)
	}
	return NewManager(rpcClient, tracker, protocol, factory, logger), nil
}

// Run polls the current slot, spawns a detached Controller whenever the
// derived epoch advances past the last one seen and registration is still
// open for it, and otherwise sleeps until that next registration window is
// expected to open (spec.md §4.2). Run blocks until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.unit = syncunit.New(ctx)
	defer m.unit.Cancel()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		slot, err := m.rpcClient.GetSlot(ctx)
		if err != nil {
			m.logger.Warn().Err(err).Msg("manager slot probe failed")
			if !m.sleep(ctx, DefaultPollInterval) {
				return ctx.Err()
			}
			continue
		}

		epoch := m.protocol.EpochOf(slot)
		phases := m.protocol.PhasesOf(epoch)

		m.mu.Lock()
		shouldSpawn := (!m.seen || epoch > m.lastSaw) && slot < phases.Registration.End
		if shouldSpawn {
			m.seen = true
			m.lastSaw = epoch
		}
		m.mu.Unlock()

		if shouldSpawn {
			m.spawn(epoch)
		}

		nextRegStart := m.protocol.PhasesOf(epoch + 1).Registration.Start
		if nextRegStart <= slot {
			if !m.sleep(ctx, DefaultPollInterval) {
				return ctx.Err()
			}
			continue
		}
		if err := m.tracker.WaitUntil(ctx, nextRegStart); err != nil {
			return err
		}
	}
}

func (m *Manager) spawn(epoch uint64) {
	controller := m.factory(epoch)
	m.logger.Info().Uint64("epoch", epoch).Msg("spawning epoch controller")
	m.unit.Launch(func() {
		if err := controller.Run(m.unit.Ctx()); err != nil {
			m.logger.Error().Err(err).Uint64("epoch", epoch).Msg("epoch controller exited with error")
		}
	})
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

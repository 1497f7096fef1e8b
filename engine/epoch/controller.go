// Package epoch implements the Epoch Controller state machine and the root
// Epoch Manager (spec.md §4.2-§4.4): one Controller owns exactly one
// epoch's lifetime, Register through Report, and the Manager spawns one
// detached Controller per epoch boundary.
package epoch

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/counter"
	"github.com/foresterd/forester/module/drainer"
	"github.com/foresterd/forester/module/proofs"
	"github.com/foresterd/forester/module/queuefeed"
	"github.com/foresterd/forester/module/rollover"
	"github.com/foresterd/forester/module/rpc"
	"github.com/foresterd/forester/module/signer"
	"github.com/foresterd/forester/module/slottracker"
	syncunit "github.com/foresterd/forester/module/sync/unit"
	"github.com/foresterd/forester/module/txrunner"
)

// statusPollInterval is how often PerformWork's react loop re-checks the
// estimated slot between pub/sub updates (spec.md §4.4 step 3).
const statusPollInterval = time.Second

// ControllerDeps bundles a Controller's collaborators. All fields are
// required except RecoverRegistration.
type ControllerDeps struct {
	RPCClient   rpc.Client
	Signer      signer.Signer
	Feed        *queuefeed.Feed
	Builder     *proofs.Builder
	Runner      *txrunner.Runner
	Rollover    *rollover.Trigger
	SlotTracker *slottracker.Tracker
	Protocol    forester.ProtocolConfig
	ProgramID   forester.Pubkey
	DrainerCfg  drainer.Config
	Trees       []forester.TreeAccounts
	ReportCh    chan<- forester.WorkReport
	Counter     *counter.ProcessedCounter
	Logger      zerolog.Logger

	// RecoverRegistration, if set, is consulted before Register to recover
	// an existing registration instead of registering fresh (spec.md §9
	// "recover_registration_info", left unimplemented upstream — reserved
	// here as a hook, nil by default).
	RecoverRegistration func(ctx context.Context, epoch uint64) (*forester.ForesterEpochInfo, error)
}

// Controller owns one epoch's lifetime. It never closes an escrow account:
// settlement after Report is a peripheral path this core does not model.
type Controller struct {
	deps  ControllerDeps
	epoch uint64
	log   zerolog.Logger
}

// NewController creates a Controller for epoch. Run has not started yet.
func NewController(deps ControllerDeps, epoch uint64) *Controller {
	return &Controller{
		deps:  deps,
		epoch: epoch,
		log:   deps.Logger.With().Uint64("epoch", epoch).Logger(),
	}
}

// Run drives the Controller through Register, WaitActive, PerformWork,
// WaitReport, and Report in order (spec.md §4.3). Any state's failure is
// logged and Run returns without touching other epochs.
func (c *Controller) Run(ctx context.Context) error {
	info, err := c.register(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("state", StateRegister.String()).Msg("epoch controller failed")
		return err
	}

	info, err = c.waitActive(ctx, info)
	if err != nil {
		c.log.Error().Err(err).Str("state", StateWaitActive.String()).Msg("epoch controller failed")
		return err
	}

	if err := c.performWork(ctx, info); err != nil {
		c.log.Error().Err(err).Str("state", StatePerformWork.String()).Msg("epoch controller failed")
		return err
	}

	if err := c.waitReport(ctx, info); err != nil {
		c.log.Error().Err(err).Str("state", StateWaitReport.String()).Msg("epoch controller failed")
		return err
	}

	if err := c.report(ctx, info); err != nil {
		c.log.Error().Err(err).Str("state", StateReport.String()).Msg("epoch controller failed")
		return err
	}

	return nil
}

func (c *Controller) register(ctx context.Context) (*forester.ForesterEpochInfo, error) {
	if c.deps.RecoverRegistration != nil {
		if recovered, err := c.deps.RecoverRegistration(ctx, c.epoch); err == nil && recovered != nil {
			c.log.Info().Msg("recovered existing registration")
			return recovered, nil
		}
	}

	slot, err := c.deps.RPCClient.GetSlot(ctx)
	if err != nil {
		return nil, &forester.RPCError{Op: "get_slot", Err: err}
	}
	phases := c.deps.Protocol.PhasesOf(c.epoch)
	if slot >= phases.Registration.End {
		return nil, fmt.Errorf("%w: epoch %d, slot %d, registration ends %d", forester.ErrRegistrationTooLate, c.epoch, slot, phases.Registration.End)
	}

	payer := c.deps.Signer.Payer()
	epochPDAKey := derivePDA(c.deps.ProgramID, payer, c.epoch)

	ix := rpc.NewRegisterInstruction(c.deps.ProgramID, payer, epochPDAKey, c.epoch)
	if _, err := c.deps.RPCClient.CreateAndSendTransaction(ctx, []rpc.Instruction{ix}, payer, []forester.Pubkey{payer}); err != nil {
		return nil, &forester.RPCError{Op: "create_and_send_transaction(register)", Err: err}
	}

	account, err := c.deps.RPCClient.GetAccount(ctx, epochPDAKey)
	if err != nil {
		return nil, &forester.RPCError{Op: "get_account(epoch_pda)", Err: err}
	}
	var data []byte
	if account != nil {
		data = account.Data
	}

	return &forester.ForesterEpochInfo{
		EpochNumber: c.epoch,
		Phases:      phases,
		EpochPDA:    decodeForesterEpochPda(payer, c.epoch, data),
	}, nil
}

func (c *Controller) waitActive(ctx context.Context, info *forester.ForesterEpochInfo) (*forester.ForesterEpochInfo, error) {
	if err := c.deps.SlotTracker.WaitUntil(ctx, info.Phases.Active.Start); err != nil {
		return nil, err
	}

	payer := c.deps.Signer.Payer()
	epochPDAKey := derivePDA(c.deps.ProgramID, payer, c.epoch)

	ix := rpc.NewFinalizeRegistrationInstruction(c.deps.ProgramID, payer, epochPDAKey, c.epoch)
	if _, err := c.deps.RPCClient.CreateAndSendTransaction(ctx, []rpc.Instruction{ix}, payer, []forester.Pubkey{payer}); err != nil {
		return nil, &forester.RPCError{Op: "create_and_send_transaction(finalize_registration)", Err: err}
	}

	account, err := c.deps.RPCClient.GetAccount(ctx, epochPDAKey)
	if err != nil {
		return nil, &forester.RPCError{Op: "get_account(epoch_pda)", Err: err}
	}
	var data []byte
	if account != nil {
		data = account.Data
	}
	info.EpochPDA = decodeForesterEpochPda(payer, c.epoch, data)

	lightSlots := c.deps.Protocol.EpochLengthInLightSlots()
	trees := make([]forester.TreeForesterSchedule, len(c.deps.Trees))
	for i, tree := range c.deps.Trees {
		trees[i] = deriveSchedule(info.EpochPDA, tree, lightSlots)
	}
	info.Trees = trees

	return info, nil
}

func (c *Controller) performWork(ctx context.Context, info *forester.ForesterEpochInfo) error {
	unit := syncunit.New(ctx)
	defer unit.Cancel()

	queues := make([]forester.Pubkey, len(c.deps.Trees))
	for i, tree := range c.deps.Trees {
		queues[i] = tree.Queue
	}

	currentSlot := c.deps.SlotTracker.EstimatedSlot()
	if info.IsInActivePhase(currentSlot) {
		var initialErrs *multierror.Error
		initialDrainer := drainer.New(c.deps.Feed, c.deps.Builder, c.deps.Runner, c.deps.DrainerCfg)
		for _, tree := range c.deps.Trees {
			if _, err := initialDrainer.Drain(ctx, info, tree, currentSlot); err != nil {
				initialErrs = multierror.Append(initialErrs, fmt.Errorf("queue %x: %w", tree.Queue, err))
			}
		}
		if initialErrs != nil {
			c.log.Warn().Err(initialErrs).Msg("initial drain had failures")
		}
	}

	updates, shutdown, err := c.deps.Feed.Subscribe(queues)
	if err != nil {
		return err
	}

	d := drainer.New(c.deps.Feed, c.deps.Builder, c.deps.Runner, c.deps.DrainerCfg)
	treesByQueue := make(map[forester.Pubkey]forester.TreeAccounts, len(c.deps.Trees))
	for _, tree := range c.deps.Trees {
		treesByQueue[tree.Queue] = tree
	}

	// Bounds in-flight reactive Queue Drainer tasks per controller at
	// indexer_max_concurrent_batches (spec.md §5 drainer layer, P3); the
	// indexer semaphore inside Drain itself only bounds chunks within one
	// drain, not the number of concurrent drains.
	drainSem := semaphore.NewWeighted(drainerConcurrency(c.deps.DrainerCfg))

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

reactLoop:
	for {
		if c.deps.SlotTracker.EstimatedSlot() >= info.Phases.Active.End {
			break reactLoop
		}
		select {
		case <-ctx.Done():
			break reactLoop
		case update, ok := <-updates:
			if !ok {
				break reactLoop
			}
			if update.Slot >= info.Phases.Active.End {
				break reactLoop
			}
			tree, known := treesByQueue[update.Pubkey]
			if !known {
				continue
			}
			if err := drainSem.Acquire(ctx, 1); err != nil {
				break reactLoop
			}
			unit.Launch(func() {
				defer drainSem.Release(1)
				if _, err := d.Drain(unit.Ctx(), info, tree, update.Slot); err != nil {
					c.log.Warn().Err(err).Str("queue", fmt.Sprintf("%x", update.Pubkey)).Msg("reactive drain failed")
				}
			})
		case <-ticker.C:
		}
	}

	select {
	case shutdown <- struct{}{}:
	default:
	}

	var rolloverErrs *multierror.Error
	for _, tree := range c.deps.Trees {
		ready, err := c.deps.Rollover.Ready(ctx, tree)
		if err != nil {
			rolloverErrs = multierror.Append(rolloverErrs, fmt.Errorf("tree %x: capacity check: %w", tree.MerkleTree, err))
			continue
		}
		if !ready {
			continue
		}
		if _, err := c.deps.Rollover.Rollover(ctx, tree); err != nil {
			rolloverErrs = multierror.Append(rolloverErrs, fmt.Errorf("tree %x: rollover: %w", tree.MerkleTree, err))
		}
	}
	if rolloverErrs != nil {
		c.log.Warn().Err(rolloverErrs).Msg("rollover sweep had failures")
	}

	return nil
}

func (c *Controller) waitReport(ctx context.Context, info *forester.ForesterEpochInfo) error {
	return c.deps.SlotTracker.WaitUntil(ctx, info.Phases.ReportWork.Start)
}

func (c *Controller) report(ctx context.Context, info *forester.ForesterEpochInfo) error {
	payer := c.deps.Signer.Payer()
	processed := c.processedCount()

	epochPDAKey := derivePDA(c.deps.ProgramID, payer, c.epoch)
	ix := rpc.NewReportWorkInstruction(c.deps.ProgramID, payer, epochPDAKey, c.epoch, processed)
	if _, err := c.deps.RPCClient.CreateAndSendTransaction(ctx, []rpc.Instruction{ix}, payer, []forester.Pubkey{payer}); err != nil {
		return &forester.RPCError{Op: "create_and_send_transaction(report_work)", Err: err}
	}

	report := forester.WorkReport{Epoch: c.epoch, ProcessedItemsCount: processed}
	select {
	case c.deps.ReportCh <- report:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// processedCount reads the final tally at Report time through the same
// ProcessedCounter instance the Runner increments on each confirmed batch.
func (c *Controller) processedCount() uint64 {
	if c.deps.Counter == nil {
		return 0
	}
	return c.deps.Counter.Get(c.epoch)
}

// drainerConcurrency returns the drainer-layer permit count for one
// controller (spec.md §5: "Drainer layer: per controller, permits =
// indexer_max_concurrent_batches").
func drainerConcurrency(cfg drainer.Config) int64 {
	if cfg.IndexerMaxConcurrentBatches <= 0 {
		return 1
	}
	return cfg.IndexerMaxConcurrentBatches
}

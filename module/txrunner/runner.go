// Package txrunner implements the transaction batch submission contract
// with retry (spec.md §4.8): eligibility gate, compute-budget prefix,
// sign/submit/confirm, post-confirmation indexer updates, and exponential
// backoff with jitter on failure.
package txrunner

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/counter"
	"github.com/foresterd/forester/module/eligibility"
	"github.com/foresterd/forester/module/indexer"
	"github.com/foresterd/forester/module/metrics"
	"github.com/foresterd/forester/module/proofs"
	"github.com/foresterd/forester/module/rpc"
	"github.com/foresterd/forester/module/signer"
)

// BaseDelay is the backoff base in spec.md §4.8/§7's retry formula:
// base_delay * 2^retries + random_jitter_ms(0..=50).
const BaseDelay = 100 * time.Millisecond

// MaxJitter bounds the uniform jitter added to each retry's delay.
const MaxJitter = 50 * time.Millisecond

// SlotSource supplies the current estimated chain slot; module/slottracker
// satisfies this via its EstimatedSlot method.
type SlotSource interface {
	EstimatedSlot() uint64
}

// Batch is one transaction's worth of already-proof-fetched work items.
type Batch struct {
	Tree  forester.TreeAccounts
	Items []proofs.PreparedItem
}

// Runner submits batches against the ledger, retrying transient failures.
type Runner struct {
	rpcClient  rpc.Client
	signer     signer.Signer
	indexer    indexer.Indexer
	oracle     *eligibility.Oracle
	counter    *counter.ProcessedCounter
	slotSource SlotSource
	metrics    *metrics.Collector

	programID  forester.Pubkey
	cuLimit    uint32
	maxRetries uint64
	log        zerolog.Logger
}

// Config bundles a Runner's construction parameters.
type Config struct {
	RPCClient  rpc.Client
	Signer     signer.Signer
	Indexer    indexer.Indexer
	Oracle     *eligibility.Oracle
	Counter    *counter.ProcessedCounter
	SlotSource SlotSource
	Metrics    *metrics.Collector
	ProgramID  forester.Pubkey
	CULimit    uint32
	MaxRetries uint64
	Logger     zerolog.Logger
}

// New constructs a Runner.
func New(cfg Config) *Runner {
	return &Runner{
		rpcClient:  cfg.RPCClient,
		signer:     cfg.Signer,
		indexer:    cfg.Indexer,
		oracle:     cfg.Oracle,
		counter:    cfg.Counter,
		slotSource: cfg.SlotSource,
		metrics:    cfg.Metrics,
		programID:  cfg.ProgramID,
		cuLimit:    cfg.CULimit,
		maxRetries: cfg.MaxRetries,
		log:        cfg.Logger,
	}
}

// retryBackoff reproduces spec.md §4.8/P7's exact delay sequence:
// 100*2^k ms + U[0,50] ms for k = 0..maxRetries-1, then stops.
type retryBackoff struct {
	attempt    uint64
	maxRetries uint64
	metrics    *metrics.Collector
}

func (b *retryBackoff) Next() (time.Duration, bool) {
	if b.attempt >= b.maxRetries {
		return 0, true
	}
	delay := BaseDelay * time.Duration(uint64(1)<<b.attempt)
	delay += time.Duration(rand.Intn(int(MaxJitter/time.Millisecond)+1)) * time.Millisecond
	b.attempt++
	if b.metrics != nil {
		b.metrics.BatchRetried()
	}
	return delay, false
}

// ProcessBatch implements spec.md §4.8. It returns (signature, nil) on a
// confirmed batch, (nil, nil) on a silent eligibility skip, and (nil, err)
// if eligibility itself errored or all retries were exhausted.
func (r *Runner) ProcessBatch(ctx context.Context, info *forester.ForesterEpochInfo, batch Batch) (*rpc.Signature, error) {
	var signature rpc.Signature
	var skipped bool

	backoff := &retryBackoff{maxRetries: r.maxRetries, metrics: r.metrics}

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		eligible, err := r.oracle.IsEligible(info, r.slotSource.EstimatedSlot(), batch.Tree.Queue)
		if err != nil {
			return err
		}
		if !eligible {
			skipped = true
			return nil
		}

		sig, err := r.submitOnce(ctx, info, batch)
		if err != nil {
			return retry.RetryableError(err)
		}
		signature = sig
		return nil
	})
	if err != nil {
		return nil, err
	}
	if skipped {
		return nil, nil
	}
	return &signature, nil
}

func (r *Runner) submitOnce(ctx context.Context, info *forester.ForesterEpochInfo, batch Batch) (rpc.Signature, error) {
	ixs := make([]rpc.Instruction, 0, len(batch.Items)+1)
	ixs = append(ixs, rpc.NewSetComputeUnitLimitInstruction(r.cuLimit))
	for _, item := range batch.Items {
		ixs = append(ixs, item.Instruction)
	}

	payer := r.signer.Payer()
	start := time.Now()
	signature, err := r.rpcClient.CreateAndSendTransaction(ctx, ixs, payer, []forester.Pubkey{payer})
	if r.metrics != nil {
		r.metrics.ObserveSubmitSeconds(time.Since(start).Seconds())
	}
	if err != nil {
		return rpc.Signature{}, &forester.RPCError{Op: "create_and_send_transaction", Err: err}
	}

	r.counter.Increment(info.EpochNumber)
	if r.metrics != nil {
		r.metrics.BatchSubmitted()
		r.metrics.ItemsProcessed(info.EpochNumber, len(batch.Items))
	}

	if err := r.updateIndexer(ctx, batch); err != nil {
		// Indexer state is a local cache of on-chain truth; a failure to
		// update it must not retry an already-confirmed transaction, or the
		// counter and the chain would both be touched twice (P2).
		r.log.Warn().Err(err).Msg("post-confirmation indexer update failed")
	}

	return signature, nil
}

func (r *Runner) updateIndexer(ctx context.Context, batch Batch) error {
	for _, item := range batch.Items {
		r.indexer.Lock()
		var err error
		switch item.Proof.Kind {
		case forester.ProofKindAddressNonInclusion:
			err = r.indexer.AddressTreeUpdated(ctx, batch.Tree.MerkleTree, item.Proof.AddressProof)
		default:
			err = r.indexer.AccountNullified(ctx, batch.Tree.MerkleTree, item.WorkItem.QueueItem.Hash)
		}
		r.indexer.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

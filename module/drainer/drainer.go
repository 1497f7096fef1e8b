// Package drainer implements the Queue Drainer (spec.md §4.6): fetch a
// tree's pending queue items, chunk them for the indexer, build proofs and
// instructions, re-chunk for submission, and bound both layers with
// independent semaphores (spec.md §5). It never retries at this layer —
// retries live in module/txrunner.
package drainer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/proofs"
	"github.com/foresterd/forester/module/queuefeed"
	"github.com/foresterd/forester/module/txrunner"
)

// Config bounds a Drainer's concurrency at each layer (spec.md §6).
type Config struct {
	IndexerBatchSize                int
	IndexerMaxConcurrentBatches     int64
	TransactionBatchSize            int
	TransactionMaxConcurrentBatches int64
}

// Result summarizes one Drain call for observability (spec.md §4.6 step 5:
// "aggregate signatures and timing").
type Result struct {
	ItemsFetched int
	Signatures   []txrunner.Batch
	Errors       []error
	Elapsed      time.Duration
}

// Drainer fetches, chunks, and submits one tree's pending work.
type Drainer struct {
	feed    *queuefeed.Feed
	builder *proofs.Builder
	runner  *txrunner.Runner
	cfg     Config
}

// New creates a Drainer bound to the given collaborators and concurrency
// config.
func New(feed *queuefeed.Feed, builder *proofs.Builder, runner *txrunner.Runner, cfg Config) *Drainer {
	if cfg.IndexerBatchSize <= 0 {
		cfg.IndexerBatchSize = 1
	}
	if cfg.TransactionBatchSize <= 0 {
		cfg.TransactionBatchSize = 1
	}
	if cfg.IndexerMaxConcurrentBatches <= 0 {
		cfg.IndexerMaxConcurrentBatches = 1
	}
	if cfg.TransactionMaxConcurrentBatches <= 0 {
		cfg.TransactionMaxConcurrentBatches = 1
	}
	return &Drainer{feed: feed, builder: builder, runner: runner, cfg: cfg}
}

// Drain implements spec.md §4.6. currentSlot gates the active-phase check
// (step 1); tree is the queue/tree pair being drained.
func (d *Drainer) Drain(ctx context.Context, info *forester.ForesterEpochInfo, tree forester.TreeAccounts, currentSlot uint64) (*Result, error) {
	start := time.Now()

	if !info.IsInActivePhase(currentSlot) {
		return &Result{Elapsed: time.Since(start)}, nil
	}
	if _, err := info.TreeSchedule(tree.Queue); err != nil {
		return nil, err
	}

	items, err := d.feed.FetchItems(ctx, tree)
	if err != nil {
		return nil, err
	}

	result := &Result{ItemsFetched: len(items)}
	if len(items) == 0 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	indexerSem := semaphore.NewWeighted(d.cfg.IndexerMaxConcurrentBatches)
	// Shared across every indexer chunk so the submission layer's bound is
	// per Drain call, not per chunk (spec.md §5, P3).
	txSem := semaphore.NewWeighted(d.cfg.TransactionMaxConcurrentBatches)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, chunk := range chunkItems(items, d.cfg.IndexerBatchSize) {
		chunk := chunk
		if err := indexerSem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, err)
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer indexerSem.Release(1)
			d.drainChunk(ctx, info, tree, chunk, txSem, result, &mu)
		}()
	}
	wg.Wait()

	result.Elapsed = time.Since(start)
	return result, nil
}

func (d *Drainer) drainChunk(ctx context.Context, info *forester.ForesterEpochInfo, tree forester.TreeAccounts, chunk []forester.WorkItem, txSem *semaphore.Weighted, result *Result, mu *sync.Mutex) {
	prepared, err := d.builder.Build(ctx, chunk)
	if err != nil {
		mu.Lock()
		result.Errors = append(result.Errors, err)
		mu.Unlock()
		return
	}

	var wg sync.WaitGroup

	for _, sub := range chunkPrepared(prepared, d.cfg.TransactionBatchSize) {
		sub := sub
		if err := txSem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, err)
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer txSem.Release(1)

			batch := txrunner.Batch{Tree: tree, Items: sub}
			sig, err := d.runner.ProcessBatch(ctx, info, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("drainer: submit batch of %d: %w", len(sub), err))
				return
			}
			if sig != nil {
				result.Signatures = append(result.Signatures, batch)
			}
		}()
	}
	wg.Wait()
}

func chunkItems(items []forester.WorkItem, size int) [][]forester.WorkItem {
	var chunks [][]forester.WorkItem
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

func chunkPrepared(items []proofs.PreparedItem, size int) [][]proofs.PreparedItem {
	var chunks [][]proofs.PreparedItem
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

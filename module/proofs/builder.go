// Package proofs implements the Proof Fetcher / Instruction Builder
// (spec.md §4.9): given a chunk of work items, partition by tree type,
// obtain batched proofs from the indexer, and build one ledger instruction
// per (item, proof). The indexer's exclusive lock is held only across each
// batched request, never across instruction construction (spec.md §9).
package proofs

import (
	"context"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/indexer"
	"github.com/foresterd/forester/module/rpc"
)

// PreparedItem bundles one work item with its fetched proof and the
// already-built ledger instruction that applies it.
type PreparedItem struct {
	WorkItem    forester.WorkItem
	Proof       forester.Proof
	Instruction rpc.Instruction
}

// Builder fetches proofs and builds instructions for chunks of work items.
type Builder struct {
	indexer   indexer.Indexer
	programID forester.Pubkey
}

// New creates a Builder against the given indexer and on-chain program id.
func New(idx indexer.Indexer, programID forester.Pubkey) *Builder {
	return &Builder{indexer: idx, programID: programID}
}

// Build partitions items by tree type and returns one PreparedItem per
// input item, in no particular cross-tree order (spec.md §5: "No
// cross-batch ordering is guaranteed").
func (b *Builder) Build(ctx context.Context, items []forester.WorkItem) ([]PreparedItem, error) {
	addressItems, stateItems := partitionByType(items)

	prepared := make([]PreparedItem, 0, len(items))

	addressPrepared, err := b.buildAddressItems(ctx, addressItems)
	if err != nil {
		return nil, err
	}
	prepared = append(prepared, addressPrepared...)

	statePrepared, err := b.buildStateItems(ctx, stateItems)
	if err != nil {
		return nil, err
	}
	prepared = append(prepared, statePrepared...)

	return prepared, nil
}

func partitionByType(items []forester.WorkItem) (address, state []forester.WorkItem) {
	for _, item := range items {
		switch item.TreeAccount.TreeType {
		case forester.TreeTypeAddress:
			address = append(address, item)
		default:
			state = append(state, item)
		}
	}
	return address, state
}

func (b *Builder) buildAddressItems(ctx context.Context, items []forester.WorkItem) ([]PreparedItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	// Group by tree: each drainer chunk is drawn from one queue, but
	// Build stays correct for mixed input too.
	byTree := groupByTree(items)

	var out []PreparedItem
	for tree, treeItems := range byTree {
		addresses := make([][32]byte, len(treeItems))
		for i, item := range treeItems {
			addresses[i] = item.QueueItem.Hash
		}

		b.indexer.Lock()
		proofs, err := b.indexer.GetMultipleNewAddressProofs(ctx, tree.MerkleTree, addresses)
		b.indexer.Unlock()
		if err != nil {
			return nil, &forester.IndexerError{Op: "get_multiple_new_address_proofs", Err: err}
		}
		if len(proofs) != len(treeItems) {
			return nil, fmt.Errorf("proofs: indexer returned %d address proofs for %d requested", len(proofs), len(treeItems))
		}

		for i, item := range treeItems {
			p := proofs[i].Proof
			changelogIndex := p.RootSeq % forester.AddressMerkleTreeChangelog
			indexedChangelogIndex := p.RootSeq % forester.AddressMerkleTreeIndexedChangelog

			ix := rpc.NewUpdateAddressMerkleTreeInstruction(b.programID, tree, p.LowIndex, changelogIndex, indexedChangelogIndex)

			out = append(out, PreparedItem{
				WorkItem:    item,
				Proof:       forester.Proof{Kind: forester.ProofKindAddressNonInclusion, AddressProof: p},
				Instruction: ix,
			})
		}
	}
	return out, nil
}

func (b *Builder) buildStateItems(ctx context.Context, items []forester.WorkItem) ([]PreparedItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	byTree := groupByTree(items)

	var out []PreparedItem
	for tree, treeItems := range byTree {
		hashesB58 := make([]string, len(treeItems))
		for i, item := range treeItems {
			hashesB58[i] = encodeHash(item.QueueItem.Hash)
		}

		b.indexer.Lock()
		proofs, err := b.indexer.GetMultipleCompressedAccountProofs(ctx, hashesB58)
		b.indexer.Unlock()
		if err != nil {
			return nil, &forester.IndexerError{Op: "get_multiple_compressed_account_proofs", Err: err}
		}
		if len(proofs) != len(treeItems) {
			return nil, fmt.Errorf("proofs: indexer returned %d state proofs for %d requested", len(proofs), len(treeItems))
		}

		for i, item := range treeItems {
			p := proofs[i].Proof
			changeLogIndices := []uint64{p.RootSeq % forester.StateMerkleTreeChangelog}

			ix := rpc.NewNullifyInstruction(b.programID, tree, p.LeafIndex, changeLogIndices)

			out = append(out, PreparedItem{
				WorkItem:    item,
				Proof:       forester.Proof{Kind: forester.ProofKindStateInclusion, StateProof: p},
				Instruction: ix,
			})
		}
	}
	return out, nil
}

func groupByTree(items []forester.WorkItem) map[forester.TreeAccounts][]forester.WorkItem {
	byTree := make(map[forester.TreeAccounts][]forester.WorkItem)
	for _, item := range items {
		byTree[item.TreeAccount] = append(byTree[item.TreeAccount], item)
	}
	return byTree
}

// encodeHash base58-encodes a state hash before it is sent to the indexer,
// matching the outer protocol's wire format (spec.md §4.9: "base58-encode
// hashes").
func encodeHash(h [32]byte) string {
	return base58.Encode(h[:])
}

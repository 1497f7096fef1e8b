// Package rollover implements the Rollover Trigger (spec.md §4.7): detect
// when a tree has filled past its capacity threshold and atomically replace
// it with a fresh tree/queue (and, for State trees, CPI context) pair.
package rollover

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/indexer"
	"github.com/foresterd/forester/module/metrics"
	"github.com/foresterd/forester/module/rpc"
	"github.com/foresterd/forester/module/signer"
)

// treeHeaderSize is the on-wire size of the header fields Trigger reads:
// two little-endian uint64s (rolledover_slot, next_index). The rest of a
// tree account's data is owned by the outer protocol and never inspected
// here.
const treeHeaderSize = 16

func decodeTreeHeader(data []byte) (forester.TreeHeader, error) {
	if len(data) < treeHeaderSize {
		return forester.TreeHeader{}, fmt.Errorf("rollover: tree account data too short (%d bytes)", len(data))
	}
	return forester.TreeHeader{
		RolledoverSlot: binary.LittleEndian.Uint64(data[0:8]),
		NextIndex:      binary.LittleEndian.Uint64(data[8:16]),
	}, nil
}

// Trigger checks tree capacity and performs the rollover action.
type Trigger struct {
	rpcClient       rpc.Client
	signer          signer.Signer
	indexer         indexer.Indexer
	cfg             forester.ProtocolConfig
	programID       forester.Pubkey
	systemProgramID forester.Pubkey
	logger          zerolog.Logger
	metrics         *metrics.Collector
}

// New creates a Trigger bound to its collaborators and the deployment's
// protocol config (account sizing, threshold percentage). metrics may be
// nil.
func New(rpcClient rpc.Client, s signer.Signer, idx indexer.Indexer, cfg forester.ProtocolConfig, programID, systemProgramID forester.Pubkey, logger zerolog.Logger, mc *metrics.Collector) *Trigger {
	return &Trigger{
		rpcClient:       rpcClient,
		signer:          s,
		indexer:         idx,
		cfg:             cfg,
		programID:       programID,
		systemProgramID: systemProgramID,
		logger:          logger.With().Str("component", "rollover").Logger(),
		metrics:         mc,
	}
}

// Ready implements spec.md §4.7's capacity check.
func (t *Trigger) Ready(ctx context.Context, tree forester.TreeAccounts) (bool, error) {
	account, err := t.rpcClient.GetAccount(ctx, tree.MerkleTree)
	if err != nil {
		return false, &forester.RPCError{Op: "get_account(tree)", Err: err}
	}
	if account == nil {
		return false, nil
	}

	header, err := decodeTreeHeader(account.Data)
	if err != nil {
		return false, err
	}
	if header.RolledoverSlot != forester.SentinelMaxSlot {
		return false, nil
	}

	threshold := forester.RolloverThreshold(t.cfg.RolloverThresholdPct)
	return header.NextIndex >= threshold, nil
}

// Rollover generates fresh accounts, submits the atomic create+rollover
// transaction, and notifies the indexer. A failed indexer notification is
// logged, not propagated (spec.md §4.7: "the tree remains owned by the old
// accounts and a later sweep may retry").
func (t *Trigger) Rollover(ctx context.Context, tree forester.TreeAccounts) (forester.TreeAccounts, error) {
	payer := t.signer.Payer()

	newTreeKey, err := t.signer.GenerateKeypair()
	if err != nil {
		return forester.TreeAccounts{}, err
	}
	newQueueKey, err := t.signer.GenerateKeypair()
	if err != nil {
		return forester.TreeAccounts{}, err
	}

	treeLamports, err := t.rpcClient.GetMinimumBalanceForRentExemption(ctx, t.cfg.MerkleTreeAccountSize)
	if err != nil {
		return forester.TreeAccounts{}, &forester.RPCError{Op: "get_minimum_balance_for_rent_exemption(tree)", Err: err}
	}
	queueLamports, err := t.rpcClient.GetMinimumBalanceForRentExemption(ctx, t.cfg.QueueAccountSize)
	if err != nil {
		return forester.TreeAccounts{}, &forester.RPCError{Op: "get_minimum_balance_for_rent_exemption(queue)", Err: err}
	}

	ixs := []rpc.Instruction{
		rpc.NewCreateAccountInstruction(t.systemProgramID, payer, newTreeKey, t.programID, t.cfg.MerkleTreeAccountSize, treeLamports),
		rpc.NewCreateAccountInstruction(t.systemProgramID, payer, newQueueKey, t.programID, t.cfg.QueueAccountSize, queueLamports),
	}

	newTree := forester.TreeAccounts{MerkleTree: newTreeKey, Queue: newQueueKey, TreeType: tree.TreeType}
	signers := []forester.Pubkey{payer, newTreeKey, newQueueKey}

	var newCPIContext forester.Pubkey
	if tree.TreeType == forester.TreeTypeState {
		cpiKey, err := t.signer.GenerateKeypair()
		if err != nil {
			return forester.TreeAccounts{}, err
		}
		cpiLamports, err := t.rpcClient.GetMinimumBalanceForRentExemption(ctx, t.cfg.CPIContextSize)
		if err != nil {
			return forester.TreeAccounts{}, &forester.RPCError{Op: "get_minimum_balance_for_rent_exemption(cpi)", Err: err}
		}
		ixs = append(ixs, rpc.NewCreateAccountInstruction(t.systemProgramID, payer, cpiKey, t.programID, t.cfg.CPIContextSize, cpiLamports))
		ixs = append(ixs, rpc.NewRolloverStateMerkleTreeInstruction(t.programID, tree, newTree, cpiKey))
		newCPIContext = cpiKey
		signers = append(signers, cpiKey)
	} else {
		ixs = append(ixs, rpc.NewRolloverAddressMerkleTreeInstruction(t.programID, tree, newTree))
	}

	if _, err := t.rpcClient.CreateAndSendTransaction(ctx, ixs, payer, signers); err != nil {
		return forester.TreeAccounts{}, &forester.RPCError{Op: "create_and_send_transaction(rollover)", Err: err}
	}

	t.notifyIndexer(ctx, tree.TreeType, newTree, newCPIContext)
	if t.metrics != nil {
		t.metrics.Rollover()
	}

	return newTree, nil
}

func (t *Trigger) notifyIndexer(ctx context.Context, treeType forester.TreeType, newTree forester.TreeAccounts, newCPIContext forester.Pubkey) {
	t.indexer.Lock()
	defer t.indexer.Unlock()

	var err error
	if treeType == forester.TreeTypeAddress {
		err = t.indexer.AddAddressMerkleTreeAccounts(ctx, newTree.MerkleTree, newTree.Queue, nil)
	} else {
		err = t.indexer.AddStateBundle(ctx, indexer.StateBundle{Tree: newTree})
	}
	if err != nil {
		t.logger.Warn().Err(err).Str("new_tree", fmt.Sprintf("%x", newTree.MerkleTree)).Msg("indexer notification failed, old tree remains active")
	}
}

// Package indexer defines the contract for the indexer collaborator: the
// component that supplies inclusion/non-inclusion proofs and tracks Merkle
// state locally. Its algorithms are out of scope for this core (spec.md
// §1); the core only needs to call through this interface and hold its
// exclusive lock for the minimum span of one update (spec.md §3, §9).
package indexer

import (
	"context"

	"github.com/foresterd/forester/model/forester"
)

// AddressProof is the indexer's response for one requested address.
type AddressProof struct {
	Address forester.Pubkey
	Proof   forester.AddressNonInclusionProof
}

// StateProof is the indexer's response for one requested compressed account
// hash.
type StateProof struct {
	HashB58 string
	Proof   forester.StateInclusionProof
}

// StateBundle describes a State tree/queue pair, with optional queue items,
// handed to the indexer; module/rollover sends one for each freshly rolled
// over State tree.
type StateBundle struct {
	Tree  forester.TreeAccounts
	Items []forester.QueueItem
}

// Indexer is the single mutable collaborator this forester depends on.
// Callers MUST acquire Lock for the minimum span of one update and MUST
// NEVER hold it across an RPC await (spec.md §9).
type Indexer interface {
	Lock()
	Unlock()

	GetMultipleNewAddressProofs(ctx context.Context, tree forester.Pubkey, addresses [][32]byte) ([]AddressProof, error)
	GetMultipleCompressedAccountProofs(ctx context.Context, hashesB58 []string) ([]StateProof, error)

	// AddressTreeUpdated and AccountNullified are the per-work-item,
	// post-confirmation critical-section updates dispatched from
	// module/txrunner on success (spec.md §4.8 step 3).
	AddressTreeUpdated(ctx context.Context, tree forester.Pubkey, proof forester.AddressNonInclusionProof) error
	AccountNullified(ctx context.Context, tree forester.Pubkey, hash [32]byte) error

	AddStateBundle(ctx context.Context, bundle StateBundle) error

	// AddAddressMerkleTreeAccounts informs the indexer of a freshly rolled
	// over tree/queue pair so subsequent proofs target the new tree
	// (spec.md §4.7).
	AddAddressMerkleTreeAccounts(ctx context.Context, newTree, newQueue forester.Pubkey, opt []byte) error
}

package forester

// TreeType distinguishes the two tree families this forester maintains.
type TreeType uint8

const (
	// TreeTypeState identifies a State Merkle tree, maintained via leaf
	// nullification.
	TreeTypeState TreeType = iota
	// TreeTypeAddress identifies an Address Merkle tree, maintained via
	// low-element non-inclusion insertion.
	TreeTypeAddress
)

func (t TreeType) String() string {
	switch t {
	case TreeTypeState:
		return "state"
	case TreeTypeAddress:
		return "address"
	default:
		return "unknown"
	}
}

// Pubkey is an opaque ledger account identity. The core never interprets
// its bytes; key material and encoding belong to module/rpc and
// module/signer.
type Pubkey [32]byte

// TreeAccounts identifies one managed tree and its paired queue. It is
// immutable until a rollover replaces it with a fresh pair.
type TreeAccounts struct {
	MerkleTree Pubkey
	Queue      Pubkey
	TreeType   TreeType
}

// TreeHeader is the subset of a tree account's on-chain header the
// Rollover Trigger reads to decide capacity (spec.md §4.7).
type TreeHeader struct {
	// RolledoverSlot is SentinelMaxSlot until the tree has been rolled
	// over, after which it holds the slot the rollover completed at.
	RolledoverSlot uint64
	// NextIndex is the next free leaf index; compared against a capacity
	// threshold derived from StateMerkleTreeHeight.
	NextIndex uint64
}

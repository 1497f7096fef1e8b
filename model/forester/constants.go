package forester

import "time"

// SolanaSlotDuration is the nominal wall-clock duration of one ledger slot,
// used to extrapolate module/slottracker's estimate between RPC refreshes.
const SolanaSlotDuration = 400 * time.Millisecond

// Changelog modulus windows, bit-exact with the outer protocol (spec.md §6).
const (
	AddressMerkleTreeChangelog        = 1400
	AddressMerkleTreeIndexedChangelog = 1400
	StateMerkleTreeChangelog          = 1000
)

// Tree geometry constants, bit-exact with the outer protocol.
const (
	StateMerkleTreeHeight      = 26
	StateMerkleTreeCanopyDepth = 10
)

// SentinelMaxSlot marks a tree account's RolledoverSlot field as "not yet
// rolled over".
const SentinelMaxSlot uint64 = ^uint64(0)

// RolloverThreshold returns the next_index a tree must reach before it is
// eligible for rollover: (2^height * pct) / 100 (spec.md §4.7).
func RolloverThreshold(pct uint64) uint64 {
	return (uint64(1) << StateMerkleTreeHeight) * pct / 100
}

package forester

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, checked with errors.Is/errors.As rather than string
// matching. ErrNotEligible and ErrNotInActivePhase are control-flow signals
// that must never bubble past their immediate caller (spec.md §7).
var (
	// ErrNotEligible means the eligibility oracle returned not-eligible for
	// the current (forester, tree, light-slot); callers treat this as a
	// silent skip.
	ErrNotEligible = errors.New("forester: not eligible for current light-slot")

	// ErrNotInActivePhase means the current slot is outside this epoch's
	// active phase; callers treat this as a clean stop.
	ErrNotInActivePhase = errors.New("forester: not in active phase")

	// ErrTreeNotFound indicates a queue id has no matching schedule entry;
	// this is a programming error, fatal for the call that hit it.
	ErrTreeNotFound = errors.New("forester: tree not found for queue")

	// ErrRegistrationTooLate means the current slot already reached the
	// registration phase's end before registration was submitted; this is
	// epoch-fatal.
	ErrRegistrationTooLate = errors.New("forester: registration window closed")
)

// RPCError wraps a failure from the ledger RPC collaborator.
type RPCError struct {
	Op  string
	Err error
}

func (e *RPCError) Error() string { return fmt.Sprintf("forester: rpc %s: %v", e.Op, e.Err) }
func (e *RPCError) Unwrap() error { return e.Err }

// IndexerError wraps a failure from the indexer collaborator.
type IndexerError struct {
	Op  string
	Err error
}

func (e *IndexerError) Error() string { return fmt.Sprintf("forester: indexer %s: %v", e.Op, e.Err) }
func (e *IndexerError) Unwrap() error { return e.Err }

// TimeoutError wraps a deadline expiring while waiting on an external
// collaborator.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("forester: timeout waiting on %s", e.Op) }

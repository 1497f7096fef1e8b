package forester

import "fmt"

// ForesterEpochPda is the on-chain per-(forester,epoch) record. It is
// treated as read-mostly: controllers re-fetch it only on state
// transitions, never poll it continuously.
type ForesterEpochPda struct {
	Forester Pubkey
	Epoch    uint64
	// ScheduleSeed is the cryptographic seed the schedule is derived from;
	// opaque to this package (derivation happens outside the core).
	ScheduleSeed [32]byte
	// FinalizedLightSlotStart/End bound the light-slot range that was
	// finalized when WaitActive called finalize-registration.
	FinalizedLightSlotStart uint64
	FinalizedLightSlotEnd   uint64
}

// TreeForesterSchedule is the per-(forester,tree) eligibility bitmap for
// one epoch, derived at active-phase entry. Invariant: len(Slots) ==
// ProtocolConfig.EpochLengthInLightSlots().
type TreeForesterSchedule struct {
	Tree  TreeAccounts
	Slots []bool
}

// IsEligible reports eligibility for lightSlot. An out-of-range light-slot
// is not-eligible, never an error (spec invariant).
func (s TreeForesterSchedule) IsEligible(lightSlot uint64) bool {
	if lightSlot >= uint64(len(s.Slots)) {
		return false
	}
	return s.Slots[lightSlot]
}

// ForesterEpochInfo is a controller's exclusive per-epoch working state.
// It is mutated only by its owning Controller goroutine.
type ForesterEpochInfo struct {
	EpochNumber uint64
	Phases      EpochPhases
	EpochPDA    ForesterEpochPda
	Trees       []TreeForesterSchedule
}

// TreeSchedule finds the schedule entry for the given queue id.
func (i ForesterEpochInfo) TreeSchedule(queue Pubkey) (TreeForesterSchedule, error) {
	for _, t := range i.Trees {
		if t.Tree.Queue == queue {
			return t, nil
		}
	}
	return TreeForesterSchedule{}, fmt.Errorf("%w: queue %x", ErrTreeNotFound, queue)
}

// IsInActivePhase reports whether slot falls within this epoch's active
// phase.
func (i ForesterEpochInfo) IsInActivePhase(slot uint64) bool {
	return i.Phases.Active.Contains(slot)
}

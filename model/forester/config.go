// Package forester holds the data model shared by every forester worker
// component: protocol parameters, tree identities, schedules, work items,
// proofs and reports. Nothing in this package performs I/O.
package forester

import "fmt"

// ProtocolConfig is the immutable, per-deployment set of protocol timing
// parameters. All derived phase/epoch arithmetic lives on this type so it
// can be tested without any network or ledger dependency.
type ProtocolConfig struct {
	// SlotsPerEpoch is the number of chain slots in one epoch.
	SlotsPerEpoch uint64 `mapstructure:"slots_per_epoch"`
	// RegistrationPhaseLength is the length, in slots, of the Register phase.
	RegistrationPhaseLength uint64 `mapstructure:"registration_phase_length"`
	// ActivePhaseLength is the length, in slots, of the PerformWork phase.
	ActivePhaseLength uint64 `mapstructure:"active_phase_length"`
	// ReportWorkPhaseLength is the length, in slots, of the WaitReport/Report phase.
	ReportWorkPhaseLength uint64 `mapstructure:"report_work_phase_length"`
	// PostPhaseLength is the length, in slots, of the trailing post phase.
	PostPhaseLength uint64 `mapstructure:"post_phase_length"`
	// LightSlotLength is the number of chain slots per light-slot, used to
	// derive per-light-slot eligibility within the active phase.
	LightSlotLength uint64 `mapstructure:"light_slot_length"`
	// CPIContextSize is the account size, in bytes, reserved for a tree's
	// CPI context account (State trees only).
	CPIContextSize uint64 `mapstructure:"cpi_context_size"`
	// MerkleTreeAccountSize and QueueAccountSize size the rent-exempt
	// create-account instructions a rollover issues for the fresh tree and
	// queue pair (spec.md §4.7).
	MerkleTreeAccountSize uint64 `mapstructure:"merkle_tree_account_size"`
	QueueAccountSize      uint64 `mapstructure:"queue_account_size"`
	// RolloverThresholdPct is the percentage of a tree's capacity
	// (2^height slots) that must be filled before it is eligible for
	// rollover (spec.md §4.7).
	RolloverThresholdPct uint64 `mapstructure:"rollover_threshold_pct"`
}

// Phase is a half-open slot interval [Start, End).
type Phase struct {
	Start uint64
	End   uint64
}

// Contains reports whether slot lies within the phase.
func (p Phase) Contains(slot uint64) bool {
	return slot >= p.Start && slot < p.End
}

// EpochPhases bundles the four phases of one epoch.
type EpochPhases struct {
	Registration Phase
	Active       Phase
	ReportWork   Phase
	Post         Phase
}

// EpochOf returns the epoch number containing slot.
func (c ProtocolConfig) EpochOf(slot uint64) uint64 {
	if c.SlotsPerEpoch == 0 {
		return 0
	}
	return slot / c.SlotsPerEpoch
}

// PhasesOf derives the four phase windows for the given epoch number.
func (c ProtocolConfig) PhasesOf(epoch uint64) EpochPhases {
	epochStart := epoch * c.SlotsPerEpoch

	regStart := epochStart
	regEnd := regStart + c.RegistrationPhaseLength

	activeStart := regEnd
	activeEnd := activeStart + c.ActivePhaseLength

	reportStart := activeEnd
	reportEnd := reportStart + c.ReportWorkPhaseLength

	postStart := reportEnd
	postEnd := postStart + c.PostPhaseLength

	return EpochPhases{
		Registration: Phase{Start: regStart, End: regEnd},
		Active:       Phase{Start: activeStart, End: activeEnd},
		ReportWork:   Phase{Start: reportStart, End: reportEnd},
		Post:         Phase{Start: postStart, End: postEnd},
	}
}

// EpochLengthInLightSlots returns how many light-slots fit in one active
// phase; TreeForesterSchedule.Slots must have exactly this length.
func (c ProtocolConfig) EpochLengthInLightSlots() uint64 {
	if c.LightSlotLength == 0 {
		return 0
	}
	return c.ActivePhaseLength / c.LightSlotLength
}

// LightSlotOf returns the light-slot index of slot within the given active
// phase, and whether slot actually falls inside that phase's light-slot
// range (callers treat out-of-range as not-eligible, never as an error).
func (c ProtocolConfig) LightSlotOf(active Phase, slot uint64) (uint64, bool) {
	if c.LightSlotLength == 0 || slot < active.Start {
		return 0, false
	}
	offset := slot - active.Start
	lightSlot := offset / c.LightSlotLength
	if lightSlot >= c.EpochLengthInLightSlots() {
		return 0, false
	}
	return lightSlot, true
}

// Validate performs a minimal sanity check on a loaded config.
func (c ProtocolConfig) Validate() error {
	if c.SlotsPerEpoch == 0 {
		return fmt.Errorf("forester: slots_per_epoch must be > 0")
	}
	if c.LightSlotLength == 0 {
		return fmt.Errorf("forester: light_slot_length must be > 0")
	}
	sum := c.RegistrationPhaseLength + c.ActivePhaseLength + c.ReportWorkPhaseLength + c.PostPhaseLength
	if sum != c.SlotsPerEpoch {
		return fmt.Errorf("forester: phase lengths (%d) must sum to slots_per_epoch (%d)", sum, c.SlotsPerEpoch)
	}
	return nil
}

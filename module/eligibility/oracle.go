// Package eligibility implements the per-(forester, tree, light-slot)
// eligibility gate (spec.md §4.5). It is consulted immediately before every
// transaction submission and never caches across batches, because the
// caller may cross light-slot boundaries mid-batch.
package eligibility

import (
	"github.com/foresterd/forester/model/forester"
)

// Oracle decides eligibility from the schedules already derived into a
// ForesterEpochInfo; it performs no I/O of its own — the chain read that
// produces ForesterEpochInfo.EpochPDA happens at WaitActive (spec.md §4.3).
type Oracle struct {
	config forester.ProtocolConfig
}

// New creates an Oracle bound to the deployment's protocol timing.
func New(config forester.ProtocolConfig) *Oracle {
	return &Oracle{config: config}
}

// IsEligible reports whether the forester may act on tree at currentSlot,
// per the epoch's active-phase schedule. An out-of-range light-slot (before
// the active phase starts, or past its end) is not-eligible (spec.md §4.5).
func (o *Oracle) IsEligible(info *forester.ForesterEpochInfo, currentSlot uint64, tree forester.Pubkey) (bool, error) {
	schedule, err := info.TreeSchedule(tree)
	if err != nil {
		return false, err
	}

	lightSlot, inRange := o.config.LightSlotOf(info.Phases.Active, currentSlot)
	if !inRange {
		return false, nil
	}

	return schedule.IsEligible(lightSlot), nil
}

// Package pubsub defines the change-feed contract the Queue Feed consumes.
// The transport itself is out of scope for this core (spec.md §1); only the
// subscribe shape is modeled here.
package pubsub

import "github.com/foresterd/forester/model/forester"

// QueueUpdate notifies that a queue account changed at a given slot.
type QueueUpdate struct {
	Pubkey forester.Pubkey
	Slot   uint64
}

// Client is the pub/sub collaborator this forester depends on (spec.md §6).
type Client interface {
	// Subscribe opens a change-feed subscription for the given queue
	// pubkeys. Closing the returned shutdown channel (or sending on it)
	// asks the implementation to stop producing updates and eventually
	// close the update channel; this is always best-effort from the
	// caller's side (spec.md §4.4 step 4).
	Subscribe(queuePubkeys []forester.Pubkey) (updates <-chan QueueUpdate, shutdown chan<- struct{}, err error)
}

package forester

// QueueItem is one entry read from a tree's queue account.
type QueueItem struct {
	// Hash is the leaf to nullify (State) or the address to insert (Address).
	Hash  [32]byte
	Index uint32
}

// WorkItem pairs a queue item with the tree it was read from.
type WorkItem struct {
	TreeAccount TreeAccounts
	QueueItem   QueueItem
}

package forester

// WorkReport is emitted at most once per epoch by the epoch's owning
// controller, after its Report instruction has been confirmed.
type WorkReport struct {
	Epoch               uint64
	ProcessedItemsCount uint64
}

// Package queuefeed polls and subscribes to per-tree work queues (spec.md §2
// "Queue Feed"): FetchItems polls a queue's current items over RPC, and
// Subscribe returns the pub/sub change-feed channel unchanged.
// It is the thin layer the Epoch Controller and Queue Drainer sit on top
// of; the actual transport (RPC polling, pub/sub transport) is injected as
// module/rpc.Client and module/pubsub.Client.
package queuefeed

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/pubsub"
	"github.com/foresterd/forester/module/rpc"
)

// ItemDecoder turns a queue account's raw data into the list of currently
// pending queue items. Its exact wire format is owned by the outer
// protocol; DefaultItemDecoder is a reasonable stand-in for testing and is
// always overridable.
type ItemDecoder func(data []byte) ([]forester.QueueItem, error)

// queueItemSize is the on-wire size of one fixed-width queue item record
// under DefaultItemDecoder: a 32-byte hash followed by a little-endian
// uint32 index.
const queueItemSize = 36

// DefaultItemDecoder decodes a queue account's data as a flat array of
// fixed-width (hash, index) records.
func DefaultItemDecoder(data []byte) ([]forester.QueueItem, error) {
	if len(data)%queueItemSize != 0 {
		return nil, fmt.Errorf("queuefeed: queue account data length %d not a multiple of %d", len(data), queueItemSize)
	}
	items := make([]forester.QueueItem, 0, len(data)/queueItemSize)
	for off := 0; off < len(data); off += queueItemSize {
		var item forester.QueueItem
		copy(item.Hash[:], data[off:off+32])
		item.Index = binary.LittleEndian.Uint32(data[off+32 : off+36])
		items = append(items, item)
	}
	return items, nil
}

// Feed wraps the RPC and pub/sub collaborators for queue observation.
type Feed struct {
	rpcClient    rpc.Client
	pubsubClient pubsub.Client
	decode       ItemDecoder
}

// New creates a Feed. decode may be nil to use DefaultItemDecoder.
func New(rpcClient rpc.Client, pubsubClient pubsub.Client, decode ItemDecoder) *Feed {
	if decode == nil {
		decode = DefaultItemDecoder
	}
	return &Feed{rpcClient: rpcClient, pubsubClient: pubsubClient, decode: decode}
}

// FetchItems polls the given queue account via RPC and decodes its current
// pending items (spec.md §4.6 step 3).
func (f *Feed) FetchItems(ctx context.Context, tree forester.TreeAccounts) ([]forester.WorkItem, error) {
	account, err := f.rpcClient.GetAccount(ctx, tree.Queue)
	if err != nil {
		return nil, &forester.RPCError{Op: "get_account(queue)", Err: err}
	}
	if account == nil {
		return nil, nil
	}

	queueItems, err := f.decode(account.Data)
	if err != nil {
		return nil, err
	}

	items := make([]forester.WorkItem, len(queueItems))
	for i, qi := range queueItems {
		items[i] = forester.WorkItem{TreeAccount: tree, QueueItem: qi}
	}
	return items, nil
}

// Subscribe opens a pub/sub change-feed subscription for the given queues
// (spec.md §4.4 step 2).
func (f *Feed) Subscribe(queues []forester.Pubkey) (<-chan pubsub.QueueUpdate, chan<- struct{}, error) {
	return f.pubsubClient.Subscribe(queues)
}

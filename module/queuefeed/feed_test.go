package queuefeed

import (
	"context"
	"encoding/binary"
	"testing"

	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foresterd/forester/model/forester"
	pubsubmock "github.com/foresterd/forester/module/pubsub/mock"
	"github.com/foresterd/forester/module/rpc"
	rpcmock "github.com/foresterd/forester/module/rpc/mock"
)

func encodeItem(hash byte, index uint32) []byte {
	buf := make([]byte, queueItemSize)
	for i := range buf[:32] {
		buf[i] = hash
	}
	binary.LittleEndian.PutUint32(buf[32:36], index)
	return buf
}

func TestFetchItems_DecodesFixedWidthRecords(t *testing.T) {
	client := &rpcmock.Client{}
	tree := forester.TreeAccounts{Queue: forester.Pubkey{1}}

	data := append(encodeItem(0xAA, 1), encodeItem(0xBB, 2)...)
	client.On("GetAccount", tmock.Anything, tree.Queue).
		Return(&rpc.AccountInfo{Data: data}, nil)

	f := New(client, &pubsubmock.Client{}, nil)
	items, err := f.FetchItems(context.Background(), tree)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, uint32(1), items[0].QueueItem.Index)
	require.Equal(t, uint32(2), items[1].QueueItem.Index)
	require.Equal(t, tree, items[0].TreeAccount)
}

func TestFetchItems_NilAccountReturnsNoItems(t *testing.T) {
	client := &rpcmock.Client{}
	tree := forester.TreeAccounts{Queue: forester.Pubkey{2}}
	client.On("GetAccount", tmock.Anything, tree.Queue).Return(nil, nil)

	f := New(client, &pubsubmock.Client{}, nil)
	items, err := f.FetchItems(context.Background(), tree)
	require.NoError(t, err)
	require.Nil(t, items)
}

func TestFetchItems_MalformedDataErrors(t *testing.T) {
	client := &rpcmock.Client{}
	tree := forester.TreeAccounts{Queue: forester.Pubkey{3}}
	client.On("GetAccount", tmock.Anything, tree.Queue).
		Return(&rpc.AccountInfo{Data: []byte{1, 2, 3}}, nil)

	f := New(client, &pubsubmock.Client{}, nil)
	_, err := f.FetchItems(context.Background(), tree)
	require.Error(t, err)
}

package rollover

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/rs/zerolog"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foresterd/forester/model/forester"
	indexermock "github.com/foresterd/forester/module/indexer/mock"
	"github.com/foresterd/forester/module/rpc"
	rpcmock "github.com/foresterd/forester/module/rpc/mock"
	signermock "github.com/foresterd/forester/module/signer/mock"
)

func headerBytes(rolledoverSlot, nextIndex uint64) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], rolledoverSlot)
	binary.LittleEndian.PutUint64(buf[8:16], nextIndex)
	return buf
}

func testConfig() forester.ProtocolConfig {
	return forester.ProtocolConfig{
		MerkleTreeAccountSize: 1000,
		QueueAccountSize:      500,
		CPIContextSize:        200,
		RolloverThresholdPct:  95,
	}
}

func TestReady_NotRolledOverAndOverThreshold(t *testing.T) {
	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{1}}
	rpcClient := &rpcmock.Client{}
	threshold := forester.RolloverThreshold(95)
	rpcClient.On("GetAccount", tmock.Anything, tree.MerkleTree).
		Return(&rpc.AccountInfo{Data: headerBytes(forester.SentinelMaxSlot, threshold)}, nil)

	tr := New(rpcClient, &signermock.Signer{}, &indexermock.Indexer{}, testConfig(), forester.Pubkey{9}, forester.Pubkey{8}, zerolog.Nop(), nil)
	ready, err := tr.Ready(context.Background(), tree)
	require.NoError(t, err)
	require.True(t, ready)
}

func TestReady_AlreadyRolledOverIsNotReady(t *testing.T) {
	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{1}}
	rpcClient := &rpcmock.Client{}
	rpcClient.On("GetAccount", tmock.Anything, tree.MerkleTree).
		Return(&rpc.AccountInfo{Data: headerBytes(42, 1_000_000)}, nil)

	tr := New(rpcClient, &signermock.Signer{}, &indexermock.Indexer{}, testConfig(), forester.Pubkey{9}, forester.Pubkey{8}, zerolog.Nop(), nil)
	ready, err := tr.Ready(context.Background(), tree)
	require.NoError(t, err)
	require.False(t, ready)
}

func TestReady_UnderThresholdIsNotReady(t *testing.T) {
	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{1}}
	rpcClient := &rpcmock.Client{}
	rpcClient.On("GetAccount", tmock.Anything, tree.MerkleTree).
		Return(&rpc.AccountInfo{Data: headerBytes(forester.SentinelMaxSlot, 1)}, nil)

	tr := New(rpcClient, &signermock.Signer{}, &indexermock.Indexer{}, testConfig(), forester.Pubkey{9}, forester.Pubkey{8}, zerolog.Nop(), nil)
	ready, err := tr.Ready(context.Background(), tree)
	require.NoError(t, err)
	require.False(t, ready)
}

func TestRollover_StateTree_GeneratesThreeKeypairsAndNotifiesIndexer(t *testing.T) {
	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{1}, Queue: forester.Pubkey{2}, TreeType: forester.TreeTypeState}

	rpcClient := &rpcmock.Client{}
	rpcClient.On("GetMinimumBalanceForRentExemption", tmock.Anything, tmock.Anything).Return(uint64(100), nil)
	rpcClient.On("CreateAndSendTransaction", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(rpc.Signature{1}, nil)

	signerMock := &signermock.Signer{}
	signerMock.On("Payer").Return(forester.Pubkey{42})
	keyCalls := 0
	signerMock.On("GenerateKeypair").
		Run(func(args tmock.Arguments) { keyCalls++ }).
		Return(forester.Pubkey{1}, nil)

	idx := &indexermock.Indexer{}
	idx.On("Lock").Return()
	idx.On("Unlock").Return()
	idx.On("AddStateBundle", tmock.Anything, tmock.Anything).Return(nil)

	tr := New(rpcClient, signerMock, idx, testConfig(), forester.Pubkey{9}, forester.Pubkey{8}, zerolog.Nop(), nil)
	newTree, err := tr.Rollover(context.Background(), tree)
	require.NoError(t, err)
	require.Equal(t, 3, keyCalls)
	require.Equal(t, forester.TreeTypeState, newTree.TreeType)
	idx.AssertExpectations(t)
}

func TestRollover_AddressTree_NotifiesAddressAccounts(t *testing.T) {
	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{1}, Queue: forester.Pubkey{2}, TreeType: forester.TreeTypeAddress}

	rpcClient := &rpcmock.Client{}
	rpcClient.On("GetMinimumBalanceForRentExemption", tmock.Anything, tmock.Anything).Return(uint64(100), nil)
	rpcClient.On("CreateAndSendTransaction", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(rpc.Signature{1}, nil)

	signerMock := &signermock.Signer{}
	signerMock.On("Payer").Return(forester.Pubkey{42})
	keyCalls := 0
	signerMock.On("GenerateKeypair").
		Run(func(args tmock.Arguments) { keyCalls++ }).
		Return(forester.Pubkey{1}, nil)

	idx := &indexermock.Indexer{}
	idx.On("Lock").Return()
	idx.On("Unlock").Return()
	idx.On("AddAddressMerkleTreeAccounts", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).Return(nil)

	tr := New(rpcClient, signerMock, idx, testConfig(), forester.Pubkey{9}, forester.Pubkey{8}, zerolog.Nop(), nil)
	_, err := tr.Rollover(context.Background(), tree)
	require.NoError(t, err)
	require.Equal(t, 2, keyCalls)
	idx.AssertExpectations(t)
}

func TestRollover_IndexerNotificationFailureIsLoggedNotPropagated(t *testing.T) {
	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{1}, Queue: forester.Pubkey{2}, TreeType: forester.TreeTypeAddress}

	rpcClient := &rpcmock.Client{}
	rpcClient.On("GetMinimumBalanceForRentExemption", tmock.Anything, tmock.Anything).Return(uint64(100), nil)
	rpcClient.On("CreateAndSendTransaction", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(rpc.Signature{1}, nil)

	signerMock := &signermock.Signer{}
	signerMock.On("Payer").Return(forester.Pubkey{42})
	signerMock.On("GenerateKeypair").Return(forester.Pubkey{1}, nil)

	idx := &indexermock.Indexer{}
	idx.On("Lock").Return()
	idx.On("Unlock").Return()
	idx.On("AddAddressMerkleTreeAccounts", tmock.Anything, tmock.Anything, tmock.Anything, tmock.Anything).
		Return(assertError{})

	tr := New(rpcClient, signerMock, idx, testConfig(), forester.Pubkey{9}, forester.Pubkey{8}, zerolog.Nop(), nil)
	_, err := tr.Rollover(context.Background(), tree)
	require.NoError(t, err)
}

type assertError struct{}

func (assertError) Error() string { return "indexer unavailable" }

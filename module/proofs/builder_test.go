package proofs

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/indexer"
	indexermock "github.com/foresterd/forester/module/indexer/mock"
)

func TestBuild_AddressItems_EmbedsChangelogIndices(t *testing.T) {
	idx := &indexermock.Indexer{}
	idx.On("Lock").Return()
	idx.On("Unlock").Return()

	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{1}, TreeType: forester.TreeTypeAddress}
	item := forester.WorkItem{TreeAccount: tree, QueueItem: forester.QueueItem{Hash: [32]byte{9}}}

	idx.On("GetMultipleNewAddressProofs", tmock.Anything, tree.MerkleTree, tmock.Anything).
		Return([]indexer.AddressProof{
			{Address: tree.MerkleTree, Proof: forester.AddressNonInclusionProof{LowIndex: 3, RootSeq: forester.AddressMerkleTreeChangelog + 5}},
		}, nil)

	b := New(idx, forester.Pubkey{99})
	prepared, err := b.Build(context.Background(), []forester.WorkItem{item})
	require.NoError(t, err)
	require.Len(t, prepared, 1)
	require.Equal(t, forester.ProofKindAddressNonInclusion, prepared[0].Proof.Kind)
	// RootSeq = changelog window + 5, so both modulus indices are 5.
	require.Equal(t, uint64(5), binary.LittleEndian.Uint64(prepared[0].Instruction.Data[8:16]))
	require.Equal(t, uint64(5), binary.LittleEndian.Uint64(prepared[0].Instruction.Data[16:24]))
	idx.AssertExpectations(t)
}

func TestBuild_StateItems_EmbedsChangeLogIndices(t *testing.T) {
	idx := &indexermock.Indexer{}
	idx.On("Lock").Return()
	idx.On("Unlock").Return()

	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{2}, TreeType: forester.TreeTypeState}
	item := forester.WorkItem{TreeAccount: tree, QueueItem: forester.QueueItem{Hash: [32]byte{7}}}

	idx.On("GetMultipleCompressedAccountProofs", tmock.Anything, tmock.Anything).
		Return([]indexer.StateProof{
			{HashB58: base58.Encode(item.QueueItem.Hash[:]), Proof: forester.StateInclusionProof{LeafIndex: 1, RootSeq: 42}},
		}, nil)

	b := New(idx, forester.Pubkey{99})
	prepared, err := b.Build(context.Background(), []forester.WorkItem{item})
	require.NoError(t, err)
	require.Len(t, prepared, 1)
	require.Equal(t, forester.ProofKindStateInclusion, prepared[0].Proof.Kind)
	// RootSeq 42 mod the state changelog window (1000) is 42.
	require.Equal(t, uint64(42), binary.LittleEndian.Uint64(prepared[0].Instruction.Data[8:16]))
	idx.AssertExpectations(t)
}

func TestEncodeHash_ProducesBase58NotHex(t *testing.T) {
	hash := [32]byte{0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30}

	got := encodeHash(hash)

	want, err := base58.Decode(got)
	require.NoError(t, err, "encodeHash must produce valid base58, not hex")
	require.Equal(t, hash[:], want)
	require.Equal(t, base58.Encode(hash[:]), got)
}

func TestBuild_StateItems_RequestsBase58EncodedHashes(t *testing.T) {
	idx := &indexermock.Indexer{}
	idx.On("Lock").Return()
	idx.On("Unlock").Return()

	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{2}, TreeType: forester.TreeTypeState}
	hash := [32]byte{7, 1, 2, 3}
	item := forester.WorkItem{TreeAccount: tree, QueueItem: forester.QueueItem{Hash: hash}}

	wantB58 := base58.Encode(hash[:])

	idx.On("GetMultipleCompressedAccountProofs", tmock.Anything, []string{wantB58}).
		Return([]indexer.StateProof{
			{HashB58: wantB58, Proof: forester.StateInclusionProof{LeafIndex: 1, RootSeq: 42}},
		}, nil)

	b := New(idx, forester.Pubkey{99})
	prepared, err := b.Build(context.Background(), []forester.WorkItem{item})
	require.NoError(t, err)
	require.Len(t, prepared, 1)
	idx.AssertExpectations(t)
}

func TestBuild_EmptyInputReturnsNoItemsAndNoIndexerCalls(t *testing.T) {
	idx := &indexermock.Indexer{}
	b := New(idx, forester.Pubkey{99})
	prepared, err := b.Build(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, prepared)
	idx.AssertNotCalled(t, "Lock")
}

func TestBuild_MismatchedProofCountErrors(t *testing.T) {
	idx := &indexermock.Indexer{}
	idx.On("Lock").Return()
	idx.On("Unlock").Return()

	tree := forester.TreeAccounts{MerkleTree: forester.Pubkey{3}, TreeType: forester.TreeTypeAddress}
	items := []forester.WorkItem{
		{TreeAccount: tree, QueueItem: forester.QueueItem{Hash: [32]byte{1}}},
		{TreeAccount: tree, QueueItem: forester.QueueItem{Hash: [32]byte{2}}},
	}

	idx.On("GetMultipleNewAddressProofs", tmock.Anything, tree.MerkleTree, tmock.Anything).
		Return([]indexer.AddressProof{{Proof: forester.AddressNonInclusionProof{}}}, nil)

	b := New(idx, forester.Pubkey{99})
	_, err := b.Build(context.Background(), items)
	require.Error(t, err)
}

package rpc

import (
	"encoding/binary"

	"github.com/foresterd/forester/model/forester"
)

// This file builds the opaque, bit-exact-with-the-outer-protocol
// instruction shapes listed in spec.md §6. The core treats every
// instruction as an opaque builder result: it never inspects Data once
// built, only appends the Instruction to a Transaction.

// NewRegisterInstruction builds the instruction that registers a forester
// for an epoch, creating the ForesterEpochPda (spec.md §4.3 Register). This
// is distinct from NewFinalizeRegistrationInstruction, which WaitActive
// submits once the active phase begins.
func NewRegisterInstruction(programID, forester_, epochPDA forester.Pubkey, epoch uint64) Instruction {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, epoch)
	return Instruction{
		ProgramID: programID,
		Data:      data,
		Accounts: []AccountMeta{
			{Pubkey: forester_, IsSigner: true, IsWritable: true},
			{Pubkey: epochPDA, IsSigner: false, IsWritable: true},
		},
	}
}

// NewFinalizeRegistrationInstruction builds the instruction that finalizes
// a forester's registration for an epoch on the ForesterEpochPda that
// NewRegisterInstruction created.
func NewFinalizeRegistrationInstruction(programID, forester_, epochPDA forester.Pubkey, epoch uint64) Instruction {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, epoch)
	return Instruction{
		ProgramID: programID,
		Data:      data,
		Accounts: []AccountMeta{
			{Pubkey: forester_, IsSigner: true, IsWritable: false},
			{Pubkey: epochPDA, IsSigner: false, IsWritable: true},
		},
	}
}

// NewReportWorkInstruction builds the instruction that submits
// (epoch, processed_items_count) for settlement.
func NewReportWorkInstruction(programID, forester_, epochPDA forester.Pubkey, epoch, processedItems uint64) Instruction {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint64(data[0:8], epoch)
	binary.LittleEndian.PutUint64(data[8:16], processedItems)
	return Instruction{
		ProgramID: programID,
		Data:      data,
		Accounts: []AccountMeta{
			{Pubkey: forester_, IsSigner: true, IsWritable: false},
			{Pubkey: epochPDA, IsSigner: false, IsWritable: true},
		},
	}
}

// NewNullifyInstruction builds one nullify instruction for a State tree
// leaf, embedding the changelog indices computed by module/proofs.
func NewNullifyInstruction(programID forester.Pubkey, tree forester.TreeAccounts, leafIndex uint64, changeLogIndices []uint64) Instruction {
	data := make([]byte, 8+8*len(changeLogIndices))
	binary.LittleEndian.PutUint64(data[0:8], leafIndex)
	for i, idx := range changeLogIndices {
		binary.LittleEndian.PutUint64(data[8+8*i:16+8*i], idx)
	}
	return Instruction{
		ProgramID: programID,
		Data:      data,
		Accounts: []AccountMeta{
			{Pubkey: tree.MerkleTree, IsSigner: false, IsWritable: true},
			{Pubkey: tree.Queue, IsSigner: false, IsWritable: true},
		},
	}
}

// NewUpdateAddressMerkleTreeInstruction builds one address-insertion
// instruction, embedding the changelog/indexed-changelog indices.
func NewUpdateAddressMerkleTreeInstruction(programID forester.Pubkey, tree forester.TreeAccounts, lowIndex uint64, changelogIndex, indexedChangelogIndex uint64) Instruction {
	data := make([]byte, 24)
	binary.LittleEndian.PutUint64(data[0:8], lowIndex)
	binary.LittleEndian.PutUint64(data[8:16], changelogIndex)
	binary.LittleEndian.PutUint64(data[16:24], indexedChangelogIndex)
	return Instruction{
		ProgramID: programID,
		Data:      data,
		Accounts: []AccountMeta{
			{Pubkey: tree.MerkleTree, IsSigner: false, IsWritable: true},
			{Pubkey: tree.Queue, IsSigner: false, IsWritable: true},
		},
	}
}

// NewRolloverStateMerkleTreeInstruction builds the atomic rollover
// instruction for a State tree, referencing old and new tree/queue/CPI ids.
func NewRolloverStateMerkleTreeInstruction(programID forester.Pubkey, old, new_ forester.TreeAccounts, newCPIContext forester.Pubkey) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts: []AccountMeta{
			{Pubkey: old.MerkleTree, IsSigner: false, IsWritable: true},
			{Pubkey: old.Queue, IsSigner: false, IsWritable: true},
			{Pubkey: new_.MerkleTree, IsSigner: true, IsWritable: true},
			{Pubkey: new_.Queue, IsSigner: true, IsWritable: true},
			{Pubkey: newCPIContext, IsSigner: true, IsWritable: true},
		},
	}
}

// NewRolloverAddressMerkleTreeInstruction builds the atomic rollover
// instruction for an Address tree.
func NewRolloverAddressMerkleTreeInstruction(programID forester.Pubkey, old, new_ forester.TreeAccounts) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts: []AccountMeta{
			{Pubkey: old.MerkleTree, IsSigner: false, IsWritable: true},
			{Pubkey: old.Queue, IsSigner: false, IsWritable: true},
			{Pubkey: new_.MerkleTree, IsSigner: true, IsWritable: true},
			{Pubkey: new_.Queue, IsSigner: true, IsWritable: true},
		},
	}
}

// NewCreateAccountInstruction builds a generic rent-exempt account-creation
// instruction, used ahead of a rollover to allocate the fresh tree/queue
// (and, for State, CPI context) accounts.
func NewCreateAccountInstruction(systemProgramID, payer, newAccount, owner forester.Pubkey, size, lamports uint64) Instruction {
	data := make([]byte, 16)
	binary.LittleEndian.PutUint64(data[0:8], lamports)
	binary.LittleEndian.PutUint64(data[8:16], size)
	return Instruction{
		ProgramID: systemProgramID,
		Data:      data,
		Accounts: []AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: newAccount, IsSigner: true, IsWritable: true},
			{Pubkey: owner, IsSigner: false, IsWritable: false},
		},
	}
}

// computeBudgetProgramID is a fixed, well-known program id placeholder;
// the real value is owned by the outer protocol's deployment.
var computeBudgetProgramID forester.Pubkey

// NewSetComputeUnitLimitInstruction builds the compute-budget instruction
// prefixed onto every submitted batch transaction (spec.md §4.8 step 2).
func NewSetComputeUnitLimitInstruction(cuLimit uint32) Instruction {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, cuLimit)
	return Instruction{
		ProgramID: computeBudgetProgramID,
		Data:      data,
	}
}

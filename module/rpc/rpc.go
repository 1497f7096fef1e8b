// Package rpc defines the ledger RPC contract this forester consumes. The
// concrete transport, connection pooling, and wire encoding are out of
// scope for this core (spec.md §1); only the shapes the core needs to call
// through live here.
package rpc

import (
	"context"

	"github.com/foresterd/forester/model/forester"
)

// Signature identifies a submitted and confirmed transaction.
type Signature [64]byte

// Instruction is an opaque, already-serialized ledger instruction. Its
// field layout is owned by the outer protocol (spec.md §6); the core never
// inspects it, only builds it via the constructors in instructions.go and
// appends it to a Transaction.
type Instruction struct {
	ProgramID forester.Pubkey
	Data      []byte
	Accounts  []AccountMeta
}

// AccountMeta is one account reference inside an Instruction.
type AccountMeta struct {
	Pubkey     forester.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Transaction is an unsigned-or-signed bundle of instructions sharing one
// recent blockhash.
type Transaction struct {
	Instructions []Instruction
	Blockhash    [32]byte
	Signatures   map[forester.Pubkey][]byte
}

// AccountInfo is the raw, not-yet-decoded state of a ledger account.
type AccountInfo struct {
	Owner    forester.Pubkey
	Lamports uint64
	Data     []byte
}

// Client is the ledger RPC surface this forester depends on (spec.md §6).
// Implementations are expected to hand out pooled connections internally;
// callers never hold a connection across multi-stage logic (spec.md §5).
type Client interface {
	GetSlot(ctx context.Context) (uint64, error)
	GetLatestBlockhash(ctx context.Context) ([32]byte, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
	GetAccount(ctx context.Context, pubkey forester.Pubkey) (*AccountInfo, error)
	CreateAndSendTransaction(ctx context.Context, ixs []Instruction, payer forester.Pubkey, signers []forester.Pubkey) (Signature, error)
	ProcessTransaction(ctx context.Context, tx *Transaction) (Signature, error)
}

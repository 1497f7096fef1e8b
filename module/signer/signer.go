// Package signer defines the contract for the signing key store. Key
// material and cryptographic implementation are out of scope for this core
// (spec.md §1).
package signer

import (
	"github.com/foresterd/forester/model/forester"
	"github.com/foresterd/forester/module/rpc"
)

// Signer signs transactions on the forester's behalf and can mint fresh
// keypairs for rollover (spec.md §4.7: "Generate two fresh keypairs").
type Signer interface {
	// Payer returns the forester's own public key, used as fee payer and
	// as the signer identity for registration/report/submission
	// instructions.
	Payer() forester.Pubkey

	// Sign attaches this signer's signature(s) to tx in place.
	Sign(tx *rpc.Transaction) error

	// GenerateKeypair mints a fresh keypair for a new queue/tree/CPI
	// context account. The private half never leaves the signer.
	GenerateKeypair() (forester.Pubkey, error)
}

package forester

// ProofKind tags which variant a Proof carries.
type ProofKind uint8

const (
	ProofKindAddressNonInclusion ProofKind = iota
	ProofKindStateInclusion
)

// AddressNonInclusionProof is a low-element witness proving an address is
// not yet present in an Address tree.
type AddressNonInclusionProof struct {
	LowIndex      uint64
	LowValue      [32]byte
	LowNextIndex  uint64
	LowNextValue  [32]byte
	MerklePath    [][32]byte
	RootSeq       uint64
}

// StateInclusionProof proves a leaf is present in a State tree.
type StateInclusionProof struct {
	LeafIndex  uint64
	MerklePath [][32]byte
	RootSeq    uint64
	Hash       [32]byte
}

// Proof is a tagged union over the two proof variants returned by the
// indexer. Exactly one of AddressProof/StateProof is valid, selected by
// Kind.
type Proof struct {
	Kind         ProofKind
	AddressProof AddressNonInclusionProof
	StateProof   StateInclusionProof
}

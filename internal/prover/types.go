// Package prover packages public and private inputs for the 2-in-2-out
// transfer circuit and drives an external Groth16 proving backend. Proof
// generation itself is treated as opaque: only the I/O contract in §4.4
// matters to callers.
package prover

import "github.com/shieldedpay/core/internal/field"

// TreeDepth must match internal/merkle.Depth; duplicated here (rather than
// imported) because the circuit package must not depend on the Merkle
// package's runtime types, only on the shared depth constant baked into
// the circuit's constraint shape.
const TreeDepth = 20

// InputWitness is the private witness for one spent (or dummy) note.
type InputWitness struct {
	Amount       uint64
	OwnerPubkey  field.Element
	Randomness   field.Element
	IsDummy      bool
	PathIndices  [TreeDepth]uint8
	PathElements [TreeDepth]field.Element
}

// OutputWitness is the private witness for one created note.
type OutputWitness struct {
	Amount     uint64
	Recipient  field.Element
	Randomness field.Element
}

// PublicInputs is the transfer circuit's public input vector. Order is part
// of the on-chain verifier's ABI and must not change (§4.4).
type PublicInputs struct {
	MerkleRoot        field.Element
	Nullifier1        field.Element
	Nullifier2        field.Element
	OutputCommitment1 field.Element
	OutputCommitment2 field.Element
	// PublicAmount is signed: positive for shield, negative for unshield,
	// zero for an internal transfer. It is assigned to the circuit as a
	// signed integer, so a negative value reduces mod p; there is no
	// separate sign field.
	PublicAmount int64
	TokenMint    field.Element
}

// PrivateWitness is the full private witness for one proof.
type PrivateWitness struct {
	Inputs      [2]InputWitness
	Outputs     [2]OutputWitness
	SpendingKey field.Element
}

// Groth16Proof is the canonical on-chain encoding of a Groth16 proof:
// pi_a (64 bytes, uncompressed G1), pi_b (128 bytes, uncompressed G2),
// pi_c (64 bytes, uncompressed G1).
type Groth16Proof struct {
	PiA [64]byte
	PiB [128]byte
	PiC [64]byte
}

// Bytes concatenates the proof in on-chain wire order: pi_a || pi_b || pi_c.
func (p Groth16Proof) Bytes() []byte {
	out := make([]byte, 0, 256)
	out = append(out, p.PiA[:]...)
	out = append(out, p.PiB[:]...)
	out = append(out, p.PiC[:]...)
	return out
}

// Package types defines the wire-level instruction payloads and capability
// interfaces the shielded client exchanges with its host chain, replacing
// the teacher's block/consensus/governance wire types (none of which
// survive into this core) with the fixed schema §6 specifies.
package types

import "encoding/binary"

// FieldSize is the byte width of one BN254 scalar-field element in its
// little-endian wire encoding.
const FieldSize = 32

// ProofSize is the byte width of a Groth16 proof in its on-chain encoding:
// pi_a (64) || pi_b (128) || pi_c (64).
const ProofSize = 64 + 128 + 64

// ShieldInstruction carries a transparent deposit into the pool. The host
// program checks the transparent amount against the emitted commitment's
// amount with a non-ZK check; no proof accompanies it.
type ShieldInstruction struct {
	Amount     uint64
	Commitment [FieldSize]byte
}

// Bytes encodes the instruction data as amount(8 LE) || commitment(32 LE).
func (s ShieldInstruction) Bytes() []byte {
	buf := make([]byte, 0, 8+FieldSize)
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], s.Amount)
	buf = append(buf, amt[:]...)
	buf = append(buf, s.Commitment[:]...)
	return buf
}

// TransferInstruction carries an internal shielded transfer: a proof plus
// the two consumed nullifiers, two produced output commitments, and the
// Merkle root the proof was generated against.
type TransferInstruction struct {
	Proof             [ProofSize]byte
	Nullifier1        [FieldSize]byte
	Nullifier2        [FieldSize]byte
	OutputCommitment1 [FieldSize]byte
	OutputCommitment2 [FieldSize]byte
	MerkleRoot        [FieldSize]byte
}

// Bytes encodes the instruction data per §6's transfer layout.
func (t TransferInstruction) Bytes() []byte {
	buf := make([]byte, 0, ProofSize+5*FieldSize)
	buf = append(buf, t.Proof[:]...)
	buf = append(buf, t.Nullifier1[:]...)
	buf = append(buf, t.Nullifier2[:]...)
	buf = append(buf, t.OutputCommitment1[:]...)
	buf = append(buf, t.OutputCommitment2[:]...)
	buf = append(buf, t.MerkleRoot[:]...)
	return buf
}

// UnshieldInstruction exits the pool to an external (transparent) address.
// It carries the same proof shape as a transfer but only one output
// commitment (the change note; a zero-amount change note's commitment when
// the exit was exact) and the exit amount in the clear. The exit
// destination is not part of this payload.
type UnshieldInstruction struct {
	Proof            [ProofSize]byte
	Nullifier1       [FieldSize]byte
	Nullifier2       [FieldSize]byte
	ChangeCommitment [FieldSize]byte
	MerkleRoot       [FieldSize]byte
	Amount           uint64
}

// Bytes encodes the instruction data per §6's unshield layout.
func (u UnshieldInstruction) Bytes() []byte {
	buf := make([]byte, 0, ProofSize+4*FieldSize+8)
	buf = append(buf, u.Proof[:]...)
	buf = append(buf, u.Nullifier1[:]...)
	buf = append(buf, u.Nullifier2[:]...)
	buf = append(buf, u.ChangeCommitment[:]...)
	buf = append(buf, u.MerkleRoot[:]...)
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], u.Amount)
	buf = append(buf, amt[:]...)
	return buf
}

// PoolSeeds returns the fixed PDA seed components for the pool, tree, and
// nullifier-set accounts associated with tokenMint, per §6's account
// derivation rules. The core never computes the derived addresses itself
// (that is the wallet adapter's job against its chain's PDA derivation
// rules) — it only hands back the seed components faithfully.
func PoolSeeds(tokenMint [FieldSize]byte) (pool, tree, nullifierSet [][]byte) {
	poolSeed := [][]byte{[]byte("shielded_pool"), tokenMint[:]}
	// tree and nullifierSet seeds reference the pool PDA itself, which only
	// the wallet adapter can derive; the core exposes the literal seed
	// labels instead of a computed address.
	treeSeed := [][]byte{[]byte("merkle_tree")}
	nullifierSeed := [][]byte{[]byte("nullifier_set")}
	return poolSeed, treeSeed, nullifierSeed
}

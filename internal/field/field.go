// Package field implements arithmetic over the BN254 scalar field and the
// Poseidon hash used pervasively by the shielded pool's commitment and
// nullifier formulas. Every downstream component — notes, the Merkle
// accumulator, the Groth16 circuit — shares this single field type so there
// is never a conversion boundary between "the field the wallet computes in"
// and "the field the prover compiles for".
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Element is a value in Fp, the BN254 scalar field. It is a direct alias of
// gnark-crypto's field type so arithmetic (Add, Mul, Inverse, ...) and the
// Groth16 witness builder both operate on the same representation.
type Element = fr.Element

// ByteLen is the canonical encoded size of an Element.
const ByteLen = fr.Bytes

// Modulus returns p, the BN254 scalar field modulus.
func Modulus() *big.Int {
	return fr.Modulus()
}

// Zero returns the additive identity.
func Zero() Element {
	var e Element
	return e
}

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.SetOne()
	return e
}

// FromUint64 lifts a uint64 into the field.
func FromUint64(v uint64) Element {
	var e Element
	e.SetUint64(v)
	return e
}

// Equal reports whether two elements are the same field value.
func Equal(a, b Element) bool {
	return a.Equal(&b)
}

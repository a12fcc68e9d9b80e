package field

import (
	"errors"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// ErrUnsupportedArity is returned when Poseidon is called with an input
// count the pinned parameter set doesn't support. The on-chain circuit
// only ever needs t=2 (unary hashing, e.g. the Merkle tree's empty leaf)
// through t=5 (the 4-input note commitment), so callers
// outside that range have a bug, not a missing feature.
var ErrUnsupportedArity = errors.New("field: poseidon supports 1 to 4 inputs")

// Poseidon hashes 1 to 4 field elements with the circomlib-parameterized
// permutation (round constants and MDS matrix pinned by go-iden3-crypto),
// bit-for-bit compatible with the on-chain verifier's hash gadget. No domain
// separator is prepended, per §6.
func Poseidon(inputs ...Element) (Element, error) {
	if len(inputs) < 1 || len(inputs) > 4 {
		return Element{}, ErrUnsupportedArity
	}

	ins := make([]*big.Int, len(inputs))
	for i := range inputs {
		bi := new(big.Int)
		inputs[i].BigInt(bi)
		ins[i] = bi
	}

	out, err := poseidon.Hash(ins)
	if err != nil {
		return Element{}, err
	}

	var result Element
	result.SetBigInt(out)
	return result, nil
}

// MustPoseidon hashes inputs whose arity the caller has already validated
// (e.g. a fixed-shape commitment formula). It panics on arity errors only —
// a programmer error, never a runtime condition a caller should recover from.
func MustPoseidon(inputs ...Element) Element {
	out, err := Poseidon(inputs...)
	if err != nil {
		panic(err)
	}
	return out
}

package prover

import (
	"fmt"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/backend/groth16"
	bn254backend "github.com/consensys/gnark/backend/groth16/bn254"
)

// encodeProof marshals a gnark Groth16 proof into the fixed-size,
// uncompressed on-chain layout a Solana-style BN254 verifier expects: raw
// (non-compressed) G1 points for pi_a/pi_c and a raw G2 point for pi_b.
// The generic groth16.Proof interface hides the curve-specific fields, so
// the concrete *bn254backend.Proof is recovered via type assertion, the
// same pattern the teacher's CircuitManager used when it needed the
// concrete backend type (internal/zkp/circuits.go).
func encodeProof(proof groth16.Proof) (Groth16Proof, error) {
	concrete, ok := proof.(*bn254backend.Proof)
	if !ok {
		return Groth16Proof{}, fmt.Errorf("prover: unexpected proof type %T", proof)
	}

	var out Groth16Proof
	piA := concrete.Ar.RawBytes()
	piB := concrete.Bs.RawBytes()
	piC := concrete.Krs.RawBytes()
	copy(out.PiA[:], piA[:])
	copy(out.PiB[:], piB[:])
	copy(out.PiC[:], piC[:])
	return out, nil
}

// decodeProof reverses encodeProof.
func decodeProof(p Groth16Proof) (groth16.Proof, error) {
	var ar curve.G1Affine
	if _, err := ar.SetBytes(p.PiA[:]); err != nil {
		return nil, fmt.Errorf("prover: unmarshal pi_a: %w", err)
	}
	var bs curve.G2Affine
	if _, err := bs.SetBytes(p.PiB[:]); err != nil {
		return nil, fmt.Errorf("prover: unmarshal pi_b: %w", err)
	}
	var krs curve.G1Affine
	if _, err := krs.SetBytes(p.PiC[:]); err != nil {
		return nil, fmt.Errorf("prover: unmarshal pi_c: %w", err)
	}

	return &bn254backend.Proof{Ar: ar, Bs: bs, Krs: krs}, nil
}

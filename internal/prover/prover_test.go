package prover

import (
	"context"
	"testing"

	"github.com/shieldedpay/core/internal/field"
)

// buildTrivialWitness constructs a witness where both inputs are dummy,
// both outputs are zero-value, and the public amount is zero: the minimal
// witness the circuit should accept without any real note data.
func buildTrivialWitness(tokenMint field.Element) (PrivateWitness, PublicInputs) {
	var priv PrivateWitness
	priv.Inputs[0] = InputWitness{IsDummy: true}
	priv.Inputs[1] = InputWitness{IsDummy: true}

	// Dummy-input checks (nullifier, owner pubkey, Merkle path) are all
	// gated off in-circuit, so the public nullifiers can be left at zero.
	// Output commitments are NOT dummy-gated and must match exactly.
	outCommitZero := field.MustPoseidon(field.Zero(), field.Zero(), field.Zero(), tokenMint)

	pub := PublicInputs{
		TokenMint:         tokenMint,
		PublicAmount:      0,
		OutputCommitment1: outCommitZero,
		OutputCommitment2: outCommitZero,
	}

	return priv, pub
}

func TestSetupProducesUsableBackend(t *testing.T) {
	backend, err := Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if backend.VerifyingKey() == nil {
		t.Fatal("expected a non-nil verifying key from Setup")
	}
}

func TestGenerateAndVerifyTransferProof(t *testing.T) {
	backend, err := Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	tokenMint := field.FromUint64(7)
	priv, pub := buildTrivialWitness(tokenMint)

	proof, err := backend.GenerateTransferProof(context.Background(), priv, pub)
	if err != nil {
		t.Fatalf("generate proof: %v", err)
	}

	if err := backend.VerifyProof(proof, pub); err != nil {
		t.Fatalf("verify proof: %v", err)
	}
}

func TestVerifyRejectsTamperedPublicAmount(t *testing.T) {
	backend, err := Setup()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	tokenMint := field.FromUint64(7)
	priv, pub := buildTrivialWitness(tokenMint)

	proof, err := backend.GenerateTransferProof(context.Background(), priv, pub)
	if err != nil {
		t.Fatalf("generate proof: %v", err)
	}

	tamperedPub := pub
	tamperedPub.PublicAmount = 1

	if err := backend.VerifyProof(proof, tamperedPub); err == nil {
		t.Fatal("expected verification to fail against a tampered public amount")
	}
}

func TestProofBytesLength(t *testing.T) {
	var p Groth16Proof
	if got, want := len(p.Bytes()), 64+128+64; got != want {
		t.Fatalf("proof byte length = %d, want %d", got, want)
	}
}

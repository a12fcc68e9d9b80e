package prover

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/shieldedpay/core/internal/field"
)

// ProveTimeout bounds how long a single Groth16.Prove call is allowed to
// run before the adapter gives up and returns ErrProvingTimedOut.
// Chosen per §4.4's non-functional note that proving must not hang a
// client operation indefinitely; calibrate against the deployed circuit's
// actual constraint count.
const ProveTimeout = 120 * time.Second

var (
	// ErrProvingTimedOut is returned when proof generation exceeds ProveTimeout
	// or the caller's context is done first.
	ErrProvingTimedOut = errors.New("prover: proof generation exceeded its deadline")
	// ErrVerificationFailed is returned by VerifyProof when the proof does not
	// check out against the public inputs.
	ErrVerificationFailed = errors.New("prover: proof failed verification")
)

// Backend owns one circuit's Groth16 proving and verifying keys. A Backend
// is produced once per deployment by Setup (or loaded from a trusted-setup
// ceremony transcript) and then reused concurrently by many proof requests;
// groth16.Prove/Verify are safe for concurrent use given independent
// witnesses.
type Backend struct {
	ccs groth16.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

// Setup compiles TransferCircuit and runs a (non-production, non-toxic-waste-
// discarding) Groth16 setup, mirroring the pattern the teacher's
// CircuitManager used for its placeholder circuits
// (internal/zkp/circuits.go) but against a real constraint system. A real
// deployment replaces this with the output of an audited multi-party
// ceremony; Setup exists so the adapter and its tests are self-contained.
func Setup() (*Backend, error) {
	var circuit TransferCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("prover: compile circuit: %w", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("prover: groth16 setup: %w", err)
	}

	return &Backend{ccs: ccs, pk: pk, vk: vk}, nil
}

// VerifyingKey exposes the backend's verifying key so it can be shipped to
// the on-chain verifier program independently of this process.
func (b *Backend) VerifyingKey() groth16.VerifyingKey {
	return b.vk
}

// GenerateTransferProof builds the full witness for one 2-in-2-out transfer
// and drives Groth16 proving, returning the on-chain proof encoding plus the
// public input vector the caller must submit alongside it. It respects ctx
// cancellation and enforces ProveTimeout regardless of what the caller's own
// deadline is.
func (b *Backend) GenerateTransferProof(ctx context.Context, priv PrivateWitness, pub PublicInputs) (Groth16Proof, error) {
	ctx, cancel := context.WithTimeout(ctx, ProveTimeout)
	defer cancel()

	assignment, err := buildAssignment(priv, pub)
	if err != nil {
		return Groth16Proof{}, err
	}

	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return Groth16Proof{}, fmt.Errorf("prover: build witness: %w", err)
	}

	type result struct {
		proof groth16.Proof
		err   error
	}
	done := make(chan result, 1)
	go func() {
		proof, err := groth16.Prove(b.ccs, b.pk, fullWitness)
		done <- result{proof, err}
	}()

	select {
	case <-ctx.Done():
		return Groth16Proof{}, ErrProvingTimedOut
	case r := <-done:
		if r.err != nil {
			return Groth16Proof{}, fmt.Errorf("prover: groth16 prove: %w", r.err)
		}
		return encodeProof(r.proof)
	}
}

// VerifyProof checks proof against the public input vector pub. It is the
// host-side analogue of whatever on-chain verifier consumes the same
// verifying key; callers that only need to sanity-check a proof before
// submission (rather than trust the chain) use this directly.
func (b *Backend) VerifyProof(proof Groth16Proof, pub PublicInputs) error {
	decoded, err := decodeProof(proof)
	if err != nil {
		return err
	}

	publicAssignment := buildPublicAssignment(pub)
	publicWitness, err := frontend.NewWitness(publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("prover: build public witness: %w", err)
	}

	if err := groth16.Verify(decoded, b.vk, publicWitness); err != nil {
		return ErrVerificationFailed
	}
	return nil
}

func buildAssignment(priv PrivateWitness, pub PublicInputs) (*TransferCircuit, error) {
	c := buildPublicAssignment(pub)

	for i := 0; i < 2; i++ {
		in := priv.Inputs[i]
		c.InAmount[i] = in.Amount
		c.InOwnerPubkey[i] = feToBig(in.OwnerPubkey)
		c.InRandomness[i] = feToBig(in.Randomness)
		if in.IsDummy {
			c.InIsDummy[i] = 1
		} else {
			c.InIsDummy[i] = 0
		}
		for level := 0; level < TreeDepth; level++ {
			c.InPathIndices[i][level] = in.PathIndices[level]
			c.InPathElements[i][level] = feToBig(in.PathElements[level])
		}
	}

	for j := 0; j < 2; j++ {
		out := priv.Outputs[j]
		c.OutAmount[j] = out.Amount
		c.OutRecipient[j] = feToBig(out.Recipient)
		c.OutRandomness[j] = feToBig(out.Randomness)
	}

	c.SpendingKey = feToBig(priv.SpendingKey)

	return c, nil
}

// buildPublicAssignment fills only the public fields, leaving the private
// witness fields at their zero value; used both as the starting point for
// the full prover assignment and, on its own, as the verifier's public-only
// witness.
func buildPublicAssignment(pub PublicInputs) *TransferCircuit {
	return &TransferCircuit{
		MerkleRoot:        feToBig(pub.MerkleRoot),
		Nullifier1:        feToBig(pub.Nullifier1),
		Nullifier2:        feToBig(pub.Nullifier2),
		OutputCommitment1: feToBig(pub.OutputCommitment1),
		OutputCommitment2: feToBig(pub.OutputCommitment2),
		PublicAmount:      pub.PublicAmount,
		TokenMint:         feToBig(pub.TokenMint),
	}
}

func feToBig(e field.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

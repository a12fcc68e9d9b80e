package client

import (
	"context"

	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/noteengine"
	"github.com/shieldedpay/core/pkg/types"
)

// Unshield exits amount from the pool to an external (transparent)
// destination (§4.5 "unshield"). It shares the transfer flow's coin
// selection and proving pipeline but the primary output leaves the pool
// entirely — only the change note (if any) is a real shielded output, and
// the public amount is negative.
func (c *ShieldedClient) Unshield(ctx context.Context, amount uint64) (TransferResult, error) {
	const op = "unshield"
	if err := c.beginOp(op); err != nil {
		return TransferResult{}, err
	}

	plan, err := c.planSpend(amount)
	if err != nil {
		c.endOp(err)
		return TransferResult{}, err
	}

	// The withdrawn value has no shielded recipient: it is represented in
	// the circuit as a zero-amount dummy output so the fixed 2-output
	// shape is still satisfied, but it is never inserted into the tree or
	// carried on the wire.
	withdrawnOut := noteengine.DummyNote(plan.tokenMint)
	withdrawnCommitment, err := noteengine.ComputeCommitment(0, withdrawnOut.OwnerPubkey, withdrawnOut.Randomness, plan.tokenMint)
	if err != nil {
		c.endOp(err)
		return TransferResult{}, newError(ProofFailed, op, err)
	}
	withdrawnOut.Commitment = withdrawnCommitment
	changeOut, err := noteengine.CreateNote(plan.changeAmount, plan.spendingKeyHash, plan.tokenMint)
	if err != nil {
		c.endOp(err)
		return TransferResult{}, newError(ProofFailed, op, err)
	}

	proof, pub, nullifierBytes, err := c.prove(ctx, plan, changeOut, withdrawnOut, -int64(amount))
	if err != nil {
		c.endOp(err)
		return TransferResult{}, newError(ProofFailed, op, err)
	}

	var proofBytes [types.ProofSize]byte
	copy(proofBytes[:], proof.Bytes())
	instr := types.UnshieldInstruction{
		Proof:            proofBytes,
		Nullifier1:       field.FieldToBytes(pub.Nullifier1),
		Nullifier2:       field.FieldToBytes(pub.Nullifier2),
		ChangeCommitment: field.FieldToBytes(pub.OutputCommitment1),
		MerkleRoot:       field.FieldToBytes(pub.MerkleRoot),
		Amount:           amount,
	}

	result, err := submit(ctx, plan.conn, plan.wallet, plan.programSeed, plan.tokenMint, instr.Bytes())
	if err != nil {
		c.endOp(err)
		return TransferResult{}, err
	}

	// changeOut is output slot 1 here (not slot 2 as in Transfer), so
	// applySpendResult's "insertPrimary" parameter must be false: neither
	// slot's primary (the withdrawn dummy) belongs in the tree, and
	// changeOut is passed as the function's change argument regardless of
	// slot position.
	newCommitments := c.applySpendResult(plan, withdrawnOut, changeOut, false)
	c.endOp(nil)

	return TransferResult{
		Signature:       result.Signature,
		NewCommitments:  newCommitments,
		NullifiersSpent: spentNullifiers(nullifierBytes),
		NewRoot:         result.NewRoot,
	}, nil
}

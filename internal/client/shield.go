package client

import (
	"context"

	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/noteengine"
	"github.com/shieldedpay/core/pkg/types"
)

// ShieldResult is returned by Shield on success.
type ShieldResult struct {
	Signature       string
	NewCommitments  [][32]byte
	NullifiersSpent [][32]byte
	NewRoot         [32]byte
}

// Shield moves amount from the transparent side into the pool (§4.5
// "shield(amount)"). No proof is required: the host program checks the
// transparent deposit against the emitted commitment's amount with a
// non-ZK check.
func (c *ShieldedClient) Shield(ctx context.Context, amount uint64) (ShieldResult, error) {
	const op = "shield"
	if err := c.beginOp(op); err != nil {
		return ShieldResult{}, err
	}

	c.mu.Lock()
	ownerPubkey := c.spendingKey.OwnerPubkey
	tokenMint := c.cfg.TokenMint
	conn := c.cfg.Connection
	wallet := c.cfg.Wallet
	programSeed := c.programSeed
	c.mu.Unlock()

	note, err := noteengine.CreateNote(amount, ownerPubkey, tokenMint)
	if err != nil {
		c.endOp(err)
		return ShieldResult{}, newError(ProofFailed, op, err)
	}

	commitmentBytes := field.FieldToBytes(note.Commitment)
	instr := types.ShieldInstruction{Amount: amount, Commitment: commitmentBytes}

	result, submitErr := submit(ctx, conn, wallet, programSeed, tokenMint, instr.Bytes())
	if submitErr != nil {
		c.endOp(submitErr)
		return ShieldResult{}, submitErr
	}

	c.mu.Lock()
	leafIndex, insertErr := c.tree.Insert(note.Commitment)
	if insertErr == nil {
		note.LeafIndex = &leafIndex
		c.notes = append(c.notes, note)
	}
	c.mu.Unlock()

	if insertErr != nil {
		c.endOp(insertErr)
		return ShieldResult{}, newError(TreeFull, op, insertErr)
	}

	c.endOp(nil)
	return ShieldResult{
		Signature:      result.Signature,
		NewCommitments: [][32]byte{commitmentBytes},
		NewRoot:        result.NewRoot,
	}, nil
}

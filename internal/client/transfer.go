package client

import (
	"context"

	"github.com/shieldedpay/core/internal/address"
	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/merkle"
	"github.com/shieldedpay/core/internal/noteengine"
	"github.com/shieldedpay/core/internal/prover"
	"github.com/shieldedpay/core/pkg/types"
)

// TransferResult is returned by Transfer and Unshield on success.
type TransferResult struct {
	Signature       string
	NewCommitments  [][32]byte
	NullifiersSpent [][32]byte
	NewRoot         [32]byte
}

// Transfer moves amount from the caller's notes to recipient entirely
// within the pool (§4.5 "transfer"). The public amount is always 0: value
// only moves between shielded outputs.
func (c *ShieldedClient) Transfer(ctx context.Context, recipient address.ZkAddress, amount uint64) (TransferResult, error) {
	const op = "transfer"
	if err := c.beginOp(op); err != nil {
		return TransferResult{}, err
	}

	plan, err := c.planSpend(amount)
	if err != nil {
		c.endOp(err)
		return TransferResult{}, err
	}

	recipientPubkey := field.BytesToField(recipient.ReceivingPubkey)
	recipientOut, err := noteengine.CreateNote(amount, recipientPubkey, plan.tokenMint)
	if err != nil {
		c.endOp(err)
		return TransferResult{}, newError(ProofFailed, op, err)
	}
	changeOut, err := noteengine.CreateNote(plan.changeAmount, plan.spendingKeyHash, plan.tokenMint)
	if err != nil {
		c.endOp(err)
		return TransferResult{}, newError(ProofFailed, op, err)
	}

	proof, pub, nullifierBytes, err := c.prove(ctx, plan, recipientOut, changeOut, 0)
	if err != nil {
		c.endOp(err)
		return TransferResult{}, newError(ProofFailed, op, err)
	}

	var proofBytes [types.ProofSize]byte
	copy(proofBytes[:], proof.Bytes())
	instr := types.TransferInstruction{
		Proof:             proofBytes,
		Nullifier1:        field.FieldToBytes(pub.Nullifier1),
		Nullifier2:        field.FieldToBytes(pub.Nullifier2),
		OutputCommitment1: field.FieldToBytes(pub.OutputCommitment1),
		OutputCommitment2: field.FieldToBytes(pub.OutputCommitment2),
		MerkleRoot:        field.FieldToBytes(pub.MerkleRoot),
	}

	result, err := submit(ctx, plan.conn, plan.wallet, plan.programSeed, plan.tokenMint, instr.Bytes())
	if err != nil {
		c.endOp(err)
		return TransferResult{}, err
	}

	newCommitments := c.applySpendResult(plan, recipientOut, changeOut, true)
	c.endOp(nil)

	return TransferResult{
		Signature:       result.Signature,
		NewCommitments:  newCommitments,
		NullifiersSpent: spentNullifiers(nullifierBytes),
		NewRoot:         result.NewRoot,
	}, nil
}

// spendPlan snapshots everything a spend operation needs up front, taken
// under the client lock once so the rest of the flow (proving, submission)
// runs lock-free.
type spendPlan struct {
	selected        []*noteengine.Note
	realInputCount  int
	changeAmount    uint64
	tokenMint       field.Element
	spendingKey     field.Element
	spendingKeyHash field.Element
	conn            types.ChainConnection
	wallet          types.WalletAdapter
	programSeed     string
	backend         *prover.Backend
	tree            *merkle.Tree
}

func (c *ShieldedClient) planSpend(amount uint64) (spendPlan, error) {
	c.mu.Lock()
	notesSnapshot := append([]*noteengine.Note(nil), c.notes...)
	tokenMint := c.cfg.TokenMint
	spendingKey := c.spendingKey.SpendingKey
	spendingKeyHash := c.spendingKey.SpendingKeyHash
	conn := c.cfg.Connection
	wallet := c.cfg.Wallet
	programSeed := c.programSeed
	backend := c.prover
	tree := c.tree
	c.mu.Unlock()

	selected, err := selectCoins(notesSnapshot, amount)
	if err != nil {
		return spendPlan{}, err
	}

	var totalSelected uint64
	for _, n := range selected {
		totalSelected += n.Amount
	}

	return spendPlan{
		selected:        selected,
		realInputCount:  len(selected),
		changeAmount:    totalSelected - amount,
		tokenMint:       tokenMint,
		spendingKey:     spendingKey,
		spendingKeyHash: spendingKeyHash,
		conn:            conn,
		wallet:          wallet,
		programSeed:     programSeed,
		backend:         backend,
		tree:            tree,
	}, nil
}

// prove builds the input witnesses for the selected/padded notes, the two
// output witnesses, and drives C4 to produce a proof and its public input
// vector.
func (c *ShieldedClient) prove(ctx context.Context, plan spendPlan, out1, out2 *noteengine.Note, publicAmount int64) (prover.Groth16Proof, prover.PublicInputs, [2]field.Element, error) {
	inputs, nullifierBytes, err := buildInputWitnesses(plan.tree, plan.selected, plan.spendingKeyHash)
	if err != nil {
		return prover.Groth16Proof{}, prover.PublicInputs{}, nullifierBytes, err
	}

	priv := prover.PrivateWitness{
		Inputs: inputs,
		Outputs: [2]prover.OutputWitness{
			{Amount: out1.Amount, Recipient: out1.OwnerPubkey, Randomness: out1.Randomness},
			{Amount: out2.Amount, Recipient: out2.OwnerPubkey, Randomness: out2.Randomness},
		},
		SpendingKey: plan.spendingKey,
	}
	pub := prover.PublicInputs{
		MerkleRoot:        plan.tree.Root(),
		Nullifier1:        nullifierBytes[0],
		Nullifier2:        nullifierBytes[1],
		OutputCommitment1: out1.Commitment,
		OutputCommitment2: out2.Commitment,
		PublicAmount:      publicAmount,
		TokenMint:         plan.tokenMint,
	}

	proof, err := plan.backend.GenerateTransferProof(ctx, priv, pub)
	if err != nil {
		return prover.Groth16Proof{}, prover.PublicInputs{}, nullifierBytes, err
	}
	return proof, pub, nullifierBytes, nil
}

// applySpendResult removes the spent notes from local state and inserts
// whichever output commitments are real pool members into the tree;
// insertPrimary controls whether the first output (the transfer recipient)
// is inserted — unshield's primary output leaves the pool and is never
// inserted. The change output (second) is inserted and tracked locally
// only when it carries a non-zero amount.
func (c *ShieldedClient) applySpendResult(plan spendPlan, primary, change *noteengine.Note, insertPrimary bool) [][32]byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notes = removeSpent(c.notes, plan.selected)

	var newCommitments [][32]byte
	if insertPrimary {
		if _, err := c.tree.Insert(primary.Commitment); err == nil {
			newCommitments = append(newCommitments, field.FieldToBytes(primary.Commitment))
		}
	}
	if change.Amount > 0 {
		leafIndex, err := c.tree.Insert(change.Commitment)
		if err == nil {
			change.LeafIndex = &leafIndex
			c.notes = append(c.notes, change)
			newCommitments = append(newCommitments, field.FieldToBytes(change.Commitment))
		}
	}
	return newCommitments
}

// buildInputWitnesses generates Merkle proofs for each selected note,
// padding with a dummy input when only one real note was selected, and
// returns the resulting circuit input witnesses alongside their nullifiers.
func buildInputWitnesses(tree *merkle.Tree, selected []*noteengine.Note, spendingKeyHash field.Element) ([2]prover.InputWitness, [2]field.Element, error) {
	var inputs [2]prover.InputWitness
	var nullifiers [2]field.Element

	notes := make([]*noteengine.Note, 2)
	notes[0] = selected[0]
	if len(selected) == 2 {
		notes[1] = selected[1]
	} else {
		notes[1] = noteengine.DummyNote(selected[0].TokenMint)
	}

	for i, n := range notes {
		if n.IsDummy() {
			inputs[i] = prover.InputWitness{IsDummy: true}
			// The circuit gates the nullifier-equality check off for dummy
			// inputs (InIsDummy), so nothing in-circuit constrains this
			// value. It still needs to be fresh per call: a fixed
			// dummy-slot nullifier would let a nullifier-set program
			// mistake two unrelated single-note spends for a double-spend.
			dummyNullifier, err := field.Random()
			if err != nil {
				return inputs, nullifiers, err
			}
			nullifiers[i] = dummyNullifier
			continue
		}

		proof, err := tree.GenerateProof(*n.LeafIndex)
		if err != nil {
			return inputs, nullifiers, err
		}

		inputs[i] = prover.InputWitness{
			Amount:       n.Amount,
			OwnerPubkey:  n.OwnerPubkey,
			Randomness:   n.Randomness,
			IsDummy:      false,
			PathIndices:  proof.PathIndices,
			PathElements: proof.PathElements,
		}

		nullifier, err := noteengine.ComputeNullifier(n.Commitment, spendingKeyHash)
		if err != nil {
			return inputs, nullifiers, err
		}
		nullifiers[i] = nullifier
	}

	return inputs, nullifiers, nil
}

func removeSpent(notes []*noteengine.Note, spent []*noteengine.Note) []*noteengine.Note {
	spentSet := make(map[*noteengine.Note]struct{}, len(spent))
	for _, s := range spent {
		spentSet[s] = struct{}{}
	}
	out := make([]*noteengine.Note, 0, len(notes))
	for _, n := range notes {
		if _, isSpent := spentSet[n]; isSpent {
			continue
		}
		out = append(out, n)
	}
	return out
}

// spentNullifiers always reports both slots: a single-note spend still
// produces a dummy-equivalent second nullifier (E5), since the circuit's
// input shape is fixed at two regardless of how many notes were real.
func spentNullifiers(nullifiers [2]field.Element) [][32]byte {
	return [][32]byte{field.FieldToBytes(nullifiers[0]), field.FieldToBytes(nullifiers[1])}
}

package noteengine

import "github.com/shieldedpay/core/internal/field"

// Note is the atomic unit of spendable shielded value.
type Note struct {
	Amount      uint64
	OwnerPubkey field.Element
	Randomness  field.Element
	TokenMint   field.Element
	Commitment  field.Element

	// LeafIndex is nil until the note's commitment has been inserted into
	// the Merkle accumulator.
	LeafIndex *uint64
}

// ComputeCommitment recomputes commitment = Poseidon(amount, owner_pubkey,
// randomness, token_mint). Exposed standalone so verification code can
// recompute it without constructing a full Note.
func ComputeCommitment(amount uint64, ownerPubkey, randomness, tokenMint field.Element) (field.Element, error) {
	return field.Poseidon(field.FromUint64(amount), ownerPubkey, randomness, tokenMint)
}

// CreateNote samples fresh randomness and computes the resulting
// commitment for a new note of the given shape.
func CreateNote(amount uint64, ownerPubkey, tokenMint field.Element) (*Note, error) {
	randomness, err := field.Random()
	if err != nil {
		return nil, err
	}
	commitment, err := ComputeCommitment(amount, ownerPubkey, randomness, tokenMint)
	if err != nil {
		return nil, err
	}
	return &Note{
		Amount:      amount,
		OwnerPubkey: ownerPubkey,
		Randomness:  randomness,
		TokenMint:   tokenMint,
		Commitment:  commitment,
	}, nil
}

// ComputeNullifier derives nullifier = Poseidon(commitment, spending_key_hash).
func ComputeNullifier(commitment, spendingKeyHash field.Element) (field.Element, error) {
	return field.Poseidon(commitment, spendingKeyHash)
}

// DummyNote synthesizes the zero-valued input note used to pad a
// single-note transfer to the circuit's fixed two-input shape. Its Merkle
// proof is never generated or checked — the circuit's dummy branch accepts
// amount=0 inputs unconditionally.
func DummyNote(tokenMint field.Element) *Note {
	return &Note{
		Amount:      0,
		OwnerPubkey: field.Zero(),
		Randomness:  field.Zero(),
		TokenMint:   tokenMint,
		Commitment:  field.Zero(),
	}
}

// IsDummy reports whether n is the synthesized zero-valued padding note.
func (n *Note) IsDummy() bool {
	return n.Amount == 0 && field.Equal(n.OwnerPubkey, field.Zero()) && n.LeafIndex == nil
}

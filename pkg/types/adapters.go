package types

import "context"

// WalletAdapter is the narrow capability interface the core depends on for
// host-chain signing, per §9's "loose object with methods" → "narrow
// capability interface" redesign note. The core never sees a raw
// private key.
type WalletAdapter interface {
	PublicKey() []byte
	SignTransaction(ctx context.Context, tx []byte) (signedTx []byte, err error)
}

// SubmissionResult is what a ChainConnection hands back after an
// instruction has been confirmed (or rejected) by the host chain.
type SubmissionResult struct {
	Signature  string
	NewRoot    [FieldSize]byte
	Rejected   bool
	RejectCode string
}

// CommitmentEvent is one on-chain commitment-insertion event, as surfaced
// by scanning; LeafIndex is the position the host chain assigned it.
type CommitmentEvent struct {
	LeafIndex  uint64
	Commitment [FieldSize]byte
	Ciphertext []byte
}

// ChainConnection is the other capability interface the core depends on:
// submitting opaque instruction payloads and reading back commitment
// events for scanning and sync. Everything about RPC transport, retries,
// and account resolution is the adapter's concern, not the core's.
type ChainConnection interface {
	SubmitInstruction(ctx context.Context, programSeed string, tokenMint [FieldSize]byte, data []byte, signedTx []byte) (SubmissionResult, error)
	FetchCommitmentEvents(ctx context.Context, tokenMint [FieldSize]byte, fromLeafIndex uint64) ([]CommitmentEvent, error)
	CurrentRoot(ctx context.Context, tokenMint [FieldSize]byte) ([FieldSize]byte, error)
}

package client

import (
	"context"
	"testing"

	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/noteengine"
	"github.com/shieldedpay/core/pkg/types"
)

// scanChain is a types.ChainConnection double whose commitment events and
// current root are set directly by the test, rather than derived from
// submitted instructions like fakeChain/LoopbackChain — scan and sync
// scenarios care about what the chain reports back, not about round-
// tripping a real submission.
type scanChain struct {
	events []types.CommitmentEvent
	root   [32]byte
}

func (s *scanChain) SubmitInstruction(_ context.Context, _ string, _ [32]byte, _, _ []byte) (types.SubmissionResult, error) {
	return types.SubmissionResult{}, nil
}

func (s *scanChain) FetchCommitmentEvents(_ context.Context, _ [32]byte, fromLeafIndex uint64) ([]types.CommitmentEvent, error) {
	var out []types.CommitmentEvent
	for _, ev := range s.events {
		if ev.LeafIndex >= fromLeafIndex {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *scanChain) CurrentRoot(_ context.Context, _ [32]byte) ([32]byte, error) {
	return s.root, nil
}

func TestScanForNotesDecryptsAndAppendsNote(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	note, err := noteengine.CreateNote(42, c.spendingKey.OwnerPubkey, c.cfg.TokenMint)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	ciphertext, err := noteengine.EncryptNote(note, c.viewingKey)
	if err != nil {
		t.Fatalf("EncryptNote: %v", err)
	}
	commitmentBytes := field.FieldToBytes(note.Commitment)

	c.cfg.Connection = &scanChain{events: []types.CommitmentEvent{
		{LeafIndex: 0, Commitment: commitmentBytes, Ciphertext: ciphertext},
	}}

	result, err := c.ScanForNotes(ctx, 0)
	if err != nil {
		t.Fatalf("ScanForNotes: %v", err)
	}
	if len(result.Notes) != 1 {
		t.Fatalf("expected 1 discovered note, got %d", len(result.Notes))
	}
	if result.Notes[0].Amount != 42 {
		t.Fatalf("discovered note amount = %d, want 42", result.Notes[0].Amount)
	}
	if got := c.NoteCount(); got != 1 {
		t.Fatalf("note count after scan = %d, want 1", got)
	}
	if got := c.ShieldedBalance(); got != 42 {
		t.Fatalf("balance after scan = %d, want 42", got)
	}
}

func TestScanForNotesDiscardsCorruptedCommitment(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	note, err := noteengine.CreateNote(7, c.spendingKey.OwnerPubkey, c.cfg.TokenMint)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	ciphertext, err := noteengine.EncryptNote(note, c.viewingKey)
	if err != nil {
		t.Fatalf("EncryptNote: %v", err)
	}

	// The on-chain leaf claims a different commitment than the one the
	// decrypted note actually recomputes to.
	var wrongCommitment [32]byte
	copy(wrongCommitment[:], field.FieldToBytes(field.FromUint64(999))[:])

	c.cfg.Connection = &scanChain{events: []types.CommitmentEvent{
		{LeafIndex: 0, Commitment: wrongCommitment, Ciphertext: ciphertext},
	}}

	result, err := c.ScanForNotes(ctx, 0)
	if err != nil {
		t.Fatalf("ScanForNotes: %v", err)
	}
	if len(result.Notes) != 0 {
		t.Fatalf("expected the corrupted note to be discarded, got %d notes", len(result.Notes))
	}
	if got := c.NoteCount(); got != 0 {
		t.Fatalf("note count after corrupted scan = %d, want 0", got)
	}
}

func TestSyncCatchesUpLocalTree(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c1 := field.FieldToBytes(field.FromUint64(111))
	c2 := field.FieldToBytes(field.FromUint64(222))
	chain := &scanChain{
		events: []types.CommitmentEvent{
			{LeafIndex: 0, Commitment: c1},
			{LeafIndex: 1, Commitment: c2},
		},
		root: [32]byte{0xFF},
	}
	c.cfg.Connection = chain

	if got := c.TreeLeafCount(); got != 0 {
		t.Fatalf("leaf count before sync = %d, want 0", got)
	}

	if err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := c.TreeLeafCount(); got != 2 {
		t.Fatalf("leaf count after sync = %d, want 2", got)
	}
}

func TestSyncNoOpWhenRootsMatch(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	chain := &scanChain{root: field.FieldToBytes(c.tree.Root())}
	c.cfg.Connection = chain

	if err := c.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := c.TreeLeafCount(); got != 0 {
		t.Fatalf("leaf count after no-op sync = %d, want 0", got)
	}
}

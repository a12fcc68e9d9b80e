package client

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/shieldedpay/core/internal/address"
	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/pkg/types"
)

// fakeChain is a minimal in-memory types.ChainConnection good enough to
// drive the orchestrator end to end: it records every submitted
// instruction's claimed commitments against a running root, and never
// rejects. Scenario tests that need a rejection construct their own
// single-purpose stub inline instead of overloading this one with a mode
// flag.
type fakeChain struct {
	root [32]byte
}

func (f *fakeChain) SubmitInstruction(_ context.Context, _ string, _ [32]byte, data []byte, _ []byte) (types.SubmissionResult, error) {
	f.root = sha256.Sum256(append(f.root[:], data...))
	return types.SubmissionResult{Signature: "fake", NewRoot: f.root}, nil
}

func (f *fakeChain) FetchCommitmentEvents(_ context.Context, _ [32]byte, _ uint64) ([]types.CommitmentEvent, error) {
	return nil, nil
}

func (f *fakeChain) CurrentRoot(_ context.Context, _ [32]byte) ([32]byte, error) {
	return f.root, nil
}

type fakeWallet struct{}

func (fakeWallet) PublicKey() []byte { return []byte("fake-pubkey") }
func (fakeWallet) SignTransaction(_ context.Context, tx []byte) ([]byte, error) {
	return tx, nil
}

func newTestClient(t *testing.T) *ShieldedClient {
	t.Helper()
	c := NewClient(Config{
		Connection: &fakeChain{},
		Wallet:     fakeWallet{},
		TokenMint:  field.Zero(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := c.Initialize(ctx, []byte("correct horse battery staple seed material")); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

// E1: shield then balance.
func TestShieldThenBalance(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	result, err := c.Shield(ctx, 100)
	if err != nil {
		t.Fatalf("Shield: %v", err)
	}
	if len(result.NewCommitments) != 1 {
		t.Fatalf("expected 1 new commitment, got %d", len(result.NewCommitments))
	}
	if got := c.ShieldedBalance(); got != 100 {
		t.Fatalf("balance = %d, want 100", got)
	}
	if got := c.NoteCount(); got != 1 {
		t.Fatalf("note count = %d, want 1", got)
	}
	if c.State() != StateReady {
		t.Fatalf("state = %v, want Ready", c.State())
	}
}

// E2: double shield accumulates balance across two independent notes.
func TestDoubleShield(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Shield(ctx, 40); err != nil {
		t.Fatalf("first Shield: %v", err)
	}
	if _, err := c.Shield(ctx, 60); err != nil {
		t.Fatalf("second Shield: %v", err)
	}
	if got := c.ShieldedBalance(); got != 100 {
		t.Fatalf("balance = %d, want 100", got)
	}
	if got := c.NoteCount(); got != 2 {
		t.Fatalf("note count = %d, want 2", got)
	}
	if got := c.TreeLeafCount(); got != 2 {
		t.Fatalf("leaf count = %d, want 2", got)
	}
}

// E3: transfer with change leaves the sender holding the change note and
// spends exactly one nullifier slot meaningfully (the second is the
// dummy-padding nullifier, per spentNullifiers' documented always-both
// behavior).
func TestTransferWithChange(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Shield(ctx, 100); err != nil {
		t.Fatalf("Shield: %v", err)
	}

	recipient := address.ZkAddress{}
	recipient.ReceivingPubkey = field.FieldToBytes(field.FromUint64(0xdead))
	recipient.ViewingKey = [32]byte{1}

	result, err := c.Transfer(ctx, recipient, 30)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if len(result.NullifiersSpent) != 2 {
		t.Fatalf("expected 2 nullifier slots, got %d", len(result.NullifiersSpent))
	}
	if len(result.NewCommitments) != 2 {
		t.Fatalf("expected recipient + change commitments, got %d", len(result.NewCommitments))
	}
	if got := c.ShieldedBalance(); got != 70 {
		t.Fatalf("balance after transfer = %d, want 70 (change only)", got)
	}
}

// E4: an exact transfer (no change) produces no second commitment.
func TestTransferExactNoChange(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Shield(ctx, 50); err != nil {
		t.Fatalf("Shield: %v", err)
	}

	recipient := address.ZkAddress{}
	recipient.ReceivingPubkey = field.FieldToBytes(field.FromUint64(0xbeef))

	result, err := c.Transfer(ctx, recipient, 50)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if len(result.NewCommitments) != 1 {
		t.Fatalf("expected only the recipient commitment, got %d", len(result.NewCommitments))
	}
	if got := c.ShieldedBalance(); got != 0 {
		t.Fatalf("balance after exact transfer = %d, want 0", got)
	}
}

// E5: a partial unshield consumes one real note, produces a change note,
// and still reports two nullifier slots because the circuit's input shape
// is fixed at two regardless of how many notes were real.
func TestUnshieldPartial(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Shield(ctx, 80); err != nil {
		t.Fatalf("Shield: %v", err)
	}

	result, err := c.Unshield(ctx, 20)
	if err != nil {
		t.Fatalf("Unshield: %v", err)
	}
	if len(result.NullifiersSpent) != 2 {
		t.Fatalf("expected 2 nullifier slots, got %d", len(result.NullifiersSpent))
	}
	if len(result.NewCommitments) != 1 {
		t.Fatalf("expected only the change commitment, got %d", len(result.NewCommitments))
	}
	if got := c.ShieldedBalance(); got != 60 {
		t.Fatalf("balance after unshield = %d, want 60 (change only)", got)
	}
}

func TestOperationsFailBeforeInitialize(t *testing.T) {
	c := NewClient(Config{Connection: &fakeChain{}, Wallet: fakeWallet{}})
	_, err := c.Shield(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != NotInitialized {
		t.Fatalf("expected NotInitialized, got %v", err)
	}
}

func TestInsufficientBalanceLeavesStateUntouched(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.Shield(ctx, 10); err != nil {
		t.Fatalf("Shield: %v", err)
	}

	_, err := c.Transfer(ctx, address.ZkAddress{}, 1000)
	if err == nil {
		t.Fatal("expected InsufficientBalance error, got nil")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != InsufficientBalance {
		t.Fatalf("expected InsufficientBalance, got %v", err)
	}

	if got := c.ShieldedBalance(); got != 10 {
		t.Fatalf("balance after failed transfer = %d, want unchanged 10", got)
	}
	// endOp(err) always transitions to Failed regardless of how early the
	// operation aborted; the guarantee this test cares about is that notes
	// and the tree were never touched, not that the state stayed Ready.
	if c.State() != StateFailed {
		t.Fatalf("state after failed transfer = %v, want Failed", c.State())
	}
}

func TestBusyRejectsConcurrentOp(t *testing.T) {
	c := newTestClient(t)
	if err := c.beginOp("manual-hold"); err != nil {
		t.Fatalf("beginOp: %v", err)
	}
	defer c.endOp(nil)

	_, err := c.Shield(context.Background(), 10)
	if err == nil {
		t.Fatal("expected Busy error, got nil")
	}
	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != Busy {
		t.Fatalf("expected Busy, got %v", err)
	}
}

func TestRecoverClearsFailedState(t *testing.T) {
	c := newTestClient(t)
	c.mu.Lock()
	c.state = StateFailed
	c.mu.Unlock()

	c.Recover()
	if c.State() != StateReady {
		t.Fatalf("state after Recover = %v, want Ready", c.State())
	}
}

func TestPersistAndRestoreRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	if _, err := c.Shield(ctx, 25); err != nil {
		t.Fatalf("Shield: %v", err)
	}

	store := NewMemoryStore()
	if err := c.Persist(ctx, store, "wallet-1"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	fresh := newTestClient(t)
	if err := fresh.Restore(ctx, store, "wallet-1"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := fresh.ShieldedBalance(); got != 25 {
		t.Fatalf("restored balance = %d, want 25", got)
	}
	if got := fresh.TreeLeafCount(); got != 1 {
		t.Fatalf("restored leaf count = %d, want 1", got)
	}
}

// Package client implements the shielded-pool orchestrator (C5): the single
// stateful core that owns a wallet's spendable notes, its local view of the
// pool's Merkle tree, and the three user-facing operations (shield,
// transfer, unshield). It is generalized from the teacher's ShieldedPool /
// TransactionBuilder orchestration (internal/zkp/transaction.go) onto this
// repo's real note/commitment/prover stack.
package client

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/merkle"
	"github.com/shieldedpay/core/internal/noteengine"
	"github.com/shieldedpay/core/internal/prover"
	"github.com/shieldedpay/core/pkg/types"
)

// State is the client's lifecycle state per §4.5 "State machine".
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateBusy
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateBusy:
		return "Busy"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Config carries everything the constructor needs, per §6's
// "Configuration options" list. Connection and Wallet are required;
// WasmPath/ZkeyPath are accepted for interface parity with the source but
// unused by this backend (Setup always compiles+sets-up in-process — see
// DESIGN.md); TokenMint defaults to the host chain's native-token identifier
// when left at the zero element.
type Config struct {
	Connection types.ChainConnection
	Wallet     types.WalletAdapter
	WasmPath   string
	ZkeyPath   string
	TokenMint  field.Element

	// Logger, if nil, defaults to logrus.StandardLogger().
	Logger *logrus.Logger
}

// ShieldedClient is the single-user orchestrator described by §4.5. One
// instance owns exactly one wallet's notes, tree, and spending keys;
// distinct instances share no mutable state and may run concurrently.
type ShieldedClient struct {
	cfg    Config
	log    *logrus.Logger
	prover *prover.Backend

	mu    sync.Mutex
	state State

	tree        *merkle.Tree
	notes       []*noteengine.Note
	spendingKey *noteengine.SpendingKeyPair
	viewingKey  [32]byte
	programSeed string
}

// NewClient constructs a client in StateUninitialized. No cryptographic
// material is derived and no proving backend is built until Initialize runs.
func NewClient(cfg Config) *ShieldedClient {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ShieldedClient{
		cfg:   cfg,
		log:   logger,
		state: StateUninitialized,
	}
}

// Initialize drives Uninitialized → Ready: it derives the wallet's spending
// and viewing keys from seed, builds the in-memory Merkle tree, and runs
// the (potentially expensive) Groth16 setup for the transfer circuit. It
// respects ctx cancellation; a cancelled or failed Initialize leaves the
// client in Uninitialized with no partial state, per §5's cancellation
// guarantee.
func (c *ShieldedClient) Initialize(ctx context.Context, seed []byte) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return newError(Busy, "initialize", nil)
	}
	c.mu.Unlock()

	type setupResult struct {
		keyPair    *noteengine.SpendingKeyPair
		viewingKey [32]byte
		backend    *prover.Backend
		err        error
	}

	done := make(chan setupResult, 1)
	go func() {
		keyPair, err := noteengine.GenerateSpendingKeyPair(seed)
		if err != nil {
			done <- setupResult{err: err}
			return
		}
		viewingKey, err := noteengine.DeriveViewingKey(keyPair.SpendingKey)
		if err != nil {
			done <- setupResult{err: err}
			return
		}
		backend, err := prover.Setup()
		if err != nil {
			done <- setupResult{err: err}
			return
		}
		done <- setupResult{keyPair: keyPair, viewingKey: viewingKey, backend: backend}
	}()

	select {
	case <-ctx.Done():
		// initialize never completed; the client is still Uninitialized and
		// no Busy/Failed kind applies, so this is reported the same as any
		// other not-yet-initialized condition.
		return newError(NotInitialized, "initialize", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return newError(InvalidSeed, "initialize", r.err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state != StateUninitialized {
			return newError(Busy, "initialize", nil)
		}

		c.spendingKey = r.keyPair
		c.viewingKey = r.viewingKey
		c.prover = r.backend
		c.tree = merkle.New()
		c.notes = nil
		c.programSeed = "shielded_pool"
		c.state = StateReady
		return nil
	}
}

// beginOp transitions Ready → Busy(op). It rejects the call with a
// NotInitialized error if the client is uninitialized, and with a Busy
// error if it is already busy or Failed (until Recover is called).
func (c *ShieldedClient) beginOp(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateUninitialized:
		return newError(NotInitialized, op, nil)
	case StateBusy:
		return newError(Busy, op, nil)
	case StateFailed:
		return newError(Busy, op, nil)
	}
	c.state = StateBusy
	return nil
}

// endOp transitions Busy(op) → Ready on success or Failed(op) on failure,
// applying no local state changes in the failure case (the caller must not
// have mutated c.notes/c.tree before calling endOp with a non-nil err).
func (c *ShieldedClient) endOp(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateFailed
		return
	}
	c.state = StateReady
}

// Recover clears a Failed state back to Ready without touching wallet
// state, letting a caller retry after inspecting the failure. The source
// spec does not define an explicit recovery path beyond "Failed(op)"; this
// is the minimal operation that makes Failed not a dead end.
func (c *ShieldedClient) Recover() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFailed {
		c.state = StateReady
	}
}

// State reports the client's current lifecycle state.
func (c *ShieldedClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ShieldedBalance returns the sum of locally-known spendable note amounts.
func (c *ShieldedClient) ShieldedBalance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total uint64
	for _, n := range c.notes {
		total += n.Amount
	}
	return total
}

// NoteCount returns the number of locally-known spendable notes.
func (c *ShieldedClient) NoteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notes)
}

// TreeLeafCount returns the local tree's leaf count.
func (c *ShieldedClient) TreeLeafCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tree == nil {
		return 0
	}
	return c.tree.LeafCount()
}

package main

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/shieldedpay/core/pkg/types"
)

// LoopbackChain is a single-process stand-in for a host-chain RPC
// connection: it accepts instructions unconditionally (no proof
// verification, no nullifier-set enforcement) and replays back whatever
// commitments were "submitted" as scan events. It exists purely so the CLI
// can exercise shield/transfer/unshield end to end without a deployed
// on-chain program; a real deployment replaces this with an adapter that
// talks to the actual chain.
type LoopbackChain struct {
	mu          sync.Mutex
	commitments [][types.FieldSize]byte
	root        [types.FieldSize]byte
}

// NewLoopbackChain constructs an empty loopback chain at the zero root.
func NewLoopbackChain() *LoopbackChain {
	return &LoopbackChain{}
}

// shieldDataLen/transferDataLen/unshieldDataLen mirror the three
// instruction Bytes() layouts in pkg/types/instructions.go; the loopback
// has no program ABI to dispatch on, so it tells instructions apart by
// their fixed encoded length.
const (
	shieldDataLen   = 8 + types.FieldSize
	transferDataLen = types.ProofSize + 5*types.FieldSize
	unshieldDataLen = types.ProofSize + 4*types.FieldSize + 8
)

func (l *LoopbackChain) SubmitInstruction(_ context.Context, _ string, _ [types.FieldSize]byte, data []byte, _ []byte) (types.SubmissionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range commitmentsInPayload(data) {
		l.commitments = append(l.commitments, c)
	}
	l.root = sha256.Sum256(append(l.root[:], data...))

	return types.SubmissionResult{
		Signature: "loopback",
		NewRoot:   l.root,
	}, nil
}

// commitmentsInPayload extracts the output commitment(s) an instruction
// introduces to the tree, in the same order the real on-chain program
// would append leaves.
func commitmentsInPayload(data []byte) [][types.FieldSize]byte {
	switch len(data) {
	case shieldDataLen:
		var c [types.FieldSize]byte
		copy(c[:], data[8:8+types.FieldSize])
		return [][types.FieldSize]byte{c}
	case transferDataLen:
		off := types.ProofSize + 2*types.FieldSize
		var c1, c2 [types.FieldSize]byte
		copy(c1[:], data[off:off+types.FieldSize])
		copy(c2[:], data[off+types.FieldSize:off+2*types.FieldSize])
		return [][types.FieldSize]byte{c1, c2}
	case unshieldDataLen:
		off := types.ProofSize + 2*types.FieldSize
		var c [types.FieldSize]byte
		copy(c[:], data[off:off+types.FieldSize])
		return [][types.FieldSize]byte{c}
	default:
		return nil
	}
}

func (l *LoopbackChain) FetchCommitmentEvents(_ context.Context, _ [types.FieldSize]byte, fromLeafIndex uint64) ([]types.CommitmentEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var events []types.CommitmentEvent
	for i := int(fromLeafIndex); i < len(l.commitments); i++ {
		events = append(events, types.CommitmentEvent{
			LeafIndex:  uint64(i),
			Commitment: l.commitments[i],
		})
	}
	return events, nil
}

func (l *LoopbackChain) CurrentRoot(_ context.Context, _ [types.FieldSize]byte) ([types.FieldSize]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.root, nil
}

// LoopbackWallet signs by returning the payload unmodified: there is no
// real host-chain key material in this process, only the shielded
// spending key the core itself never exposes.
type LoopbackWallet struct {
	pubkey []byte
}

// NewLoopbackWallet derives a stable pseudo-public-key from seed so
// repeated CLI invocations against the same seed look like the same
// "wallet" to the loopback chain.
func NewLoopbackWallet(seed []byte) *LoopbackWallet {
	sum := sha256.Sum256(seed)
	return &LoopbackWallet{pubkey: sum[:]}
}

func (w *LoopbackWallet) PublicKey() []byte { return w.pubkey }

func (w *LoopbackWallet) SignTransaction(_ context.Context, tx []byte) ([]byte, error) {
	return tx, nil
}

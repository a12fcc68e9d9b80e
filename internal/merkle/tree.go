// Package merkle implements the append-only, fixed-depth incremental
// Poseidon Merkle tree that accumulates note commitments for one shielded
// pool. It is generalized from the teacher's SHA-256 commitment tree
// (internal/zkp/merkle.go in the reference repo) to the spec's Poseidon
// hash and historical-root window.
package merkle

import (
	"errors"
	"sync"

	"github.com/shieldedpay/core/internal/field"
)

// Depth is the fixed tree depth (≈1M leaves of capacity).
const Depth = 20

// HistoryWindow is the number of past roots kept so a membership proof
// computed against a just-overtaken root can still be accepted. A minimal
// deployment can shrink this to 1 to require transactions to land before
// any other insertion; calibrate against the deployed verifier.
const HistoryWindow = 100

var (
	ErrTreeFull            = errors.New("merkle: tree is full")
	ErrLeafIndexOutOfRange = errors.New("merkle: leaf index exceeds inserted leaves")
	ErrDuplicateCommitment = errors.New("merkle: commitment already present in tree")
)

// MembershipProof is a bottom-up path from a leaf to the root: at level i,
// PathIndices[i] selects left(0)/right(1) and PathElements[i] is the
// sibling at that level.
type MembershipProof struct {
	LeafIndex    uint64
	PathIndices  [Depth]uint8
	PathElements [Depth]field.Element
}

type nodeKey struct {
	level uint8
	index uint64
}

// Tree is one append-only Poseidon Merkle tree for a single (pool,
// token_mint) pair. Tree owns its state exclusively; callers in internal/client
// hold one Tree per pool.
type Tree struct {
	mu sync.RWMutex

	zero        [Depth + 1]field.Element
	nodes       map[nodeKey]field.Element
	seen        map[field.Element]struct{}
	nextIndex   uint64
	root        field.Element
	rootHistory []field.Element
}

// New creates an initialized, empty tree.
func New() *Tree {
	t := &Tree{
		nodes: make(map[nodeKey]field.Element),
		seen:  make(map[field.Element]struct{}),
	}
	t.Initialize()
	return t
}

// Initialize (re)computes the canonical zero-hash cache
// Z[0]=Poseidon(0), Z[i]=Poseidon(Z[i-1], Z[i-1]) and resets the root to the
// empty tree's root. It is idempotent: calling it twice on a tree that has
// never been inserted into leaves no residue, satisfying testable property 7.
// Calling it on a tree that already has leaves re-derives the same zero
// cache but does not touch inserted nodes or nextIndex.
func (t *Tree) Initialize() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.zero[0] = field.MustPoseidon(field.Zero())
	for i := 1; i <= Depth; i++ {
		t.zero[i] = field.MustPoseidon(t.zero[i-1], t.zero[i-1])
	}

	if t.nextIndex == 0 {
		t.root = t.zero[Depth]
		t.rootHistory = []field.Element{t.root}
	}
}

// Insert appends leaf at the next free position, updates the O(Depth)
// affected internal nodes, and returns the assigned leaf index. Duplicate
// commitments are refused as a precondition violation rather than silently
// accepted, since the on-chain program rejects them anyway.
func (t *Tree) Insert(leaf field.Element) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[leaf]; dup {
		return 0, ErrDuplicateCommitment
	}

	maxLeaves := uint64(1) << Depth
	if t.nextIndex >= maxLeaves {
		return 0, ErrTreeFull
	}

	index := t.nextIndex
	t.nextIndex++
	t.seen[leaf] = struct{}{}
	t.nodes[nodeKey{0, index}] = leaf

	current := leaf
	idx := index
	for level := uint8(0); level < Depth; level++ {
		siblingIdx := idx ^ 1
		sibling, ok := t.nodes[nodeKey{level, siblingIdx}]
		if !ok {
			sibling = t.zero[level]
		}

		var parent field.Element
		if idx%2 == 0 {
			parent = field.MustPoseidon(current, sibling)
		} else {
			parent = field.MustPoseidon(sibling, current)
		}

		idx /= 2
		current = parent
		t.nodes[nodeKey{level + 1, idx}] = current
	}

	t.root = current
	t.pushRootHistory(current)

	return index, nil
}

func (t *Tree) pushRootHistory(r field.Element) {
	t.rootHistory = append(t.rootHistory, r)
	if len(t.rootHistory) > HistoryWindow {
		t.rootHistory = t.rootHistory[len(t.rootHistory)-HistoryWindow:]
	}
}

// Root returns the current root.
func (t *Tree) Root() field.Element {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// IsKnownRoot reports whether r is the current root or still within the
// historical-root window, i.e. a proof generated against it is still
// acceptable.
func (t *Tree) IsKnownRoot(r field.Element) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, h := range t.rootHistory {
		if field.Equal(h, r) {
			return true
		}
	}
	return false
}

// LeafCount returns the number of leaves inserted so far.
func (t *Tree) LeafCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextIndex
}

// GenerateProof walks the path from leafIndex to the root.
func (t *Tree) GenerateProof(leafIndex uint64) (*MembershipProof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if leafIndex >= t.nextIndex {
		return nil, ErrLeafIndexOutOfRange
	}

	proof := &MembershipProof{LeafIndex: leafIndex}
	idx := leafIndex
	for level := uint8(0); level < Depth; level++ {
		siblingIdx := idx ^ 1
		sibling, ok := t.nodes[nodeKey{level, siblingIdx}]
		if !ok {
			sibling = t.zero[level]
		}
		proof.PathElements[level] = sibling
		proof.PathIndices[level] = uint8(idx & 1)
		idx /= 2
	}

	return proof, nil
}

// Verify checks that leaf, folded up through proof, reconstructs root,
// using the same Poseidon permutation used at insertion time.
func Verify(leaf field.Element, proof *MembershipProof, root field.Element) bool {
	current := leaf
	for level := 0; level < Depth; level++ {
		sibling := proof.PathElements[level]
		if proof.PathIndices[level] == 0 {
			current = field.MustPoseidon(current, sibling)
		} else {
			current = field.MustPoseidon(sibling, current)
		}
	}
	return field.Equal(current, root)
}

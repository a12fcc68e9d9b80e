package merkle

import "github.com/shieldedpay/core/internal/field"

// Snapshot is the serializable state of a Tree, used by internal/storage to
// persist a pool's commitment tree across process restarts without
// re-deriving every internal node from the leaf log.
type Snapshot struct {
	NextIndex   uint64
	Nodes       map[[2]uint64]field.Element // [level, index] -> hash
	RootHistory []field.Element
}

// Snapshot captures the tree's current state.
func (t *Tree) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	nodes := make(map[[2]uint64]field.Element, len(t.nodes))
	for k, v := range t.nodes {
		nodes[[2]uint64{uint64(k.level), k.index}] = v
	}
	history := make([]field.Element, len(t.rootHistory))
	copy(history, t.rootHistory)

	return Snapshot{
		NextIndex:   t.nextIndex,
		Nodes:       nodes,
		RootHistory: history,
	}
}

// Restore replaces t's state with a previously captured Snapshot. The
// zero-hash cache is left untouched since it depends only on Depth. Restore
// is only safe to call on a freshly constructed, empty Tree.
func (t *Tree) Restore(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nodes = make(map[nodeKey]field.Element, len(s.Nodes))
	t.seen = make(map[field.Element]struct{}, len(s.Nodes))
	for k, v := range s.Nodes {
		nk := nodeKey{level: uint8(k[0]), index: k[1]}
		t.nodes[nk] = v
		if nk.level == 0 {
			t.seen[v] = struct{}{}
		}
	}
	t.nextIndex = s.NextIndex
	t.rootHistory = append([]field.Element(nil), s.RootHistory...)
	if len(t.rootHistory) > 0 {
		t.root = t.rootHistory[len(t.rootHistory)-1]
	} else {
		t.root = t.zero[Depth]
	}
}

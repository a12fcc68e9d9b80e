package client

import (
	"sort"

	"github.com/shieldedpay/core/internal/noteengine"
)

// maxInputs is the circuit's hard cap on spendable inputs per transaction.
const maxInputs = 2

// selectCoins implements the deterministic selection policy from §4.5
// "Coin selection": sort by amount descending, tie-break by leaf index
// ascending, walk until either the target is covered or the two-input cap
// is hit. Returns ErrInsufficientBalance if the cap is reached first, even
// when the wallet's total balance would otherwise cover amount.
func selectCoins(notes []*noteengine.Note, amount uint64) ([]*noteengine.Note, error) {
	candidates := make([]*noteengine.Note, len(notes))
	copy(candidates, notes)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Amount != candidates[j].Amount {
			return candidates[i].Amount > candidates[j].Amount
		}
		li, lj := leafIndexOf(candidates[i]), leafIndexOf(candidates[j])
		return li < lj
	})

	var selected []*noteengine.Note
	var accumulated uint64
	for _, n := range candidates {
		if len(selected) >= maxInputs {
			break
		}
		selected = append(selected, n)
		accumulated += n.Amount
		if accumulated >= amount {
			return selected, nil
		}
	}

	if len(selected) > 0 && accumulated >= amount {
		return selected, nil
	}
	return nil, ErrInsufficientBalance
}

// leafIndexOf returns a note's leaf index for tie-breaking. A
// not-yet-inserted note (LeafIndex == nil) gets the maximum index, so it
// sorts after every inserted note of the same amount. Every note in the
// local set has already been confirmed on-chain by the time it reaches
// coin selection, so this only defends against a construction bug upstream.
func leafIndexOf(n *noteengine.Note) uint64 {
	if n.LeafIndex == nil {
		return ^uint64(0)
	}
	return *n.LeafIndex
}

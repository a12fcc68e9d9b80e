package client

import (
	"context"

	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/noteengine"
)

// ScanResult is returned by ScanForNotes.
type ScanResult struct {
	Notes          []*noteengine.Note
	ScannedToIndex uint64
	TotalBalance   uint64
}

// ScanForNotes walks on-chain commitment events from fromLeafIndex upward,
// attempting to decrypt each against the wallet's viewing key. A decrypted
// note whose recomputed commitment does not match the on-chain leaf it was
// attached to is discarded and logged as ScanCorruption rather than
// accepted — a malicious or buggy encryptor must not be able to smuggle a
// note past this check (§4.5 "Scanning and sync").
func (c *ShieldedClient) ScanForNotes(ctx context.Context, fromLeafIndex uint64) (ScanResult, error) {
	const op = "scan_for_notes"
	if err := c.beginOp(op); err != nil {
		return ScanResult{}, err
	}

	c.mu.Lock()
	conn := c.cfg.Connection
	tokenMint := c.cfg.TokenMint
	viewingKey := c.viewingKey
	c.mu.Unlock()

	mintBytes := field.FieldToBytes(tokenMint)
	events, err := conn.FetchCommitmentEvents(ctx, mintBytes, fromLeafIndex)
	if err != nil {
		c.endOp(err)
		return ScanResult{}, newError(SubmissionRejected, op, err)
	}

	var discovered []*noteengine.Note
	scannedTo := fromLeafIndex
	for _, ev := range events {
		scannedTo = ev.LeafIndex
		note, ok := noteengine.DecryptNote(ev.Ciphertext, viewingKey)
		if !ok {
			continue
		}

		commitmentBytes := field.FieldToBytes(note.Commitment)
		if commitmentBytes != ev.Commitment {
			c.log.WithFields(map[string]interface{}{
				"leaf_index": ev.LeafIndex,
				"kind":       ScanCorruption.String(),
			}).Warn("discarding note whose recomputed commitment does not match its on-chain leaf")
			continue
		}

		leafIndex := ev.LeafIndex
		note.LeafIndex = &leafIndex
		discovered = append(discovered, note)
	}

	c.mu.Lock()
	existing := make(map[[32]byte]struct{}, len(c.notes))
	for _, n := range c.notes {
		existing[field.FieldToBytes(n.Commitment)] = struct{}{}
	}
	for _, n := range discovered {
		if _, dup := existing[field.FieldToBytes(n.Commitment)]; dup {
			continue
		}
		c.notes = append(c.notes, n)
	}
	var total uint64
	for _, n := range c.notes {
		total += n.Amount
	}
	c.mu.Unlock()

	c.endOp(nil)
	return ScanResult{Notes: discovered, ScannedToIndex: scannedTo, TotalBalance: total}, nil
}

// Sync compares the local tree root with the latest on-chain root and, when
// they differ, catches up by fetching and appending the commitment events
// from the local leaf count onward (§4.5 "Scanning and sync"). The root is
// not compared again after the events are appended.
func (c *ShieldedClient) Sync(ctx context.Context) error {
	const op = "sync"
	if err := c.beginOp(op); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.cfg.Connection
	tokenMint := c.cfg.TokenMint
	tree := c.tree
	localLeafCount := tree.LeafCount()
	c.mu.Unlock()

	mintBytes := field.FieldToBytes(tokenMint)
	onChainRoot, err := conn.CurrentRoot(ctx, mintBytes)
	if err != nil {
		c.endOp(err)
		return newError(SubmissionRejected, op, err)
	}

	c.mu.Lock()
	localRoot := field.FieldToBytes(tree.Root())
	c.mu.Unlock()
	if localRoot == onChainRoot {
		c.endOp(nil)
		return nil
	}

	events, err := conn.FetchCommitmentEvents(ctx, mintBytes, localLeafCount)
	if err != nil {
		c.endOp(err)
		return newError(SubmissionRejected, op, err)
	}

	c.mu.Lock()
	for _, ev := range events {
		if _, err := c.tree.Insert(field.BytesToField(ev.Commitment)); err != nil {
			c.mu.Unlock()
			c.endOp(err)
			return newError(TreeFull, op, err)
		}
	}
	c.mu.Unlock()

	c.endOp(nil)
	return nil
}

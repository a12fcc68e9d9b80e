// Package storage implements Postgres-backed persistence for a shielded
// client's wallet state, adapted from the teacher's block/transaction
// PostgresStore (same pgxpool connection-pool pattern, same Config shape)
// onto this repo's notes-and-tree-snapshot schema.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldedpay/core/internal/field"
	"github.com/shieldedpay/core/internal/merkle"
	"github.com/shieldedpay/core/internal/noteengine"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrDBConnection = errors.New("storage: database connection error")
)

// PostgresStore implements client.WalletStateStore using PostgreSQL. It
// satisfies the interface structurally; internal/storage does not import
// internal/client to avoid a cycle (client is the consumer, not a
// dependency).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Config holds database configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns default database configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "shieldedpay",
		Password: "",
		Database: "shieldedpay",
		SSLMode:  "disable",
		MaxConns: 20,
	}
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, cfg *Config) (*PostgresStore, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDBConnection, err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// SaveNotes replaces the full spendable-notes set for walletID. Notes are
// small and the set is bounded by circuit economics (a wallet rarely
// carries more than a few dozen), so a delete-then-bulk-insert transaction
// is simpler and cheap enough; a high-churn wallet could instead diff
// against the stored set, but nothing in this core's workload needs that.
func (s *PostgresStore) SaveNotes(ctx context.Context, walletID string, notes []*noteengine.Note) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM wallet_notes WHERE wallet_id = $1`, walletID); err != nil {
		return fmt.Errorf("storage: clear notes: %w", err)
	}

	const insert = `
		INSERT INTO wallet_notes (wallet_id, amount, owner_pubkey, randomness, token_mint, commitment, leaf_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, n := range notes {
		var leafIndex interface{}
		if n.LeafIndex != nil {
			leafIndex = int64(*n.LeafIndex)
		}
		ownerBytes := field.FieldToBytes(n.OwnerPubkey)
		randBytes := field.FieldToBytes(n.Randomness)
		mintBytes := field.FieldToBytes(n.TokenMint)
		commitBytes := field.FieldToBytes(n.Commitment)

		if _, err := tx.Exec(ctx, insert,
			walletID, n.Amount, ownerBytes[:], randBytes[:], mintBytes[:], commitBytes[:], leafIndex,
		); err != nil {
			return fmt.Errorf("storage: insert note: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadNotes returns the stored spendable-notes set for walletID.
func (s *PostgresStore) LoadNotes(ctx context.Context, walletID string) ([]*noteengine.Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT amount, owner_pubkey, randomness, token_mint, commitment, leaf_index
		FROM wallet_notes WHERE wallet_id = $1
	`, walletID)
	if err != nil {
		return nil, fmt.Errorf("storage: query notes: %w", err)
	}
	defer rows.Close()

	var notes []*noteengine.Note
	for rows.Next() {
		var amount uint64
		var ownerB, randB, mintB, commitB []byte
		var leafIndex *int64

		if err := rows.Scan(&amount, &ownerB, &randB, &mintB, &commitB, &leafIndex); err != nil {
			return nil, fmt.Errorf("storage: scan note: %w", err)
		}

		note := &noteengine.Note{
			Amount:      amount,
			OwnerPubkey: field.BytesToField(to32(ownerB)),
			Randomness:  field.BytesToField(to32(randB)),
			TokenMint:   field.BytesToField(to32(mintB)),
			Commitment:  field.BytesToField(to32(commitB)),
		}
		if leafIndex != nil {
			idx := uint64(*leafIndex)
			note.LeafIndex = &idx
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// SaveTreeSnapshot persists a Merkle tree snapshot for walletID, replacing
// any previously stored snapshot.
func (s *PostgresStore) SaveTreeSnapshot(ctx context.Context, walletID string, snap merkle.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM wallet_tree_nodes WHERE wallet_id = $1`, walletID); err != nil {
		return fmt.Errorf("storage: clear tree nodes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM wallet_tree_roots WHERE wallet_id = $1`, walletID); err != nil {
		return fmt.Errorf("storage: clear tree roots: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO wallet_trees (wallet_id, next_index) VALUES ($1, $2)
		ON CONFLICT (wallet_id) DO UPDATE SET next_index = $2
	`, walletID, int64(snap.NextIndex)); err != nil {
		return fmt.Errorf("storage: upsert tree: %w", err)
	}

	const insertNode = `INSERT INTO wallet_tree_nodes (wallet_id, level, idx, value) VALUES ($1, $2, $3, $4)`
	for key, value := range snap.Nodes {
		valBytes := field.FieldToBytes(value)
		if _, err := tx.Exec(ctx, insertNode, walletID, int32(key[0]), int64(key[1]), valBytes[:]); err != nil {
			return fmt.Errorf("storage: insert tree node: %w", err)
		}
	}

	const insertRoot = `INSERT INTO wallet_tree_roots (wallet_id, ordinal, value) VALUES ($1, $2, $3)`
	for i, root := range snap.RootHistory {
		rootBytes := field.FieldToBytes(root)
		if _, err := tx.Exec(ctx, insertRoot, walletID, i, rootBytes[:]); err != nil {
			return fmt.Errorf("storage: insert root history: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LoadTreeSnapshot returns the stored snapshot for walletID, or ok=false if
// none has been saved yet.
func (s *PostgresStore) LoadTreeSnapshot(ctx context.Context, walletID string) (merkle.Snapshot, bool, error) {
	var nextIndex int64
	err := s.pool.QueryRow(ctx, `SELECT next_index FROM wallet_trees WHERE wallet_id = $1`, walletID).Scan(&nextIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return merkle.Snapshot{}, false, nil
	}
	if err != nil {
		return merkle.Snapshot{}, false, fmt.Errorf("storage: query tree: %w", err)
	}

	nodeRows, err := s.pool.Query(ctx, `SELECT level, idx, value FROM wallet_tree_nodes WHERE wallet_id = $1`, walletID)
	if err != nil {
		return merkle.Snapshot{}, false, fmt.Errorf("storage: query tree nodes: %w", err)
	}
	defer nodeRows.Close()

	nodes := make(map[[2]uint64]field.Element)
	for nodeRows.Next() {
		var level int32
		var idx int64
		var value []byte
		if err := nodeRows.Scan(&level, &idx, &value); err != nil {
			return merkle.Snapshot{}, false, fmt.Errorf("storage: scan tree node: %w", err)
		}
		nodes[[2]uint64{uint64(level), uint64(idx)}] = field.BytesToField(to32(value))
	}

	rootRows, err := s.pool.Query(ctx, `SELECT value FROM wallet_tree_roots WHERE wallet_id = $1 ORDER BY ordinal ASC`, walletID)
	if err != nil {
		return merkle.Snapshot{}, false, fmt.Errorf("storage: query tree roots: %w", err)
	}
	defer rootRows.Close()

	var history []field.Element
	for rootRows.Next() {
		var value []byte
		if err := rootRows.Scan(&value); err != nil {
			return merkle.Snapshot{}, false, fmt.Errorf("storage: scan tree root: %w", err)
		}
		history = append(history, field.BytesToField(to32(value)))
	}

	return merkle.Snapshot{
		NextIndex:   uint64(nextIndex),
		Nodes:       nodes,
		RootHistory: history,
	}, true, nil
}

func to32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}

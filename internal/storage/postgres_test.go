package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Host)
	}
	if cfg.Port != 5432 {
		t.Errorf("Port = %d, want 5432", cfg.Port)
	}
	if cfg.Database != "shieldedpay" {
		t.Errorf("Database = %q, want shieldedpay", cfg.Database)
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("SSLMode = %q, want disable", cfg.SSLMode)
	}
	if cfg.MaxConns != 20 {
		t.Errorf("MaxConns = %d, want 20", cfg.MaxConns)
	}
}

// TestNewPostgresStoreWrapsConnectionError exercises the constructor's
// connectivity check against a host that cannot possibly answer, without
// requiring a live PostgreSQL instance in the test environment: the point
// of this test is that a dead database surfaces as ErrDBConnection, not
// that this process can actually reach one.
func TestNewPostgresStoreWrapsConnectionError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "postgres-host-does-not-exist.invalid"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewPostgresStore(ctx, cfg)
	if err == nil {
		t.Fatal("expected a connection error, got nil")
	}
	if !errors.Is(err, ErrDBConnection) {
		t.Fatalf("expected ErrDBConnection, got %v", err)
	}
}

func TestTo32(t *testing.T) {
	short := []byte{1, 2, 3}
	var want [32]byte
	want[0], want[1], want[2] = 1, 2, 3
	if got := to32(short); got != want {
		t.Fatalf("to32(short) = %x, want %x", got, want)
	}

	full := make([]byte, 32)
	for i := range full {
		full[i] = byte(i)
	}
	var wantFull [32]byte
	copy(wantFull[:], full)
	if got := to32(full); got != wantFull {
		t.Fatalf("to32(full) = %x, want %x", got, wantFull)
	}
}

package noteengine

import (
	"testing"

	"github.com/shieldedpay/core/internal/field"
)

var testMnemonic = "abandon ability able about above absent absorb abstract absurd abuse access accident"

func TestGenerateSpendingKeyPairRejectsShortSeed(t *testing.T) {
	if _, err := GenerateSpendingKeyPair([]byte("short")); err != ErrSeedTooShort {
		t.Fatalf("expected ErrSeedTooShort, got %v", err)
	}
}

func TestGenerateSpendingKeyPairDeterministic(t *testing.T) {
	kp1, err := GenerateSpendingKeyPair([]byte(testMnemonic))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	kp2, err := GenerateSpendingKeyPair([]byte(testMnemonic))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !field.Equal(kp1.SpendingKey, kp2.SpendingKey) {
		t.Fatal("spending key derivation is not deterministic")
	}
	if !field.Equal(kp1.OwnerPubkey, kp1.SpendingKeyHash) {
		t.Fatal("owner_pubkey and spending_key_hash must coincide by construction")
	}
}

func TestViewingKeyIsNotOwnerPubkeyBytes(t *testing.T) {
	kp, err := GenerateSpendingKeyPair([]byte(testMnemonic))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	vk, err := DeriveViewingKey(kp.SpendingKey)
	if err != nil {
		t.Fatalf("derive viewing key: %v", err)
	}
	ownerBytes := field.FieldToBytes(kp.OwnerPubkey)
	if vk == ownerBytes {
		t.Fatal("viewing key must not equal field_to_bytes(owner_pubkey)")
	}
}

func TestCommitmentDeterminism(t *testing.T) {
	a := field.FromUint64(100)
	p := field.FromUint64(200)
	r := field.FromUint64(300)
	m := field.FromUint64(400)

	c1, err := ComputeCommitment(100, p, r, m)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	c2, err := ComputeCommitment(100, p, r, m)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	if !field.Equal(c1, c2) {
		t.Fatal("commitment is not deterministic")
	}

	expected, err := field.Poseidon(field.FromUint64(100), p, r, m)
	if err != nil {
		t.Fatalf("poseidon: %v", err)
	}
	if !field.Equal(c1, expected) {
		t.Fatal("commitment does not match Poseidon(amount, owner, randomness, mint)")
	}
	_ = a
}

func TestNullifierDeterminismAndDistinctness(t *testing.T) {
	c1 := field.FromUint64(1)
	c2 := field.FromUint64(2)
	s := field.FromUint64(42)

	n1, err := ComputeNullifier(c1, s)
	if err != nil {
		t.Fatalf("nullifier: %v", err)
	}
	n1b, err := ComputeNullifier(c1, s)
	if err != nil {
		t.Fatalf("nullifier: %v", err)
	}
	if !field.Equal(n1, n1b) {
		t.Fatal("nullifier is not deterministic")
	}

	n2, err := ComputeNullifier(c2, s)
	if err != nil {
		t.Fatalf("nullifier: %v", err)
	}
	if field.Equal(n1, n2) {
		t.Fatal("nullifiers collided for distinct commitments")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	note, err := CreateNote(12345, field.FromUint64(7), field.FromUint64(1))
	if err != nil {
		t.Fatalf("create note: %v", err)
	}

	var vk [32]byte
	for i := range vk {
		vk[i] = byte(i)
	}

	ciphertext, err := EncryptNote(note, vk)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	decrypted, ok := DecryptNote(ciphertext, vk)
	if !ok {
		t.Fatal("decrypt failed against the correct viewing key")
	}
	if decrypted.Amount != note.Amount ||
		!field.Equal(decrypted.OwnerPubkey, note.OwnerPubkey) ||
		!field.Equal(decrypted.Randomness, note.Randomness) ||
		!field.Equal(decrypted.TokenMint, note.TokenMint) ||
		!field.Equal(decrypted.Commitment, note.Commitment) {
		t.Fatal("decrypted note does not match original")
	}

	var wrongKey [32]byte
	for i := range wrongKey {
		wrongKey[i] = byte(255 - i)
	}
	if _, ok := DecryptNote(ciphertext, wrongKey); ok {
		t.Fatal("decryption succeeded with the wrong viewing key")
	}
}

func TestDummyNoteHasZeroAmount(t *testing.T) {
	dummy := DummyNote(field.FromUint64(1))
	if dummy.Amount != 0 {
		t.Fatal("dummy note must have amount 0")
	}
	if !dummy.IsDummy() {
		t.Fatal("DummyNote() must report IsDummy() == true")
	}
}

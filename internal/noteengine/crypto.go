package noteengine

import (
	"crypto/rand"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/shieldedpay/core/internal/field"
)

// Wire format (§6): version(1) || nonce(24) || ciphertext(104) || tag(16).
const (
	wireVersion   byte = 0x01
	plaintextSize      = 8 + 32 + 32 + 32 // amount || owner_pubkey || randomness || token_mint
)

var (
	// ErrEncryptionFailed wraps unexpected AEAD construction failures (a
	// malformed viewing key length, effectively unreachable given the
	// fixed-size type, but the constructor can still fail).
	ErrEncryptionFailed = errors.New("noteengine: failed to construct AEAD cipher")
)

// EncryptNote authenticates-and-encrypts the four secret fields of note to
// recipientViewingKey using XChaCha20-Poly1305 with no associated data, per
// the bit-exact wire format in §6. A fresh nonce is drawn per call.
func EncryptNote(note *Note, recipientViewingKey [32]byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(recipientViewingKey[:])
	if err != nil {
		return nil, ErrEncryptionFailed
	}

	plaintext := make([]byte, 0, plaintextSize)
	var amountBytes [8]byte
	binary.LittleEndian.PutUint64(amountBytes[:], note.Amount)
	plaintext = append(plaintext, amountBytes[:]...)

	ownerBytes := field.FieldToBytes(note.OwnerPubkey)
	randBytes := field.FieldToBytes(note.Randomness)
	mintBytes := field.FieldToBytes(note.TokenMint)
	plaintext = append(plaintext, ownerBytes[:]...)
	plaintext = append(plaintext, randBytes[:]...)
	plaintext = append(plaintext, mintBytes[:]...)

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, 1+len(nonce)+len(sealed))
	out = append(out, wireVersion)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// DecryptNote attempts to recover a Note from wire-format ciphertext using
// viewingKey. A failed MAC or malformed envelope is reported by the bool
// return, never an error: scanning must silently skip notes addressed to
// other viewing keys rather than treat every non-match as a fault.
func DecryptNote(ciphertext []byte, viewingKey [32]byte) (*Note, bool) {
	const headerLen = 1 + chacha20poly1305.NonceSizeX
	if len(ciphertext) < headerLen+chacha20poly1305.Overhead {
		return nil, false
	}
	if ciphertext[0] != wireVersion {
		return nil, false
	}

	nonce := ciphertext[1:headerLen]
	sealed := ciphertext[headerLen:]

	aead, err := chacha20poly1305.NewX(viewingKey[:])
	if err != nil {
		return nil, false
	}

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, false
	}
	if len(plaintext) != plaintextSize {
		return nil, false
	}

	amount := binary.LittleEndian.Uint64(plaintext[0:8])
	var ownerB, randB, mintB [32]byte
	copy(ownerB[:], plaintext[8:40])
	copy(randB[:], plaintext[40:72])
	copy(mintB[:], plaintext[72:104])

	note := &Note{
		Amount:      amount,
		OwnerPubkey: field.BytesToField(ownerB),
		Randomness:  field.BytesToField(randB),
		TokenMint:   field.BytesToField(mintB),
	}
	commitment, err := ComputeCommitment(note.Amount, note.OwnerPubkey, note.Randomness, note.TokenMint)
	if err != nil {
		return nil, false
	}
	note.Commitment = commitment

	return note, true
}

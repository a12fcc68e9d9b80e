// Package address implements the zk: address codec (§4.6 / C6): a
// human-shareable encoding of a note's receiving pubkey and viewing key
// pair, generalized from the teacher's base58 wallet-address helpers
// (pkg/types/transaction.go) to the spec's base64 "zk:" scheme.
package address

import (
	"encoding/base64"
	"errors"
	"strings"
)

const (
	prefix     = "zk:"
	keyLen     = 32
	decodedLen = keyLen * 2
)

// ErrInvalidAddress is returned for any malformed address: missing prefix,
// bad base64, or wrong decoded length.
var ErrInvalidAddress = errors.New("address: invalid zk address")

// ZkAddress is the decoded form of a "zk:" address: the public key notes
// are addressed to (ReceivingPubkey, the owner_pubkey placed in a note's
// commitment) and the viewing key notes sent to it are encrypted and
// decrypted with.
type ZkAddress struct {
	ReceivingPubkey [keyLen]byte
	ViewingKey      [keyLen]byte
}

// Encode renders a ZkAddress as "zk:" + base64(receiving_pubkey || viewing_key).
func Encode(a ZkAddress) string {
	buf := make([]byte, 0, decodedLen)
	buf = append(buf, a.ReceivingPubkey[:]...)
	buf = append(buf, a.ViewingKey[:]...)
	return prefix + base64.StdEncoding.EncodeToString(buf)
}

// Decode parses a "zk:" address string, rejecting anything that does not
// carry the exact prefix and exactly 64 decoded bytes.
func Decode(s string) (ZkAddress, error) {
	if !strings.HasPrefix(s, prefix) {
		return ZkAddress{}, ErrInvalidAddress
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, prefix))
	if err != nil {
		return ZkAddress{}, ErrInvalidAddress
	}
	if len(raw) != decodedLen {
		return ZkAddress{}, ErrInvalidAddress
	}

	var a ZkAddress
	copy(a.ReceivingPubkey[:], raw[:keyLen])
	copy(a.ViewingKey[:], raw[keyLen:])
	return a, nil
}

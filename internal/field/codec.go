package field

// FieldToBytes returns the little-endian 32-byte canonical representation of
// x. gnark-crypto's Element.Bytes encodes big-endian, so the byte order is
// reversed to match the wire format the on-chain verifier expects (§6).
func FieldToBytes(x Element) [32]byte {
	be := x.Bytes()
	var le [32]byte
	for i := 0; i < 32; i++ {
		le[i] = be[31-i]
	}
	return le
}

// BytesToField interprets b as a little-endian integer and reduces it
// modulo p. Oversized input (>= p) is silently reduced, matching the
// "reduced mod p on ingest" rule in §3.
func BytesToField(b [32]byte) Element {
	var be [32]byte
	for i := 0; i < 32; i++ {
		be[i] = b[31-i]
	}
	var e Element
	e.SetBytes(be[:])
	return e
}

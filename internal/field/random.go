package field

import "errors"

// ErrRandomSourceExhausted is returned if the underlying CSPRNG fails.
var ErrRandomSourceExhausted = errors.New("field: unable to sample random element")

// Random draws a uniform field element. gnark-crypto's SetRandom reads
// ByteLen bytes from crypto/rand and rejects-and-resamples any draw whose
// big-endian integer interpretation is >= the modulus, which is exactly the
// rejection-sampling contract §4.1 requires.
func Random() (Element, error) {
	var e Element
	if _, err := e.SetRandom(); err != nil {
		return Element{}, ErrRandomSourceExhausted
	}
	return e, nil
}

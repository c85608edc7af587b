// Package crypto provides the payload cipher and key helpers for the quantum
// network simulator.
//
// The cipher is a repeating-key XOR. It models the one-time-pad usage of a
// distributed key and is not meant to protect real data.
package crypto

import (
	"crypto/rand"
	"io"

	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
)

// SecureRandom reads random bytes from the operating system CSPRNG into b.
func SecureRandom(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		return qerrors.NewCryptoError("SecureRandom", err)
	}
	return nil
}

// SecureRandomBytes returns n random bytes from the operating system CSPRNG.
func SecureRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := SecureRandom(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Zeroize overwrites b with zeros. Key stores call it on keys they replace.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

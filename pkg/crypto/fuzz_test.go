package crypto_test

import (
	"bytes"
	"testing"

	"github.com/pzverkov/quantum-netsim/pkg/crypto"
)

// FuzzRoundTrip checks decrypt(encrypt(m, k), k) == m for any non-empty k.
func FuzzRoundTrip(f *testing.F) {
	f.Add([]byte("hello"), []byte{0x01})
	f.Add([]byte{}, []byte{0xFF, 0x00})
	f.Add([]byte{0x00, 0x01, 0x02}, bytes.Repeat([]byte{0x7E}, 16))

	f.Fuzz(func(t *testing.T, msg, key []byte) {
		if len(key) == 0 {
			t.Skip()
		}
		ct, err := crypto.Encrypt(msg, key)
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if len(ct) != len(msg) {
			t.Fatalf("ciphertext length %d, want %d", len(ct), len(msg))
		}
		pt, err := crypto.Decrypt(ct, key)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if !bytes.Equal(pt, msg) {
			t.Fatalf("round trip mismatch: %x != %x", pt, msg)
		}
	})
}

// FuzzDecryptString must never panic, whatever the payload.
func FuzzDecryptString(f *testing.F) {
	f.Add([]byte{0xFF, 0xFE}, []byte{0x00})
	f.Add([]byte("plain"), []byte{0x00})

	f.Fuzz(func(t *testing.T, ct, key []byte) {
		if len(key) == 0 {
			return
		}
		_, _ = crypto.DecryptString(ct, key)
	})
}

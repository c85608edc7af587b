package crypto

import (
	"unicode/utf8"

	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
)

// Encrypt XORs plaintext against key, repeating the key to the plaintext
// length. The result is a new slice; neither argument is modified.
//
// An empty key is rejected with ErrInvalidKey.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, qerrors.NewCryptoError("Encrypt", qerrors.ErrInvalidKey)
	}
	return xorRepeat(plaintext, key), nil
}

// Decrypt reverses Encrypt. Repeating-key XOR is its own inverse, so
// Decrypt(Encrypt(m, k), k) == m for every non-empty k.
func Decrypt(ciphertext, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, qerrors.NewCryptoError("Decrypt", qerrors.ErrInvalidKey)
	}
	return xorRepeat(ciphertext, key), nil
}

// EncryptString encrypts the UTF-8 bytes of message.
func EncryptString(message string, key []byte) ([]byte, error) {
	return Encrypt([]byte(message), key)
}

// DecryptString decrypts ciphertext and interprets the result as text.
//
// When the recovered bytes are not valid UTF-8 it returns
// constants.DecryptionFailed together with ErrDecodeFailed. Callers that only
// want the text may ignore that error; it is never fatal.
func DecryptString(ciphertext, key []byte) (string, error) {
	plain, err := Decrypt(ciphertext, key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return constants.DecryptionFailed, qerrors.ErrDecodeFailed
	}
	return string(plain), nil
}

func xorRepeat(data, key []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out
}

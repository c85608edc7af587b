package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/pzverkov/quantum-netsim/internal/constants"
)

// Fingerprint returns a short hex identifier for key, suitable for logs and
// status output. The key itself is never logged.
//
//	fp = hex(SHA3-256(key)[:FingerprintSize])
func Fingerprint(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	sum := sha3.Sum256(key)
	return hex.EncodeToString(sum[:constants.FingerprintSize])
}

// Package qkd simulates quantum key distribution between entangled nodes.
//
// Key material is drawn from the caller's Rand and then degraded by channel
// noise: each byte independently has its least significant bit flipped with
// probability constants.QKDNoiseProbability. The node states only gate the
// exchange; they do not influence the key.
package qkd

import (
	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// DistributeKey produces a key for the pair (id1, id2). It requires
// AreEntangled(node id1, node id2) and returns the noisy key together with
// the number of bytes the noise touched. Neither node is modified.
func DistributeKey(net *quantum.Network, id1, id2 quantum.NodeID, r rng.Rand) ([]byte, int, error) {
	ok, err := quantum.AreEntangledIDs(net, id1, id2)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, qerrors.NewNodeError("distribute-key", uint32(id2), qerrors.ErrNotEntangled)
	}
	key, flips := GenerateKey(r)
	return key, flips, nil
}

// GenerateKey draws a fresh QKDKeySize-byte key and applies channel noise.
func GenerateKey(r rng.Rand) ([]byte, int) {
	key := rng.Bytes(r, constants.QKDKeySize)
	return key, ApplyNoise(key, r)
}

// ApplyNoise flips the low bit of each byte with probability
// QKDNoiseProbability, in place, and returns the number of bytes changed.
func ApplyNoise(key []byte, r rng.Rand) int {
	flips := 0
	for i := range key {
		if r.Float64() < constants.QKDNoiseProbability {
			key[i] ^= 0x01
			flips++
		}
	}
	return flips
}

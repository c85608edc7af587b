// Package rng supplies the randomness used by the simulator.
//
// Every operation that draws random values (key generation, key noise, error
// selection, tunneling) takes an explicit Rand so tests can fix outcomes with
// a seed. Sources are not safe for concurrent use; the service facade
// serializes access under its registry lock.
//
// Seeded sources are built as follows:
//
//	key || nonce = SHAKE-256(len(domain) || domain || len(seed) || seed, 44)
//	stream       = ChaCha20(key, nonce) keystream
//
// and each Uint64 consumes eight keystream bytes (little-endian). This is a
// simulation artifact, not a security mechanism.
package rng

import (
	"encoding/binary"
	"io"
	mrand "math/rand/v2"

	"github.com/cloudflare/circl/xof"
	"golang.org/x/crypto/chacha20"

	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/crypto"
)

// Rand is the subset of *math/rand/v2.Rand the simulator draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
	Uint64() uint64
}

// streamSource is a math/rand/v2 Source backed by a ChaCha20 keystream.
type streamSource struct {
	cipher *chacha20.Cipher
	buf    [8]byte
}

// Uint64 returns the next eight keystream bytes.
func (s *streamSource) Uint64() uint64 {
	clear(s.buf[:])
	s.cipher.XORKeyStream(s.buf[:], s.buf[:])
	return binary.LittleEndian.Uint64(s.buf[:])
}

// New returns a deterministic generator for the given seed.
// The same seed always yields the same sequence.
func New(seed uint64) *mrand.Rand {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seed)
	r, err := NewFromBytes(b[:])
	if err != nil {
		// Only reachable if the fixed key and nonce sizes are wrong.
		panic("rng: " + err.Error())
	}
	return r
}

// NewFromBytes returns a deterministic generator for an arbitrary seed.
func NewFromBytes(seed []byte) (*mrand.Rand, error) {
	src, err := newStreamSource(seed)
	if err != nil {
		return nil, err
	}
	return mrand.New(src), nil
}

// NewSecure returns a generator seeded from the operating system CSPRNG.
// Use it when reproducibility is not required.
func NewSecure() (*mrand.Rand, error) {
	seed, err := crypto.SecureRandomBytes(constants.SeedKeySize)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(seed)
	return NewFromBytes(seed)
}

// Bytes draws n independently uniform bytes from r.
func Bytes(r Rand, n int) []byte {
	out := make([]byte, n)
	var word [8]byte
	for i := 0; i < n; i += 8 {
		binary.LittleEndian.PutUint64(word[:], r.Uint64())
		copy(out[i:], word[:])
	}
	return out
}

func newStreamSource(seed []byte) (*streamSource, error) {
	h := xof.SHAKE256.New()

	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(constants.DomainSeparatorSeed)))
	_, _ = h.Write(lenBuf)
	_, _ = h.Write([]byte(constants.DomainSeparatorSeed))
	binary.BigEndian.PutUint32(lenBuf, uint32(len(seed)))
	_, _ = h.Write(lenBuf)
	_, _ = h.Write(seed)

	material := make([]byte, constants.SeedKeySize+constants.SeedNonceSize)
	if _, err := io.ReadFull(h, material); err != nil {
		return nil, qerrors.NewCryptoError("rng.expandSeed", err)
	}

	c, err := chacha20.NewUnauthenticatedCipher(
		material[:constants.SeedKeySize],
		material[constants.SeedKeySize:],
	)
	if err != nil {
		return nil, qerrors.NewCryptoError("rng.newStreamSource", err)
	}
	return &streamSource{cipher: c}, nil
}

package rng_test

import (
	"bytes"
	"testing"

	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

func TestSeededSequencesRepeat(t *testing.T) {
	a := rng.New(42)
	b := rng.New(42)

	for i := 0; i < 64; i++ {
		x, y := a.Uint64(), b.Uint64()
		if x != y {
			t.Fatalf("draw %d: %d != %d for the same seed", i, x, y)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := rng.New(1)
	b := rng.New(2)

	same := 0
	for i := 0; i < 16; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	if same == 16 {
		t.Error("different seeds produced identical sequences")
	}
}

func TestNewFromBytesMatchesNew(t *testing.T) {
	seed := []byte{0, 0, 0, 0, 0, 0, 0, 7}
	a, err := rng.NewFromBytes(seed)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	b := rng.New(7)

	if a.Uint64() != b.Uint64() {
		t.Error("NewFromBytes(big-endian 7) should match New(7)")
	}
}

func TestBytes(t *testing.T) {
	sizes := []int{0, 1, 7, 8, 9, 16, 33}
	for _, n := range sizes {
		out := rng.Bytes(rng.New(3), n)
		if len(out) != n {
			t.Errorf("Bytes(%d) returned %d bytes", n, len(out))
		}
	}

	a := rng.Bytes(rng.New(9), 16)
	b := rng.Bytes(rng.New(9), 16)
	if !bytes.Equal(a, b) {
		t.Error("Bytes should be reproducible for a fixed seed")
	}
}

func TestFloat64Range(t *testing.T) {
	r := rng.New(11)
	below := 0
	const draws = 10000
	for i := 0; i < draws; i++ {
		f := r.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64() = %v, outside [0, 1)", f)
		}
		if f < 0.5 {
			below++
		}
	}
	// Loose bound; the stream is uniform.
	if below < draws*4/10 || below > draws*6/10 {
		t.Errorf("%d of %d draws below 0.5, distribution looks skewed", below, draws)
	}
}

func TestNewSecure(t *testing.T) {
	a, err := rng.NewSecure()
	if err != nil {
		t.Fatalf("NewSecure failed: %v", err)
	}
	b, err := rng.NewSecure()
	if err != nil {
		t.Fatalf("NewSecure failed: %v", err)
	}
	if bytes.Equal(rng.Bytes(a, 32), rng.Bytes(b, 32)) {
		t.Error("two secure generators produced the same bytes")
	}
}

func BenchmarkUint64(b *testing.B) {
	r := rng.New(1)
	for i := 0; i < b.N; i++ {
		_ = r.Uint64()
	}
}

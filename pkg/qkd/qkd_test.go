package qkd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

func entangledPair(t *testing.T) *quantum.Network {
	t.Helper()
	net := quantum.NewNetwork()
	for _, id := range []quantum.NodeID{1, 2} {
		if err := net.Add(id, quantum.Zero(), quantum.Position{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := quantum.Entangle(net, 1, 2); err != nil {
		t.Fatal(err)
	}
	return net
}

func TestDistributeKeyFreshNodes(t *testing.T) {
	net := quantum.NewNetwork()
	_ = net.Add(1, quantum.Zero(), quantum.Position{})
	_ = net.Add(2, quantum.Zero(), quantum.Position{})

	_, _, err := DistributeKey(net, 1, 2, rng.New(1))
	if !errors.Is(err, qerrors.ErrNotEntangled) {
		t.Errorf("got %v, want ErrNotEntangled", err)
	}
}

func TestDistributeKeyMissingNode(t *testing.T) {
	net := quantum.NewNetwork()
	_ = net.Add(1, quantum.Zero(), quantum.Position{})

	_, _, err := DistributeKey(net, 1, 2, rng.New(1))
	if !errors.Is(err, qerrors.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestDistributeKeyEntangled(t *testing.T) {
	net := entangledPair(t)
	before1, _ := net.Get(1)
	before2, _ := net.Get(2)

	key, flips, err := DistributeKey(net, 1, 2, rng.New(42))
	if err != nil {
		t.Fatalf("DistributeKey failed: %v", err)
	}
	if len(key) != constants.QKDKeySize {
		t.Errorf("key length = %d, want %d", len(key), constants.QKDKeySize)
	}
	if flips < 0 || flips > len(key) {
		t.Errorf("flips = %d out of range", flips)
	}

	after1, _ := net.Get(1)
	after2, _ := net.Get(2)
	if !after1.State().Equal(before1.State()) || !after2.State().Equal(before2.State()) {
		t.Error("DistributeKey must not change node states")
	}
}

func TestDistributeKeyIsDirectional(t *testing.T) {
	net := entangledPair(t)
	if _, _, err := DistributeKey(net, 2, 1, rng.New(1)); !errors.Is(err, qerrors.ErrNotEntangled) {
		t.Errorf("reverse orientation: got %v, want ErrNotEntangled", err)
	}
}

func TestGenerateKeyDeterministic(t *testing.T) {
	k1, f1 := GenerateKey(rng.New(99))
	k2, f2 := GenerateKey(rng.New(99))
	if diff := cmp.Diff(k1, k2); diff != "" || f1 != f2 {
		t.Errorf("same seed produced different keys (-first +second):\n%s", diff)
	}

	k3, _ := GenerateKey(rng.New(100))
	if bytes.Equal(k1, k3) {
		t.Error("different seeds produced the same key")
	}
}

// constRand returns a fixed Float64 and zero words.
type constRand struct{ f float64 }

func (r constRand) Float64() float64 { return r.f }
func (r constRand) IntN(int) int     { return 0 }
func (r constRand) Uint64() uint64   { return 0 }

func TestApplyNoise(t *testing.T) {
	key := make([]byte, 4)
	if n := ApplyNoise(key, constRand{0.5}); n != 0 {
		t.Errorf("flips = %d with no noise", n)
	}
	if !bytes.Equal(key, []byte{0, 0, 0, 0}) {
		t.Errorf("key changed without noise: %x", key)
	}

	if n := ApplyNoise(key, constRand{0.01}); n != 4 {
		t.Errorf("flips = %d, want 4", n)
	}
	if !bytes.Equal(key, []byte{1, 1, 1, 1}) {
		t.Errorf("key = %x, want 01010101", key)
	}
}

func TestNoiseRate(t *testing.T) {
	r := rng.New(5)
	total := 0
	const rounds = 2000
	for range rounds {
		_, flips := GenerateKey(r)
		total += flips
	}
	rate := float64(total) / float64(rounds*constants.QKDKeySize)
	if rate < 0.08 || rate > 0.12 {
		t.Errorf("observed noise rate %.3f, want about %.2f", rate, constants.QKDNoiseProbability)
	}
}

func BenchmarkGenerateKey(b *testing.B) {
	r := rng.New(1)
	for b.Loop() {
		GenerateKey(r)
	}
}

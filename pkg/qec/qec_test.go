package qec

import (
	"testing"

	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// intnRand answers IntN with a fixed value.
type intnRand struct{ n int }

func (r intnRand) Float64() float64 { return 0 }
func (r intnRand) IntN(int) int     { return r.n }
func (r intnRand) Uint64() uint64   { return 0 }

// entangledState builds Entangled(inner) the only way the quantum package allows.
func entangledState(t *testing.T, inner quantum.State) quantum.State {
	t.Helper()
	net := quantum.NewNetwork()
	if err := net.Add(1, inner, quantum.Position{}); err != nil {
		t.Fatal(err)
	}
	if err := net.Add(2, quantum.Zero(), quantum.Position{}); err != nil {
		t.Fatal(err)
	}
	if err := quantum.Entangle(net, 1, 2); err != nil {
		t.Fatal(err)
	}
	n, _ := net.Get(2)
	return n.State()
}

func nodeWith(t *testing.T, s quantum.State) *quantum.Node {
	t.Helper()
	net := quantum.NewNetwork()
	if err := net.Add(1, s, quantum.Position{}); err != nil {
		t.Fatal(err)
	}
	n, _ := net.Get(1)
	return n
}

func TestApply(t *testing.T) {
	ent := entangledState(t, quantum.One())

	tests := []struct {
		name string
		kind ErrorKind
		in   quantum.State
		want quantum.State
	}{
		{"bitflip zero", BitFlip, quantum.Zero(), quantum.One()},
		{"bitflip one", BitFlip, quantum.One(), quantum.Zero()},
		{"bitflip entangled", BitFlip, ent, ent},
		{"phaseflip zero", PhaseFlip, quantum.Zero(), quantum.Zero()},
		{"phaseflip one", PhaseFlip, quantum.One(), quantum.One()},
		{"phaseflip entangled", PhaseFlip, ent, quantum.Zero()},
		{"depolarizing one", Depolarizing, quantum.One(), quantum.Zero()},
		{"depolarizing entangled", Depolarizing, ent, quantum.Zero()},
		{"unknown kind one", ErrorKind(9), quantum.One(), quantum.One()},
		{"unknown kind entangled", ErrorKind(9), ent, ent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Apply(tt.in); !got.Equal(tt.want) {
				t.Errorf("%s.Apply(%v) = %v, want %v", tt.kind, tt.in, got, tt.want)
			}
		})
	}
}

func TestIntroduceErrorUsesDraw(t *testing.T) {
	for draw, want := range []ErrorKind{BitFlip, PhaseFlip, Depolarizing} {
		n := nodeWith(t, quantum.One())
		got := IntroduceError(n, intnRand{draw})
		if got != want {
			t.Errorf("draw %d: kind = %s, want %s", draw, got, want)
		}
		if !n.State().Equal(want.Apply(quantum.One())) {
			t.Errorf("draw %d: state = %v", draw, n.State())
		}
	}
}

func TestIntroduceErrorDistribution(t *testing.T) {
	r := rng.New(7)
	counts := map[ErrorKind]int{}
	for range 3000 {
		counts[IntroduceError(nodeWith(t, quantum.Zero()), r)]++
	}
	for _, k := range []ErrorKind{BitFlip, PhaseFlip, Depolarizing} {
		if counts[k] < 800 || counts[k] > 1200 {
			t.Errorf("%s drawn %d times out of 3000", k, counts[k])
		}
	}
}

func TestDetectError(t *testing.T) {
	if _, found := DetectError(quantum.One(), quantum.One()); found {
		t.Error("equal states should not report an error")
	}
	kind, found := DetectError(quantum.Zero(), quantum.One())
	if !found || kind != Depolarizing {
		t.Errorf("DetectError = (%s, %v), want (Depolarizing, true)", kind, found)
	}
}

func TestCorrectError(t *testing.T) {
	t.Run("after effective error", func(t *testing.T) {
		n := nodeWith(t, quantum.Zero())
		IntroduceError(n, intnRand{int(BitFlip)})
		if !CorrectError(n, quantum.Zero()) {
			t.Fatal("CorrectError = false, want true")
		}
		if !n.State().Equal(quantum.Zero()) {
			t.Errorf("state = %v, want Zero", n.State())
		}
	})

	t.Run("after no-op error", func(t *testing.T) {
		n := nodeWith(t, quantum.Zero())
		IntroduceError(n, intnRand{int(PhaseFlip)})
		if CorrectError(n, quantum.Zero()) {
			t.Error("CorrectError = true, want false")
		}
	})
}

func TestErrorKindString(t *testing.T) {
	if Depolarizing.String() != "Depolarizing" || ErrorKind(9).String() != "Unknown" {
		t.Error("unexpected ErrorKind names")
	}
}

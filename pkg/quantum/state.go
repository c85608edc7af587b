// Package quantum implements the node and network model of the simulator.
//
// A node carries an abstract State:
//
//	State := Zero | One | Entangled(State)
//
// Entangled values are produced only by Entangle in this package. Everything
// else treats a State as an immutable value: copying one copies the whole
// chain, and equality is structural.
//
// The registry (Network) owns every Node. Readers get deep copies through
// Get; writers go through Update so no caller keeps a live pointer into the
// registry.
package quantum

import (
	"strings"

	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
)

// Kind identifies the variant of a State.
type Kind uint8

// State variants.
const (
	KindZero Kind = iota
	KindOne
	KindEntangled
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindZero:
		return "Zero"
	case KindOne:
		return "One"
	case KindEntangled:
		return "Entangled"
	default:
		return "Unknown"
	}
}

// State is the abstract quantum condition of a node. The zero value is Zero.
type State struct {
	kind  Kind
	inner *State // set only when kind == KindEntangled; never mutated
}

// Zero returns the ground state.
func Zero() State { return State{kind: KindZero} }

// One returns the excited state.
func One() State { return State{kind: KindOne} }

// entangledWith wraps a private copy of s.
func entangledWith(s State) State {
	c := s.Clone()
	return State{kind: KindEntangled, inner: &c}
}

// Kind returns the variant of s.
func (s State) Kind() Kind { return s.kind }

// IsEntangled reports whether s is an Entangled wrapper.
func (s State) IsEntangled() bool { return s.kind == KindEntangled }

// Inner returns the wrapped state of an Entangled value.
func (s State) Inner() (State, bool) {
	if s.kind != KindEntangled || s.inner == nil {
		return State{}, false
	}
	return s.inner.Clone(), true
}

// Depth returns how many Entangled wrappers enclose the innermost state.
func (s State) Depth() int {
	d := 0
	for cur := &s; cur.kind == KindEntangled && cur.inner != nil; cur = cur.inner {
		d++
	}
	return d
}

// Equal reports structural equality.
func (s State) Equal(o State) bool {
	a, b := &s, &o
	for {
		if a.kind != b.kind {
			return false
		}
		if a.kind != KindEntangled {
			return true
		}
		if a.inner == nil || b.inner == nil {
			return a.inner == b.inner
		}
		a, b = a.inner, b.inner
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	if s.kind != KindEntangled || s.inner == nil {
		return State{kind: s.kind}
	}
	c := s.inner.Clone()
	return State{kind: KindEntangled, inner: &c}
}

// String renders the state, e.g. "Entangled(One)".
func (s State) String() string {
	var b strings.Builder
	depth := 0
	cur := &s
	for cur.kind == KindEntangled && cur.inner != nil {
		b.WriteString("Entangled(")
		depth++
		cur = cur.inner
	}
	b.WriteString(cur.kind.String())
	b.WriteString(strings.Repeat(")", depth))
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseState parses a plain state literal ("zero" / "0" or "one" / "1").
// Entangled states cannot be parsed; they only arise from Entangle.
func ParseState(text string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "zero", "0":
		return Zero(), nil
	case "one", "1":
		return One(), nil
	default:
		return State{}, qerrors.ErrInvalidState
	}
}

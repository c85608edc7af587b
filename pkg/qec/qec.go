// Package qec models transmission errors on node states and their recovery.
//
// The model is deliberately coarse: an error replaces or toggles a node's
// state, detection compares against a known reference state, and correction
// overwrites the node with that reference.
package qec

import (
	"github.com/pzverkov/quantum-netsim/internal/constants"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// ErrorKind classifies a simulated error.
type ErrorKind uint8

// Error kinds, in the order IntroduceError draws them.
const (
	BitFlip ErrorKind = iota
	PhaseFlip
	Depolarizing
)

// String returns the kind name as used in logs, metrics and scenario files.
func (k ErrorKind) String() string {
	switch k {
	case BitFlip:
		return "BitFlip"
	case PhaseFlip:
		return "PhaseFlip"
	case Depolarizing:
		return "Depolarizing"
	default:
		return "Unknown"
	}
}

// Apply returns the state that results from an error of kind k on s.
//
//	BitFlip       Zero <-> One; Entangled unchanged
//	PhaseFlip     Entangled -> Zero; otherwise unchanged
//	Depolarizing  always Zero
//
// Unknown kinds leave s unchanged.
func (k ErrorKind) Apply(s quantum.State) quantum.State {
	switch k {
	case BitFlip:
		switch s.Kind() {
		case quantum.KindZero:
			return quantum.One()
		case quantum.KindOne:
			return quantum.Zero()
		}
		return s
	case PhaseFlip:
		if s.IsEntangled() {
			return quantum.Zero()
		}
		return s
	case Depolarizing:
		return quantum.Zero()
	}
	return s
}

// IntroduceError picks one of the three kinds uniformly, applies it to the
// node and returns the kind chosen. Some draws leave the state unchanged.
func IntroduceError(n *quantum.Node, r rng.Rand) ErrorKind {
	k := ErrorKind(r.IntN(constants.ErrorKindCount))
	n.SetState(k.Apply(n.State()))
	return k
}

// DetectError compares current against expected. A mismatch is always
// reported as Depolarizing because the model keeps no history to tell the
// kinds apart.
func DetectError(expected, current quantum.State) (ErrorKind, bool) {
	if expected.Equal(current) {
		return 0, false
	}
	return Depolarizing, true
}

// CorrectError restores expected on the node when an error is detected and
// reports whether a correction was made.
func CorrectError(n *quantum.Node, expected quantum.State) bool {
	if _, found := DetectError(expected, n.State()); !found {
		return false
	}
	n.SetState(expected)
	return true
}

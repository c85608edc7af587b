package quantum

import (
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
)

// Entangle links node id2 to node id1 by copying id1's state:
//
//	state(id2) = Entangled(state(id1))
//
// The link is one-way. Node id1 is left untouched, and AreEntangled only
// holds with id1 as the first argument.
func Entangle(net *Network, id1, id2 NodeID) error {
	n1, n2, err := net.lookupPair("entangle", id1, id2)
	if err != nil {
		return err
	}
	n2.state = entangledWith(n1.state)
	return nil
}

// AreEntangled reports whether b holds an entangled copy of a's current
// state. The check is direction-sensitive: AreEntangled(a, b) and
// AreEntangled(b, a) can differ.
func AreEntangled(a, b *Node) bool {
	inner, ok := b.state.Inner()
	if !ok {
		return false
	}
	return inner.Equal(a.state)
}

// AreEntangledIDs is AreEntangled for registered ids.
func AreEntangledIDs(net *Network, id1, id2 NodeID) (bool, error) {
	n1, n2, err := net.lookupPair("are-entangled", id1, id2)
	if err != nil {
		return false, err
	}
	return AreEntangled(n1, n2), nil
}

// BreakEntanglement resets an entangled node to Zero, clears its
// entangled-peer set and removes it from each former peer's set. It fails
// with ErrNotEntangled if the node's state is not Entangled.
func BreakEntanglement(net *Network, id NodeID) error {
	n, err := net.lookup("break-entanglement", id)
	if err != nil {
		return err
	}
	if !n.state.IsEntangled() {
		return qerrors.NewNodeError("break-entanglement", uint32(id), qerrors.ErrNotEntangled)
	}
	n.state = Zero()
	for peer := range n.peers {
		if p, ok := net.nodes[peer]; ok {
			delete(p.peers, id)
		}
	}
	n.ClearPeers()
	return nil
}

package quantum

import (
	"fmt"
	"maps"
	"slices"

	"github.com/pzverkov/quantum-netsim/pkg/crypto"
)

// NodeID identifies a node. Identifiers are chosen by the caller.
type NodeID uint32

// Position is a node's location on the simulation plane.
type Position struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Node is a simulated quantum node.
type Node struct {
	id       NodeID
	position Position
	state    State
	peers    map[NodeID]struct{}
	keys     map[NodeID][]byte
}

func newNode(id NodeID, state State, pos Position) *Node {
	return &Node{
		id:       id,
		position: pos,
		state:    state.Clone(),
		peers:    make(map[NodeID]struct{}),
		keys:     make(map[NodeID][]byte),
	}
}

// ID returns the node identifier.
func (n *Node) ID() NodeID { return n.id }

// Position returns the node location.
func (n *Node) Position() Position { return n.position }

// State returns the current state.
func (n *Node) State() State { return n.state }

// SetState replaces the current state with a copy of s.
func (n *Node) SetState(s State) { n.state = s.Clone() }

// Peers returns the entangled peer ids in ascending order.
func (n *Node) Peers() []NodeID {
	ids := slices.Collect(maps.Keys(n.peers))
	slices.Sort(ids)
	return ids
}

// HasPeer reports whether peer is in the entangled-peer set.
func (n *Node) HasPeer(peer NodeID) bool {
	_, ok := n.peers[peer]
	return ok
}

// AddPeer records peer in the entangled-peer set.
func (n *Node) AddPeer(peer NodeID) { n.peers[peer] = struct{}{} }

// ClearPeers empties the entangled-peer set.
func (n *Node) ClearPeers() { clear(n.peers) }

// Key returns a copy of the key shared with peer.
func (n *Node) Key(peer NodeID) ([]byte, bool) {
	k, ok := n.keys[peer]
	if !ok {
		return nil, false
	}
	return slices.Clone(k), true
}

// SetKey stores a copy of key for peer, wiping any key it replaces.
func (n *Node) SetKey(peer NodeID, key []byte) {
	if old, ok := n.keys[peer]; ok {
		crypto.Zeroize(old)
	}
	n.keys[peer] = slices.Clone(key)
}

// KeyCount returns the number of peers this node holds a key for.
func (n *Node) KeyCount() int { return len(n.keys) }

// KeyFingerprints maps each keyed peer to the fingerprint of its key.
func (n *Node) KeyFingerprints() map[NodeID]string {
	out := make(map[NodeID]string, len(n.keys))
	for peer, k := range n.keys {
		out[peer] = crypto.Fingerprint(k)
	}
	return out
}

// String summarises the node for logs; key material is not printed.
func (n *Node) String() string {
	return fmt.Sprintf("node %d %s peers=%v keys=%d", n.id, n.state, n.Peers(), len(n.keys))
}

// clone returns a deep copy that shares nothing with n.
func (n *Node) clone() *Node {
	c := newNode(n.id, n.state, n.position)
	for p := range n.peers {
		c.peers[p] = struct{}{}
	}
	for p, k := range n.keys {
		c.keys[p] = slices.Clone(k)
	}
	return c
}

package quantum

import (
	"fmt"
	"maps"
	"slices"

	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
)

// Network is the registry that owns every node of a simulation.
//
// Network does no locking of its own. A caller that shares one across
// goroutines must hold a single lock around each whole operation; see
// pkg/api for the service-side wrapper.
type Network struct {
	nodes map[NodeID]*Node
}

// NewNetwork creates an empty registry.
func NewNetwork() *Network {
	return &Network{nodes: make(map[NodeID]*Node)}
}

// Add registers a node with the given initial state and position.
// It fails with ErrDuplicateID if id is taken; the existing node is kept.
func (net *Network) Add(id NodeID, state State, pos Position) error {
	if _, ok := net.nodes[id]; ok {
		return qerrors.NewNodeError("add", uint32(id), qerrors.ErrDuplicateID)
	}
	net.nodes[id] = newNode(id, state, pos)
	return nil
}

// Get returns a detached copy of the node. Changes to the copy are not
// written back; use Update for that.
func (net *Network) Get(id NodeID) (*Node, error) {
	n, err := net.lookup("get", id)
	if err != nil {
		return nil, err
	}
	return n.clone(), nil
}

// Update runs fn against the registry's node. The pointer must not be
// retained after fn returns.
func (net *Network) Update(id NodeID, fn func(*Node) error) error {
	n, err := net.lookup("update", id)
	if err != nil {
		return err
	}
	return fn(n)
}

// Contains reports whether id is registered.
func (net *Network) Contains(id NodeID) bool {
	_, ok := net.nodes[id]
	return ok
}

// Len returns the number of registered nodes.
func (net *Network) Len() int { return len(net.nodes) }

// IDs returns every registered id in ascending order.
func (net *Network) IDs() []NodeID {
	ids := slices.Collect(maps.Keys(net.nodes))
	slices.Sort(ids)
	return ids
}

// String implements fmt.Stringer.
func (net *Network) String() string {
	return fmt.Sprintf("Quantum Network with %d nodes", len(net.nodes))
}

func (net *Network) lookup(op string, id NodeID) (*Node, error) {
	n, ok := net.nodes[id]
	if !ok {
		return nil, qerrors.NewNodeError(op, uint32(id), qerrors.ErrNotFound)
	}
	return n, nil
}

// lookupPair resolves both ids, reporting the first one missing.
func (net *Network) lookupPair(op string, id1, id2 NodeID) (*Node, *Node, error) {
	n1, err := net.lookup(op, id1)
	if err != nil {
		return nil, nil, err
	}
	n2, err := net.lookup(op, id2)
	if err != nil {
		return nil, nil, err
	}
	return n1, n2, nil
}

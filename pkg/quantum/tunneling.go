package quantum

import (
	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// Tunnel attempts to carry node id2's state over to node id1. With
// probability TunnelingProbability the state is copied and Tunnel returns
// nil; otherwise nothing changes and ErrTunnelingFailed is returned.
func Tunnel(net *Network, id1, id2 NodeID, r rng.Rand) error {
	n1, n2, err := net.lookupPair("tunnel", id1, id2)
	if err != nil {
		return err
	}
	if r.Float64() >= constants.TunnelingProbability {
		return qerrors.NewNodeError("tunnel", uint32(id1), qerrors.ErrTunnelingFailed)
	}
	n1.state = n2.state.Clone()
	return nil
}

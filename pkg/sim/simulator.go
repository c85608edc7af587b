// Package sim drives the quantum network model directly: nodes, entanglement,
// key distribution, encrypted transport, error injection and correction.
//
// A Simulator is single-threaded. For concurrent access use pkg/api.
package sim

import (
	"context"

	"github.com/google/uuid"

	"github.com/pzverkov/quantum-netsim/pkg/crypto"
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
	"github.com/pzverkov/quantum-netsim/pkg/packet"
	"github.com/pzverkov/quantum-netsim/pkg/qec"
	"github.com/pzverkov/quantum-netsim/pkg/qkd"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// Config configures a Simulator. Zero fields take defaults.
type Config struct {
	// Rand is the randomness source. Defaults to a CSPRNG-seeded generator.
	Rand rng.Rand

	// Observer receives operation events. Defaults to a NetworkObserver on
	// the global collector, tracer and logger.
	Observer quantum.Observer

	// Tracer defaults to the global tracer.
	Tracer metrics.Tracer

	// Logger defaults to the global logger.
	Logger *metrics.Logger

	// RunID identifies the run in logs and spans. Defaults to a random UUID.
	RunID string
}

// Simulator owns a network and the randomness that drives it.
type Simulator struct {
	net      *quantum.Network
	rand     rng.Rand
	observer quantum.Observer
	tracer   metrics.Tracer
	logger   *metrics.Logger
	runID    string
}

// New creates a simulator with an empty network.
func New(cfg Config) (*Simulator, error) {
	if cfg.Rand == nil {
		r, err := rng.NewSecure()
		if err != nil {
			return nil, err
		}
		cfg.Rand = r
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = metrics.GetTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = metrics.GetLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = metrics.NewNetworkObserver(metrics.NetworkObserverConfig{
			Tracer: cfg.Tracer,
			Logger: cfg.Logger,
			RunID:  cfg.RunID,
		})
	}

	return &Simulator{
		net:      quantum.NewNetwork(),
		rand:     cfg.Rand,
		observer: cfg.Observer,
		tracer:   cfg.Tracer,
		logger:   cfg.Logger.Named("sim").With(metrics.Fields{"run_id": cfg.RunID}),
		runID:    cfg.RunID,
	}, nil
}

// RunID returns the run identifier.
func (s *Simulator) RunID() string { return s.runID }

// Len returns the number of nodes.
func (s *Simulator) Len() int { return s.net.Len() }

// String describes the network.
func (s *Simulator) String() string { return s.net.String() }

// AddNode adds a node in state Zero at the origin.
func (s *Simulator) AddNode(id quantum.NodeID) error {
	return s.AddNodeWithState(id, quantum.Zero(), quantum.Position{})
}

// AddNodeWithState adds a node with an explicit state and position.
func (s *Simulator) AddNodeWithState(id quantum.NodeID, state quantum.State, pos quantum.Position) error {
	err := s.net.Add(id, state, pos)
	s.observer.OnNodeAdded(id, err)
	return err
}

// Node returns a copy of the node.
func (s *Simulator) Node(id quantum.NodeID) (*quantum.Node, error) {
	return s.net.Get(id)
}

// State returns the node's current state.
func (s *Simulator) State(id quantum.NodeID) (quantum.State, error) {
	n, err := s.net.Get(id)
	if err != nil {
		return quantum.State{}, err
	}
	return n.State(), nil
}

// Entangle sets node id2's state to Entangled(state of id1) and records the
// nodes as peers of each other.
func (s *Simulator) Entangle(ctx context.Context, id1, id2 quantum.NodeID) (err error) {
	ctx, done := s.observer.OnEntangle(ctx, id1, id2)
	defer func() { done(err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	if err = quantum.Entangle(s.net, id1, id2); err != nil {
		return err
	}
	s.linkPeers(ctx, id1, id2)
	return nil
}

// linkPeers records each node in the other's peer set. Both ids must exist.
func (s *Simulator) linkPeers(ctx context.Context, id1, id2 quantum.NodeID) {
	_, end := s.tracer.StartSpan(ctx, metrics.SpanPeerLink, metrics.WithSpanAttributes(pairAttrs(s.runID, id1, id2)))
	_ = s.net.Update(id1, func(n *quantum.Node) error { n.AddPeer(id2); return nil })
	_ = s.net.Update(id2, func(n *quantum.Node) error { n.AddPeer(id1); return nil })
	end(nil)
}

// storeKey installs key in both nodes' key stores. Both ids must exist.
func (s *Simulator) storeKey(ctx context.Context, id1, id2 quantum.NodeID, key []byte) {
	_, end := s.tracer.StartSpan(ctx, metrics.SpanKeyStore, metrics.WithSpanAttributes(pairAttrs(s.runID, id1, id2)))
	_ = s.net.Update(id1, func(n *quantum.Node) error { n.SetKey(id2, key); return nil })
	_ = s.net.Update(id2, func(n *quantum.Node) error { n.SetKey(id1, key); return nil })
	end(nil)
}

func pairAttrs(runID string, id1, id2 quantum.NodeID) metrics.SpanAttributes {
	attrs := metrics.ForNodes(uint32(id1), uint32(id2))
	attrs.RunID = runID
	return attrs
}

// AreEntangled reports whether id2 holds an entangled copy of id1's state.
func (s *Simulator) AreEntangled(id1, id2 quantum.NodeID) (bool, error) {
	return quantum.AreEntangledIDs(s.net, id1, id2)
}

// BreakEntanglement resets an entangled node to Zero.
func (s *Simulator) BreakEntanglement(id quantum.NodeID) error {
	err := quantum.BreakEntanglement(s.net, id)
	s.observer.OnBreak(id, err)
	return err
}

// PerformQKD distributes a key from id1 to id2, stores it in both nodes' key
// stores and returns a copy. It fails with ErrNotEntangled unless id2 holds an
// entangled copy of id1's state.
func (s *Simulator) PerformQKD(ctx context.Context, id1, id2 quantum.NodeID) (key []byte, err error) {
	flips := 0
	ctx, done := s.observer.OnKeyDistribution(ctx, id1, id2)
	defer func() { done(flips, err) }()

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	key, flips, err = qkd.DistributeKey(s.net, id1, id2, s.rand)
	if err != nil {
		return nil, err
	}
	s.storeKey(ctx, id1, id2, key)

	s.logger.Debug("key stored", metrics.Fields{
		"node":        uint32(id1),
		"peer":        uint32(id2),
		"fingerprint": crypto.Fingerprint(key),
	})
	return key, nil
}

// SecureTransmit encrypts message under key.
func (s *Simulator) SecureTransmit(message string, key []byte) ([]byte, error) {
	return crypto.EncryptString(message, key)
}

// SecureReceive decrypts ciphertext under key. When the result is not valid
// text it returns constants.DecryptionFailed with ErrDecodeFailed.
func (s *Simulator) SecureReceive(ciphertext, key []byte) (string, error) {
	return crypto.DecryptString(ciphertext, key)
}

// Send encrypts message with the key sender holds for receiver.
func (s *Simulator) Send(ctx context.Context, sender, receiver quantum.NodeID, message string) (p packet.Packet, err error) {
	ctx, done := s.observer.OnSend(ctx, sender, receiver, len(message))
	defer func() { done(err) }()

	if err = ctx.Err(); err != nil {
		return packet.Packet{}, err
	}
	err = s.net.Update(sender, func(n *quantum.Node) error {
		var sendErr error
		p, sendErr = packet.Send(n, receiver, []byte(message))
		return sendErr
	})
	return p, err
}

// Receive decrypts p with the key receiver holds for p's sender.
func (s *Simulator) Receive(ctx context.Context, receiver quantum.NodeID, p packet.Packet) (text string, err error) {
	ctx, done := s.observer.OnReceive(ctx, receiver, p.Sender(), p.Len())
	defer func() { done(err) }()

	if err = ctx.Err(); err != nil {
		return "", err
	}
	err = s.net.Update(receiver, func(n *quantum.Node) error {
		var recvErr error
		text, recvErr = packet.Receive(n, p)
		return recvErr
	})
	return text, err
}

// IntroduceErrors applies a random error to the node and returns the
// error kind's name.
func (s *Simulator) IntroduceErrors(id quantum.NodeID) (string, error) {
	var kind qec.ErrorKind
	err := s.net.Update(id, func(n *quantum.Node) error {
		kind = qec.IntroduceError(n, s.rand)
		return nil
	})
	if err != nil {
		return "", err
	}
	s.observer.OnErrorIntroduced(id, kind.String())
	return kind.String(), nil
}

// DetectErrors reports whether the node has drifted from the fresh-node
// state Zero.
func (s *Simulator) DetectErrors(id quantum.NodeID) (qec.ErrorKind, bool, error) {
	n, err := s.net.Get(id)
	if err != nil {
		return 0, false, err
	}
	kind, found := qec.DetectError(quantum.Zero(), n.State())
	return kind, found, nil
}

// DetectAndCorrectErrors restores the node to Zero if it differs.
func (s *Simulator) DetectAndCorrectErrors(ctx context.Context, id quantum.NodeID) (bool, error) {
	return s.CorrectErrors(ctx, id, quantum.Zero())
}

// CorrectErrors overwrites the node's state with expected if they differ
// and reports whether it did.
func (s *Simulator) CorrectErrors(ctx context.Context, id quantum.NodeID, expected quantum.State) (corrected bool, err error) {
	ctx, done := s.observer.OnCorrection(ctx, id)
	defer func() { done(corrected, err) }()

	if err = ctx.Err(); err != nil {
		return false, err
	}
	err = s.net.Update(id, func(n *quantum.Node) error {
		corrected = qec.CorrectError(n, expected)
		return nil
	})
	return corrected, err
}

// Tunnel attempts to copy id2's state into id1.
func (s *Simulator) Tunnel(id1, id2 quantum.NodeID) error {
	err := quantum.Tunnel(s.net, id1, id2, s.rand)
	s.observer.OnTunnel(id1, id2, err)
	return err
}

// Package api is the synchronous service facade over the simulator core.
//
// An external transport (HTTP handlers, RPC, a CLI) calls these methods; the
// facade owns the registry and serializes every operation under one lock, so
// each call observes and leaves the registry in a consistent state.
package api

import (
	"context"
	"sync"

	"github.com/pzverkov/quantum-netsim/internal/constants"
	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/crypto"
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
	"github.com/pzverkov/quantum-netsim/pkg/packet"
	"github.com/pzverkov/quantum-netsim/pkg/qkd"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// API exposes node registration, entanglement, key exchange and messaging.
// It is safe for concurrent use.
type API struct {
	mu       sync.Mutex
	net      *quantum.Network
	rand     rng.Rand
	observer quantum.Observer
	tracer   metrics.Tracer
	logger   *metrics.Logger
}

// Status describes one node as seen by API callers.
type Status struct {
	ID             quantum.NodeID
	State          quantum.State
	EntangledNodes []quantum.NodeID // ascending
	KeyCount       int
	Fingerprints   map[quantum.NodeID]string // short key fingerprints by peer
}

// New creates an API over an empty registry. Without WithRand the API draws
// from a CSPRNG-seeded generator.
func New(opts ...Option) (*API, error) {
	a := &API{
		net:      quantum.NewNetwork(),
		observer: quantum.NopObserver{},
		tracer:   metrics.GetTracer(),
		logger:   metrics.GetLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rand == nil {
		r, err := rng.NewSecure()
		if err != nil {
			return nil, err
		}
		a.rand = r
	}
	a.logger = a.logger.Named("api")
	return a, nil
}

// RegisterNode adds a node in state Zero. It fails with ErrDuplicateID if
// the id is taken.
func (a *API) RegisterNode(ctx context.Context, id quantum.NodeID) error {
	return a.RegisterNodeAt(ctx, id, quantum.Position{})
}

// RegisterNodeAt adds a node in state Zero at pos.
func (a *API) RegisterNodeAt(_ context.Context, id quantum.NodeID, pos quantum.Position) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.net.Add(id, quantum.Zero(), pos)
	a.observer.OnNodeAdded(id, err)
	return err
}

// EntangleNodes links id2 to id1 at the state level and records each node in
// the other's peer set. It fails with ErrNotFound if either node is missing,
// in which case nothing changes.
func (a *API) EntangleNodes(ctx context.Context, id1, id2 quantum.NodeID) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, done := a.observer.OnEntangle(ctx, id1, id2)
	defer func() { done(err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	if err = quantum.Entangle(a.net, id1, id2); err != nil {
		return err
	}
	a.linkPeers(ctx, id1, id2)
	return nil
}

// linkPeers records each node in the other's peer set. Both ids were
// resolved by the caller, so the updates cannot fail.
func (a *API) linkPeers(ctx context.Context, id1, id2 quantum.NodeID) {
	_, end := a.tracer.StartSpan(ctx, metrics.SpanPeerLink, metrics.WithSpanAttributes(metrics.ForNodes(uint32(id1), uint32(id2))))
	_ = a.net.Update(id1, func(n *quantum.Node) error { n.AddPeer(id2); return nil })
	_ = a.net.Update(id2, func(n *quantum.Node) error { n.AddPeer(id1); return nil })
	end(nil)
}

// storeKey installs key in both key stores.
func (a *API) storeKey(ctx context.Context, id1, id2 quantum.NodeID, key []byte) {
	_, end := a.tracer.StartSpan(ctx, metrics.SpanKeyStore, metrics.WithSpanAttributes(metrics.ForNodes(uint32(id1), uint32(id2))))
	_ = a.net.Update(id1, func(n *quantum.Node) error { n.SetKey(id2, key); return nil })
	_ = a.net.Update(id2, func(n *quantum.Node) error { n.SetKey(id1, key); return nil })
	end(nil)
}

// ExchangeKeys runs QKD between two mutually entangled nodes and stores the
// resulting key in both nodes' key stores, replacing any earlier key.
//
// It fails with ErrNotFound if either node is missing, and with
// ErrNotEntangled unless each node lists the other as a peer and the
// state-level entanglement holds in at least one direction.
func (a *API) ExchangeKeys(ctx context.Context, id1, id2 quantum.NodeID) (err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	flips := 0
	ctx, done := a.observer.OnKeyDistribution(ctx, id1, id2)
	defer func() { done(flips, err) }()

	if err = ctx.Err(); err != nil {
		return err
	}
	n1, err := a.net.Get(id1)
	if err != nil {
		return err
	}
	n2, err := a.net.Get(id2)
	if err != nil {
		return err
	}
	if !n1.HasPeer(id2) || !n2.HasPeer(id1) {
		return qerrors.NewNodeError("exchange-keys", uint32(id2), qerrors.ErrNotEntangled)
	}

	key, flips, err := qkd.DistributeKey(a.net, id1, id2, a.rand)
	if qerrors.Is(err, qerrors.ErrNotEntangled) {
		a.logger.Debug("state link runs the other way", metrics.Fields{"node": uint32(id1), "peer": uint32(id2)})
		key, flips, err = qkd.DistributeKey(a.net, id2, id1, a.rand)
	}
	if err != nil {
		return err
	}
	defer crypto.Zeroize(key)

	a.storeKey(ctx, id1, id2, key)
	return nil
}

// SendMessage encrypts text under the key sender shares with receiver.
// It fails with ErrNotFound if the sender is missing, with ErrNoKey if no
// key was exchanged and with ErrMessageTooLarge above MaxMessageSize, the
// largest payload the packet codec can carry. The receiver need not exist.
func (a *API) SendMessage(ctx context.Context, sender, receiver quantum.NodeID, text string) (p packet.Packet, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, done := a.observer.OnSend(ctx, sender, receiver, len(text))
	defer func() { done(err) }()

	if err = ctx.Err(); err != nil {
		return p, err
	}
	if len(text) > constants.MaxMessageSize {
		err = qerrors.NewNodeError("send-message", uint32(sender), qerrors.ErrMessageTooLarge)
		return p, err
	}
	err = a.net.Update(sender, func(n *quantum.Node) error {
		var sendErr error
		p, sendErr = packet.Send(n, receiver, []byte(text))
		return sendErr
	})
	return p, err
}

// ReceiveMessage decrypts p with the key receiver shares with p's sender.
// It fails with ErrNotFound or ErrNoKey. When the plaintext is not valid
// text it returns constants.DecryptionFailed and a nil error.
func (a *API) ReceiveMessage(ctx context.Context, receiver quantum.NodeID, p packet.Packet) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, done := a.observer.OnReceive(ctx, receiver, p.Sender(), p.Len())

	var text string
	err := ctx.Err()
	if err == nil {
		err = a.net.Update(receiver, func(n *quantum.Node) error {
			var recvErr error
			text, recvErr = packet.Receive(n, p)
			return recvErr
		})
	}
	done(err)

	if qerrors.Is(err, qerrors.ErrDecodeFailed) {
		return text, nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// NodeStatus reports a node's peers and key count.
func (a *API) NodeStatus(_ context.Context, id quantum.NodeID) (Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, err := a.net.Get(id)
	if err != nil {
		return Status{}, err
	}
	return Status{
		ID:             n.ID(),
		State:          n.State(),
		EntangledNodes: n.Peers(),
		KeyCount:       n.KeyCount(),
		Fingerprints:   n.KeyFingerprints(),
	}, nil
}

// NodeCount returns the number of registered nodes.
func (a *API) NodeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.net.Len()
}

// String describes the registry.
func (a *API) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.net.String()
}

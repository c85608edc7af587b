package quantum

import "context"

// Observer provides hooks for network events, metrics, and tracing.
// Implementations should be lightweight; callbacks run inside the caller's
// critical section.
type Observer interface {
	OnNodeAdded(id NodeID, err error)
	OnEntangle(ctx context.Context, id1, id2 NodeID) (context.Context, func(error))
	OnBreak(id NodeID, err error)
	OnKeyDistribution(ctx context.Context, id1, id2 NodeID) (context.Context, func(flips int, err error))
	OnSend(ctx context.Context, sender, receiver NodeID, size int) (context.Context, func(error))
	OnReceive(ctx context.Context, receiver, sender NodeID, size int) (context.Context, func(error))
	OnErrorIntroduced(id NodeID, kind string)
	OnCorrection(ctx context.Context, id NodeID) (context.Context, func(corrected bool, err error))
	OnTunnel(id1, id2 NodeID, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnNodeAdded(NodeID, error) {}

func (NopObserver) OnEntangle(ctx context.Context, _, _ NodeID) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (NopObserver) OnBreak(NodeID, error) {}

func (NopObserver) OnKeyDistribution(ctx context.Context, _, _ NodeID) (context.Context, func(int, error)) {
	return ctx, func(int, error) {}
}

func (NopObserver) OnSend(ctx context.Context, _, _ NodeID, _ int) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (NopObserver) OnReceive(ctx context.Context, _, _ NodeID, _ int) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (NopObserver) OnErrorIntroduced(NodeID, string) {}

func (NopObserver) OnCorrection(ctx context.Context, _ NodeID) (context.Context, func(bool, error)) {
	return ctx, func(bool, error) {}
}

func (NopObserver) OnTunnel(_, _ NodeID, _ error) {}

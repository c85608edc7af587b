package metrics

import (
	"bytes"
	"context"
	"strings"
	"testing"

	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
)

func newTestObserver(t *testing.T) (*NetworkObserver, *SimpleTracer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	tracer := NewSimpleTracer()
	obs := NewNetworkObserver(NetworkObserverConfig{
		Collector: NewCollector(nil),
		Tracer:    tracer,
		Logger:    TestLogger(&buf),
		RunID:     "run-1",
	})
	return obs, tracer, &buf
}

func TestObserverRegistration(t *testing.T) {
	obs, _, buf := newTestObserver(t)
	obs.OnNodeAdded(1, nil)
	obs.OnNodeAdded(1, qerrors.NewNodeError("add", 1, qerrors.ErrDuplicateID))

	s := obs.Collector().Snapshot()
	if s.NodesRegistered != 1 || s.RegistrationsFailed != 1 {
		t.Errorf("registered/failed = %d/%d", s.NodesRegistered, s.RegistrationsFailed)
	}
	if !strings.Contains(buf.String(), "error_kind=duplicate_id") || !strings.Contains(buf.String(), "run_id=run-1") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestObserverEntangleSpan(t *testing.T) {
	obs, tracer, _ := newTestObserver(t)

	_, done := obs.OnEntangle(context.Background(), 1, 2)
	done(nil)
	_, done = obs.OnEntangle(context.Background(), 1, 9)
	done(qerrors.ErrNotFound)

	s := obs.Collector().Snapshot()
	if s.Entanglements != 1 || s.EntanglementsFailed != 1 {
		t.Errorf("entanglements = %d/%d", s.Entanglements, s.EntanglementsFailed)
	}

	spans := tracer.Spans()
	if len(spans) != 2 || spans[0].Name != SpanEntangle {
		t.Fatalf("spans = %+v", spans)
	}
	if spans[0].Attributes["sim.run_id"] != "run-1" || spans[0].Attributes["node.peer_id"] != uint32(2) {
		t.Errorf("attributes = %v", spans[0].Attributes)
	}
	if spans[1].Error == nil {
		t.Error("failed entanglement should mark the span")
	}
}

func TestObserverKeyDistributionNeverLogsKey(t *testing.T) {
	obs, _, buf := newTestObserver(t)

	_, done := obs.OnKeyDistribution(context.Background(), 1, 2)
	done(3, nil)
	_, done = obs.OnKeyDistribution(context.Background(), 2, 1)
	done(0, qerrors.ErrNotEntangled)

	s := obs.Collector().Snapshot()
	if s.KeyExchanges != 1 || s.KeyExchangesFailed != 1 || s.KeyNoiseFlips != 3 {
		t.Errorf("key metrics = %d/%d/%d", s.KeyExchanges, s.KeyExchangesFailed, s.KeyNoiseFlips)
	}
	if strings.Contains(buf.String(), "key=") {
		t.Error("key material must not be logged")
	}
}

func TestObserverTraffic(t *testing.T) {
	obs, tracer, _ := newTestObserver(t)
	ctx := context.Background()

	_, done := obs.OnSend(ctx, 1, 2, 5)
	done(nil)
	_, done = obs.OnSend(ctx, 1, 3, 5)
	done(qerrors.ErrNoKey)
	_, done = obs.OnReceive(ctx, 2, 1, 5)
	done(nil)
	_, done = obs.OnReceive(ctx, 2, 1, 2)
	done(qerrors.ErrDecodeFailed)
	_, done = obs.OnReceive(ctx, 3, 1, 2)
	done(qerrors.ErrNoKey)

	s := obs.Collector().Snapshot()
	if s.PacketsSent != 1 || s.BytesSent != 5 || s.SendErrors != 1 {
		t.Errorf("send metrics = %d/%d/%d", s.PacketsSent, s.BytesSent, s.SendErrors)
	}
	if s.PacketsRecv != 2 || s.DecodeFailures != 1 || s.ReceiveErrors != 1 {
		t.Errorf("receive metrics = %d/%d/%d", s.PacketsRecv, s.DecodeFailures, s.ReceiveErrors)
	}

	// The decode failure span ends cleanly.
	spans := tracer.Spans()
	if spans[3].Name != SpanReceive || spans[3].Error != nil {
		t.Errorf("decode failure span = %+v", spans[3])
	}
}

func TestObserverErrorModelAndTunnel(t *testing.T) {
	obs, _, _ := newTestObserver(t)

	obs.OnErrorIntroduced(1, "PhaseFlip")
	_, done := obs.OnCorrection(context.Background(), 1)
	done(true, nil)
	_, done = obs.OnCorrection(context.Background(), 1)
	done(false, nil)
	obs.OnTunnel(1, 2, nil)
	obs.OnTunnel(1, 2, qerrors.ErrTunnelingFailed)
	obs.OnBreak(2, nil)
	obs.OnBreak(2, qerrors.ErrNotEntangled)

	s := obs.Collector().Snapshot()
	if s.PhaseFlips != 1 || s.CorrectionAttempts != 2 || s.CorrectionsApplied != 1 {
		t.Errorf("error model = %d/%d/%d", s.PhaseFlips, s.CorrectionAttempts, s.CorrectionsApplied)
	}
	if s.TunnelAttempts != 2 || s.TunnelSuccesses != 1 {
		t.Errorf("tunnel = %d/%d", s.TunnelAttempts, s.TunnelSuccesses)
	}
	if s.EntanglementsBroken != 1 || s.BreaksFailed != 1 {
		t.Errorf("breaks = %d/%d", s.EntanglementsBroken, s.BreaksFailed)
	}
}

func TestObserverDefaults(t *testing.T) {
	obs := NewNetworkObserver(NetworkObserverConfig{})
	if obs.Collector() != Global() || obs.Logger() == nil {
		t.Error("zero config should fall back to the globals")
	}
}

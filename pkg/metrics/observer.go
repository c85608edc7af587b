package metrics

import (
	"context"
	"time"

	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
)

// NetworkObserver records metrics, spans and log entries for network
// operations. It implements quantum.Observer.
type NetworkObserver struct {
	collector *Collector
	tracer    Tracer
	logger    *Logger
	runID     string
}

// NetworkObserverConfig configures a network observer. Nil fields fall back
// to the package globals.
type NetworkObserverConfig struct {
	Collector *Collector
	Tracer    Tracer
	Logger    *Logger
	RunID     string // simulation run identifier, attached to logs and spans
}

var _ quantum.Observer = (*NetworkObserver)(nil)

// NewNetworkObserver creates a new network observer.
func NewNetworkObserver(cfg NetworkObserverConfig) *NetworkObserver {
	if cfg.Collector == nil {
		cfg.Collector = Global()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = GetTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}

	logger := cfg.Logger.Named("network")
	if cfg.RunID != "" {
		logger = logger.With(Fields{"run_id": cfg.RunID})
	}

	return &NetworkObserver{
		collector: cfg.Collector,
		tracer:    cfg.Tracer,
		logger:    logger,
		runID:     cfg.RunID,
	}
}

// Collector returns the collector the observer records into.
func (o *NetworkObserver) Collector() *Collector { return o.collector }

// Logger returns the observer's logger for custom logging.
func (o *NetworkObserver) Logger() *Logger { return o.logger }

func (o *NetworkObserver) span(ctx context.Context, name string, attrs SpanAttributes) (context.Context, SpanEnder) {
	attrs.RunID = o.runID
	return o.tracer.StartSpan(ctx, name, WithSpanAttributes(attrs))
}

func pair(id1, id2 quantum.NodeID) Fields {
	return Fields{"node": uint32(id1), "peer": uint32(id2)}
}

func merge(fs ...Fields) Fields {
	out := Fields{}
	for _, f := range fs {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

// OnNodeAdded records a registration attempt.
func (o *NetworkObserver) OnNodeAdded(id quantum.NodeID, err error) {
	if err != nil {
		o.collector.RecordRegistrationFailed()
		o.logger.Warn("node registration rejected", merge(Fields{"node": uint32(id)}, ErrorFields(err)))
		return
	}
	o.collector.RecordNodeRegistered()
	o.logger.Debug("node registered", Fields{"node": uint32(id)})
}

// OnEntangle traces an entanglement.
func (o *NetworkObserver) OnEntangle(ctx context.Context, id1, id2 quantum.NodeID) (context.Context, func(error)) {
	ctx, end := o.span(ctx, SpanEntangle, ForNodes(uint32(id1), uint32(id2)))
	return ctx, func(err error) {
		o.collector.RecordEntanglement(err == nil)
		if err != nil {
			o.logger.Warn("entanglement failed", merge(pair(id1, id2), ErrorFields(err)))
		} else {
			o.logger.Info("nodes entangled", pair(id1, id2))
		}
		end(err)
	}
}

// OnBreak records a break-entanglement attempt.
func (o *NetworkObserver) OnBreak(id quantum.NodeID, err error) {
	o.collector.RecordBreak(err == nil)
	if err != nil {
		o.logger.Debug("break entanglement refused", merge(Fields{"node": uint32(id)}, ErrorFields(err)))
		return
	}
	o.logger.Info("entanglement broken", Fields{"node": uint32(id)})
}

// OnKeyDistribution traces a key distribution and records its noise.
// Key material is never logged.
func (o *NetworkObserver) OnKeyDistribution(ctx context.Context, id1, id2 quantum.NodeID) (context.Context, func(int, error)) {
	start := time.Now()
	ctx, end := o.span(ctx, SpanQKD, ForNodes(uint32(id1), uint32(id2)))
	return ctx, func(flips int, err error) {
		if err != nil {
			o.collector.RecordKeyExchangeFailed()
			o.logger.Warn("key distribution refused", merge(pair(id1, id2), ErrorFields(err)))
		} else {
			d := time.Since(start)
			o.collector.RecordKeyExchange(flips, d)
			o.logger.Info("key distributed", merge(pair(id1, id2), Fields{
				"noisy_bytes": flips,
				"duration":    d.String(),
			}))
		}
		end(err)
	}
}

// OnSend traces an encrypted send.
func (o *NetworkObserver) OnSend(ctx context.Context, sender, receiver quantum.NodeID, size int) (context.Context, func(error)) {
	start := time.Now()
	attrs := ForNodes(uint32(sender), uint32(receiver))
	attrs.Bytes = size
	ctx, end := o.span(ctx, SpanSend, attrs)
	return ctx, func(err error) {
		if err != nil {
			o.collector.RecordSendError()
			o.logger.Warn("send failed", merge(pair(sender, receiver), ErrorFields(err)))
		} else {
			o.collector.RecordSend(size, time.Since(start))
			o.logger.Debug("packet sent", merge(pair(sender, receiver), Fields{"bytes": size}))
		}
		end(err)
	}
}

// OnReceive traces a receive. A decode failure is counted but is not an
// error for the span.
func (o *NetworkObserver) OnReceive(ctx context.Context, receiver, sender quantum.NodeID, size int) (context.Context, func(error)) {
	start := time.Now()
	attrs := ForNodes(uint32(receiver), uint32(sender))
	attrs.Bytes = size
	ctx, end := o.span(ctx, SpanReceive, attrs)
	return ctx, func(err error) {
		switch {
		case qerrors.Is(err, qerrors.ErrDecodeFailed):
			o.collector.RecordReceive(size, time.Since(start))
			o.collector.RecordDecodeFailure()
			o.logger.Warn("received payload is not valid text", pair(receiver, sender))
			err = nil
		case err != nil:
			o.collector.RecordReceiveError()
			o.logger.Warn("receive failed", merge(pair(receiver, sender), ErrorFields(err)))
		default:
			o.collector.RecordReceive(size, time.Since(start))
			o.logger.Debug("packet received", merge(pair(receiver, sender), Fields{"bytes": size}))
		}
		end(err)
	}
}

// OnErrorIntroduced records a simulated transmission error.
func (o *NetworkObserver) OnErrorIntroduced(id quantum.NodeID, kind string) {
	o.collector.RecordErrorIntroduced(kind)
	o.logger.Debug("error introduced", Fields{"node": uint32(id), "kind": kind})
}

// OnCorrection traces an error-correction pass.
func (o *NetworkObserver) OnCorrection(ctx context.Context, id quantum.NodeID) (context.Context, func(bool, error)) {
	ctx, end := o.span(ctx, SpanCorrect, SpanAttributes{NodeID: uint32(id), hasNodes: true})
	return ctx, func(corrected bool, err error) {
		if err == nil {
			o.collector.RecordCorrection(corrected)
			if corrected {
				o.logger.Info("error corrected", Fields{"node": uint32(id)})
			}
		}
		end(err)
	}
}

// OnTunnel records a tunneling attempt.
func (o *NetworkObserver) OnTunnel(id1, id2 quantum.NodeID, err error) {
	o.collector.RecordTunnel(err == nil)
	fields := pair(id1, id2)
	if err != nil {
		fields = merge(fields, ErrorFields(err))
	}
	o.logger.Debug("tunneling attempt", fields)
}

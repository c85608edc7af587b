//go:build otel

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelTracer sends simulation spans to the global OpenTelemetry provider.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer returns a tracer named serviceName, "quantum-netsim" if empty.
func NewOTelTracer(serviceName string) *OTelTracer {
	if serviceName == "" {
		serviceName = "quantum-netsim"
	}
	return &OTelTracer{tracer: otel.Tracer(serviceName)}
}

// StartSpan starts an OpenTelemetry span. Typed simulation attributes are
// converted directly; free-form attributes fall back to a type switch.
func (t *OTelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := newSpanConfig(opts)

	kvs := looseKeyValues(cfg.attributes)
	if cfg.sim != nil {
		kvs = append(kvs, cfg.sim.keyValues()...)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(otelSpanKind(cfg.kind)),
		trace.WithAttributes(kvs...),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// OTelEnabled reports whether OpenTelemetry support is built in.
func OTelEnabled() bool { return true }

func (a SpanAttributes) keyValues() []attribute.KeyValue {
	var kvs []attribute.KeyValue
	if a.RunID != "" {
		kvs = append(kvs, attribute.String(AttrRunID, a.RunID))
	}
	if a.hasNodes {
		kvs = append(kvs,
			attribute.Int64(AttrNodeID, int64(a.NodeID)),
			attribute.Int64(AttrPeerID, int64(a.PeerID)),
		)
	}
	if a.Bytes > 0 {
		kvs = append(kvs, attribute.Int(AttrBytes, a.Bytes))
	}
	if a.Kind != "" {
		kvs = append(kvs, attribute.String(AttrQECKind, a.Kind))
	}
	if a.Error != "" {
		kvs = append(kvs, attribute.String(AttrError, a.Error))
	}
	return kvs
}

func otelSpanKind(kind SpanKind) trace.SpanKind {
	switch kind {
	case SpanKindServer:
		return trace.SpanKindServer
	case SpanKindClient:
		return trace.SpanKindClient
	}
	return trace.SpanKindInternal
}

// looseKeyValues converts scenario-level attributes, which are strings,
// ints and node ids.
func looseKeyValues(attrs map[string]any) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			kvs = append(kvs, attribute.String(k, val))
		case int:
			kvs = append(kvs, attribute.Int(k, val))
		case uint32:
			kvs = append(kvs, attribute.Int64(k, int64(val)))
		case bool:
			kvs = append(kvs, attribute.Bool(k, val))
		default:
			kvs = append(kvs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return kvs
}

package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracer starts spans around simulation operations. Backends are the no-op
// tracer, the in-memory SimpleTracer and OpenTelemetry (build tag otel).
type Tracer interface {
	// StartSpan starts a new span with the given name.
	// Returns a context containing the span and a function to end the span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder)
}

// SpanEnder is a function that ends a span.
// Call with nil error for success, or pass an error to mark the span as failed.
type SpanEnder func(err error)

// SpanOption configures span behavior.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       SpanKind
	attributes map[string]any
	sim        *SpanAttributes
}

func newSpanConfig(opts []SpanOption) *spanConfig {
	cfg := &spanConfig{kind: SpanKindInternal}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// fields merges the free-form attributes with the simulation attributes.
// Simulation attributes win on key collisions.
func (c *spanConfig) fields() map[string]any {
	m := make(map[string]any, len(c.attributes)+6)
	for k, v := range c.attributes {
		m[k] = v
	}
	if c.sim != nil {
		for k, v := range c.sim.ToMap() {
			m[k] = v
		}
	}
	return m
}

// SpanKind identifies the type of span.
type SpanKind int

// SpanKindInternal is the default span kind; other values indicate server or client spans.
const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
)

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// WithAttributes sets free-form span attributes.
func WithAttributes(attrs map[string]any) SpanOption {
	return func(c *spanConfig) {
		c.attributes = attrs
	}
}

// WithSpanAttributes attaches the typed simulation attributes. Tracers map
// them to their native attribute types.
func WithSpanAttributes(attrs SpanAttributes) SpanOption {
	return func(c *spanConfig) {
		c.sim = &attrs
	}
}

// --- NoOp Tracer ---

// NoOpTracer is a tracer that does nothing.
// Useful as a default when tracing is not configured.
type NoOpTracer struct{}

// StartSpan returns the context unchanged and a no-op end function.
func (NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return ctx, func(err error) {}
}

// --- Simple Tracer ---

// SimpleTracer is a basic tracer that records spans in memory.
// Useful for testing and debugging.
type SimpleTracer struct {
	mu    sync.Mutex
	spans []RecordedSpan
}

// RecordedSpan represents a completed span.
type RecordedSpan struct {
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Kind       SpanKind
	Attributes map[string]any
	Error      error
	TraceID    string
	SpanID     string
	ParentID   string
}

// NewSimpleTracer creates a new SimpleTracer.
func NewSimpleTracer() *SimpleTracer {
	return &SimpleTracer{
		spans: make([]RecordedSpan, 0),
	}
}

// StartSpan starts a new span.
func (t *SimpleTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	cfg := newSpanConfig(opts)

	span := &RecordedSpan{
		Name:       name,
		StartTime:  time.Now(),
		Kind:       cfg.kind,
		Attributes: cfg.fields(),
		TraceID:    generateID(),
		SpanID:     generateID(),
	}

	// Check for parent span in context
	if parent := spanFromContext(ctx); parent != nil {
		span.ParentID = parent.SpanID
		span.TraceID = parent.TraceID
	}

	ctx = contextWithSpan(ctx, span)

	return ctx, func(err error) {
		span.EndTime = time.Now()
		span.Duration = span.EndTime.Sub(span.StartTime)
		span.Error = err

		t.mu.Lock()
		t.spans = append(t.spans, *span)
		t.mu.Unlock()
	}
}

// Spans returns all recorded spans.
func (t *SimpleTracer) Spans() []RecordedSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]RecordedSpan, len(t.spans))
	copy(result, t.spans)
	return result
}

// Reset clears all recorded spans.
func (t *SimpleTracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}

// --- Context helpers ---

type spanContextKey struct{}

func contextWithSpan(ctx context.Context, span *RecordedSpan) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

func spanFromContext(ctx context.Context) *RecordedSpan {
	if span, ok := ctx.Value(spanContextKey{}).(*RecordedSpan); ok {
		return span
	}
	return nil
}

// generateID returns a random span or trace identifier.
func generateID() string {
	return uuid.NewString()
}

// --- Global Tracer ---

var (
	globalTracer   Tracer = NoOpTracer{}
	globalTracerMu sync.RWMutex
)

// SetTracer sets the global tracer.
func SetTracer(t Tracer) {
	globalTracerMu.Lock()
	defer globalTracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer.
func GetTracer() Tracer {
	globalTracerMu.RLock()
	defer globalTracerMu.RUnlock()
	return globalTracer
}

// StartSpan starts a span using the global tracer.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, SpanEnder) {
	return GetTracer().StartSpan(ctx, name, opts...)
}

// --- Span Names ---

// Span names for simulator operations.
const (
	SpanEntangle     = "qnet.entangle"
	SpanPeerLink     = "qnet.entangle.peers"
	SpanQKD          = "qnet.qkd"
	SpanKeyStore     = "qnet.qkd.store"
	SpanSend         = "qnet.send"
	SpanReceive      = "qnet.receive"
	SpanCorrect      = "qnet.correct"
	SpanScenario     = "qnet.scenario"
	SpanScenarioStep = "qnet.scenario.step"
)

// Attribute keys shared by every tracer backend.
const (
	AttrRunID   = "sim.run_id"
	AttrNodeID  = "node.id"
	AttrPeerID  = "node.peer_id"
	AttrBytes   = "packet.bytes"
	AttrQECKind = "qec.kind"
	AttrError   = "error.message"
)

// SpanAttributes for common simulator operations.
type SpanAttributes struct {
	RunID    string
	NodeID   uint32
	PeerID   uint32
	Bytes    int
	Kind     string
	Error    string
	hasNodes bool
}

// ForNodes returns attributes naming the node pair an operation acts on.
func ForNodes(node, peer uint32) SpanAttributes {
	return SpanAttributes{NodeID: node, PeerID: peer, hasNodes: true}
}

// ToMap converts SpanAttributes to a generic map for use with tracers.
func (a SpanAttributes) ToMap() map[string]any {
	m := make(map[string]any)
	if a.RunID != "" {
		m[AttrRunID] = a.RunID
	}
	if a.hasNodes {
		m[AttrNodeID] = a.NodeID
		m[AttrPeerID] = a.PeerID
	}
	if a.Bytes > 0 {
		m[AttrBytes] = a.Bytes
	}
	if a.Kind != "" {
		m[AttrQECKind] = a.Kind
	}
	if a.Error != "" {
		m[AttrError] = a.Error
	}
	return m
}

package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates counters and latency distributions for a simulated
// network. All methods are safe for concurrent use.
type Collector struct {
	// Registry metrics
	nodesRegistered     atomic.Uint64
	registrationsFailed atomic.Uint64

	// Entanglement metrics
	entanglements       atomic.Uint64
	entanglementsFailed atomic.Uint64
	entanglementsBroken atomic.Uint64
	breaksFailed        atomic.Uint64

	// Key distribution metrics
	keyExchanges       atomic.Uint64
	keyExchangesFailed atomic.Uint64
	keyNoiseFlips      atomic.Uint64
	qkdLatency         *Histogram
	keyNoise           *Histogram

	// Traffic metrics
	bytesSent      atomic.Uint64
	bytesReceived  atomic.Uint64
	packetsSent    atomic.Uint64
	packetsRecv    atomic.Uint64
	sendErrors     atomic.Uint64
	receiveErrors  atomic.Uint64
	decodeFailures atomic.Uint64
	sendLatency    *Histogram
	receiveLatency *Histogram

	// Error model metrics
	bitFlips            atomic.Uint64
	phaseFlips          atomic.Uint64
	depolarizations     atomic.Uint64
	correctionsAttempts atomic.Uint64
	correctionsApplied  atomic.Uint64

	// Tunneling metrics
	tunnelAttempts  atomic.Uint64
	tunnelSuccesses atomic.Uint64

	createdAt time.Time
	labels    Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		qkdLatency:     NewHistogram(LatencyBuckets),
		keyNoise:       NewHistogram(KeyNoiseBuckets),
		sendLatency:    NewHistogram(LatencyBuckets),
		receiveLatency: NewHistogram(LatencyBuckets),
		createdAt:      time.Now(),
		labels:         labels,
	}
}

// Default bucket configurations for histograms.
var (
	// LatencyBuckets for simulated operations (microseconds).
	LatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}

	// KeyNoiseBuckets for noisy bytes per distributed key.
	KeyNoiseBuckets = LinearBuckets(0, 1, 6)
)

// --- Registry ---

// RecordNodeRegistered counts a successful node registration.
func (c *Collector) RecordNodeRegistered() { c.nodesRegistered.Add(1) }

// RecordRegistrationFailed counts a rejected registration.
func (c *Collector) RecordRegistrationFailed() { c.registrationsFailed.Add(1) }

// --- Entanglement ---

// RecordEntanglement counts an entanglement attempt.
func (c *Collector) RecordEntanglement(ok bool) {
	if ok {
		c.entanglements.Add(1)
		return
	}
	c.entanglementsFailed.Add(1)
}

// RecordBreak counts a break-entanglement attempt.
func (c *Collector) RecordBreak(ok bool) {
	if ok {
		c.entanglementsBroken.Add(1)
		return
	}
	c.breaksFailed.Add(1)
}

// --- Key Distribution ---

// RecordKeyExchange records a completed key distribution and its noise.
func (c *Collector) RecordKeyExchange(flips int, d time.Duration) {
	c.keyExchanges.Add(1)
	c.keyNoiseFlips.Add(uint64(flips))
	c.keyNoise.Observe(float64(flips))
	c.qkdLatency.Observe(float64(d.Microseconds()))
}

// RecordKeyExchangeFailed counts a refused key distribution.
func (c *Collector) RecordKeyExchangeFailed() { c.keyExchangesFailed.Add(1) }

// --- Traffic ---

// RecordSend records an encrypted packet leaving a node.
func (c *Collector) RecordSend(n int, d time.Duration) {
	c.packetsSent.Add(1)
	c.bytesSent.Add(uint64(n))
	c.sendLatency.Observe(float64(d.Microseconds()))
}

// RecordSendError counts a failed send.
func (c *Collector) RecordSendError() { c.sendErrors.Add(1) }

// RecordReceive records a packet decrypted by its receiver.
func (c *Collector) RecordReceive(n int, d time.Duration) {
	c.packetsRecv.Add(1)
	c.bytesReceived.Add(uint64(n))
	c.receiveLatency.Observe(float64(d.Microseconds()))
}

// RecordReceiveError counts a failed receive.
func (c *Collector) RecordReceiveError() { c.receiveErrors.Add(1) }

// RecordDecodeFailure counts a receive whose plaintext was not valid text.
func (c *Collector) RecordDecodeFailure() { c.decodeFailures.Add(1) }

// --- Error Model ---

// RecordErrorIntroduced counts an introduced error by kind name.
// Unknown names are counted as depolarizations.
func (c *Collector) RecordErrorIntroduced(kind string) {
	switch kind {
	case "BitFlip":
		c.bitFlips.Add(1)
	case "PhaseFlip":
		c.phaseFlips.Add(1)
	default:
		c.depolarizations.Add(1)
	}
}

// RecordCorrection counts a correction attempt and whether it changed state.
func (c *Collector) RecordCorrection(applied bool) {
	c.correctionsAttempts.Add(1)
	if applied {
		c.correctionsApplied.Add(1)
	}
}

// --- Tunneling ---

// RecordTunnel counts a tunneling attempt.
func (c *Collector) RecordTunnel(ok bool) {
	c.tunnelAttempts.Add(1)
	if ok {
		c.tunnelSuccesses.Add(1)
	}
}

// --- Snapshot ---

// Snapshot is a point-in-time copy of every metric.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration

	NodesRegistered     uint64
	RegistrationsFailed uint64

	Entanglements       uint64
	EntanglementsFailed uint64
	EntanglementsBroken uint64
	BreaksFailed        uint64

	KeyExchanges       uint64
	KeyExchangesFailed uint64
	KeyNoiseFlips      uint64

	BytesSent      uint64
	BytesReceived  uint64
	PacketsSent    uint64
	PacketsRecv    uint64
	SendErrors     uint64
	ReceiveErrors  uint64
	DecodeFailures uint64

	BitFlips           uint64
	PhaseFlips         uint64
	Depolarizations    uint64
	CorrectionAttempts uint64
	CorrectionsApplied uint64

	TunnelAttempts  uint64
	TunnelSuccesses uint64

	QKDLatency     HistogramSummary
	KeyNoise       HistogramSummary
	SendLatency    HistogramSummary
	ReceiveLatency HistogramSummary

	Labels Labels
}

// ErrorsIntroduced is the total over all error kinds.
func (s Snapshot) ErrorsIntroduced() uint64 {
	return s.BitFlips + s.PhaseFlips + s.Depolarizations
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(c.createdAt),
		NodesRegistered:     c.nodesRegistered.Load(),
		RegistrationsFailed: c.registrationsFailed.Load(),
		Entanglements:       c.entanglements.Load(),
		EntanglementsFailed: c.entanglementsFailed.Load(),
		EntanglementsBroken: c.entanglementsBroken.Load(),
		BreaksFailed:        c.breaksFailed.Load(),
		KeyExchanges:        c.keyExchanges.Load(),
		KeyExchangesFailed:  c.keyExchangesFailed.Load(),
		KeyNoiseFlips:       c.keyNoiseFlips.Load(),
		BytesSent:           c.bytesSent.Load(),
		BytesReceived:       c.bytesReceived.Load(),
		PacketsSent:         c.packetsSent.Load(),
		PacketsRecv:         c.packetsRecv.Load(),
		SendErrors:          c.sendErrors.Load(),
		ReceiveErrors:       c.receiveErrors.Load(),
		DecodeFailures:      c.decodeFailures.Load(),
		BitFlips:            c.bitFlips.Load(),
		PhaseFlips:          c.phaseFlips.Load(),
		Depolarizations:     c.depolarizations.Load(),
		CorrectionAttempts:  c.correctionsAttempts.Load(),
		CorrectionsApplied:  c.correctionsApplied.Load(),
		TunnelAttempts:      c.tunnelAttempts.Load(),
		TunnelSuccesses:     c.tunnelSuccesses.Load(),
		QKDLatency:          c.qkdLatency.Summary(),
		KeyNoise:            c.keyNoise.Summary(),
		SendLatency:         c.sendLatency.Summary(),
		ReceiveLatency:      c.receiveLatency.Summary(),
		Labels:              c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	for _, ctr := range []*atomic.Uint64{
		&c.nodesRegistered, &c.registrationsFailed,
		&c.entanglements, &c.entanglementsFailed, &c.entanglementsBroken, &c.breaksFailed,
		&c.keyExchanges, &c.keyExchangesFailed, &c.keyNoiseFlips,
		&c.bytesSent, &c.bytesReceived, &c.packetsSent, &c.packetsRecv,
		&c.sendErrors, &c.receiveErrors, &c.decodeFailures,
		&c.bitFlips, &c.phaseFlips, &c.depolarizations,
		&c.correctionsAttempts, &c.correctionsApplied,
		&c.tunnelAttempts, &c.tunnelSuccesses,
	} {
		ctr.Store(0)
	}
	c.qkdLatency.Reset()
	c.keyNoise.Reset()
	c.sendLatency.Reset()
	c.receiveLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector.
// Creates one with default settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		if globalCollector == nil {
			globalCollector = NewCollector(Labels{"instance": "default"})
		}
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector.
// Should be called during initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollector = c
}

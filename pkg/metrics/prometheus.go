package metrics

import (
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"slices"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "quantum_netsim").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// promSeries is one scalar metric in the exposition.
type promSeries struct {
	name  string
	typ   string
	help  string
	value float64
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := formatLabels(snap.Labels)

	series := []promSeries{
		{"nodes_registered_total", "counter", "Nodes added to the registry", float64(snap.NodesRegistered)},
		{"registrations_failed_total", "counter", "Registrations rejected as duplicates", float64(snap.RegistrationsFailed)},

		{"entanglements_total", "counter", "Successful entanglement operations", float64(snap.Entanglements)},
		{"entanglements_failed_total", "counter", "Entanglement operations that failed", float64(snap.EntanglementsFailed)},
		{"entanglements_broken_total", "counter", "Entanglements broken", float64(snap.EntanglementsBroken)},
		{"breaks_failed_total", "counter", "Break requests on nodes that were not entangled", float64(snap.BreaksFailed)},

		{"key_exchanges_total", "counter", "Keys distributed", float64(snap.KeyExchanges)},
		{"key_exchanges_failed_total", "counter", "Key distributions refused", float64(snap.KeyExchangesFailed)},
		{"key_noise_flips_total", "counter", "Key bytes altered by channel noise", float64(snap.KeyNoiseFlips)},

		{"bytes_sent_total", "counter", "Plaintext bytes sent", float64(snap.BytesSent)},
		{"bytes_received_total", "counter", "Ciphertext bytes received", float64(snap.BytesReceived)},
		{"packets_sent_total", "counter", "Encrypted packets sent", float64(snap.PacketsSent)},
		{"packets_received_total", "counter", "Encrypted packets received", float64(snap.PacketsRecv)},
		{"send_errors_total", "counter", "Sends that failed", float64(snap.SendErrors)},
		{"receive_errors_total", "counter", "Receives that failed", float64(snap.ReceiveErrors)},
		{"decode_failures_total", "counter", "Receives whose plaintext was not valid text", float64(snap.DecodeFailures)},

		{"bit_flips_total", "counter", "BitFlip errors introduced", float64(snap.BitFlips)},
		{"phase_flips_total", "counter", "PhaseFlip errors introduced", float64(snap.PhaseFlips)},
		{"depolarizations_total", "counter", "Depolarizing errors introduced", float64(snap.Depolarizations)},
		{"correction_attempts_total", "counter", "Error correction attempts", float64(snap.CorrectionAttempts)},
		{"corrections_applied_total", "counter", "Corrections that restored a state", float64(snap.CorrectionsApplied)},

		{"tunnel_attempts_total", "counter", "Tunneling attempts", float64(snap.TunnelAttempts)},
		{"tunnel_successes_total", "counter", "Tunneling attempts that succeeded", float64(snap.TunnelSuccesses)},

		{"uptime_seconds", "gauge", "Time since the collector was created", snap.Uptime.Seconds()},
	}

	for _, s := range series {
		e.writeHelp(w, s.name, s.help)
		e.writeType(w, s.name, s.typ)
		e.writeMetric(w, s.name, labels, s.value)
	}

	e.writeHistogram(w, "qkd_duration_microseconds", "Key distribution duration in microseconds", labels, snap.QKDLatency)
	e.writeHistogram(w, "key_noise_bytes", "Noisy bytes per distributed key", labels, snap.KeyNoise)
	e.writeHistogram(w, "send_duration_microseconds", "Send duration in microseconds", labels, snap.SendLatency)
	e.writeHistogram(w, "receive_duration_microseconds", "Receive duration in microseconds", labels, snap.ReceiveLatency)
}

func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name
	prefix := ""
	if labels != "" {
		prefix = labels + ","
	}

	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		fmt.Fprintf(w, "%s_bucket{%sle=\"%s\"} %d\n", fullName, prefix, le, b.Count)
	}

	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels renders labels sorted by key.
func formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	parts := make([]string, 0, len(labels))
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, escapePromValue(labels[k])))
	}
	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}

// Package metrics provides observability primitives for the quantum network
// simulator.
//
// # Overview
//
// The package offers:
//   - Metrics collection (atomic counters and histograms)
//   - Prometheus-compatible metrics export
//   - Tracing behind a small Tracer interface (OpenTelemetry with -tags otel)
//   - Structured logging with levels
//   - Health check endpoints
//   - NetworkObserver, which plugs all of the above into quantum.Observer
//
// # Metrics Collection
//
// The Collector counts simulation events:
//
//	collector := metrics.NewCollector(metrics.Labels{"instance": "lab-1"})
//
//	collector.RecordNodeRegistered()
//	collector.RecordEntanglement(true)
//	collector.RecordKeyExchange(flips, d)
//	collector.RecordSend(len(msg), d)
//	collector.RecordErrorIntroduced("BitFlip")
//
//	snap := collector.Snapshot()
//
// # Observer
//
// Simulator and API accept a quantum.Observer. NetworkObserver records the
// counters, opens spans named qnet.* and logs each event:
//
//	obs := metrics.NewNetworkObserver(metrics.NetworkObserverConfig{
//		Collector: collector,
//		Tracer:    metrics.NewSimpleTracer(),
//		RunID:     runID,
//	})
//
// # Prometheus Export
//
//	exporter := metrics.NewPrometheusExporter(collector, "quantum_netsim")
//	http.Handle("/metrics", exporter.Handler())
//
// # Tracing
//
//	tracer := metrics.NewSimpleTracer()
//	metrics.SetTracer(tracer)
//
//	// OpenTelemetry adapter (uses the global provider); build with -tags otel.
//	metrics.SetTracer(metrics.NewOTelTracer("quantum-netsim"))
//
//	ctx, end := metrics.StartSpan(ctx, metrics.SpanQKD)
//	defer end(nil)
//
// # Structured Logging
//
//	logger := metrics.NewLogger(
//		metrics.WithLevel(metrics.LevelInfo),
//		metrics.WithFormat(metrics.FormatJSON),
//	)
//	logger.Named("sim").Info("scenario finished", metrics.Fields{"steps": 12})
//
// Key material is never logged; use crypto.Fingerprint when a key must be
// identified.
//
// # Observability Server
//
//	server := metrics.NewServer(metrics.ServerConfig{
//		Collector:        collector,
//		Version:          version.String(),
//		EnablePrometheus: true,
//		EnableHealth:     true,
//	})
//
// This provides:
//   - /metrics - Prometheus metrics
//   - /health  - Detailed health status
//   - /healthz - Liveness probe
//   - /readyz  - Readiness probe
package metrics

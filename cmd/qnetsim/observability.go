package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pzverkov/quantum-netsim/internal/config"
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
)

// setupObservability installs the global logger, tracer and collector
// described by cfg.
func setupObservability(cfg *config.Config) (*metrics.Collector, *metrics.Logger, error) {
	level, err := parseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(level),
		metrics.WithFormat(cfg.LogFormat()),
		metrics.WithFields(metrics.Fields{"app": "qnetsim"}),
	)
	metrics.SetLogger(logger)

	switch strings.ToLower(cfg.Tracing.Backend) {
	case "none":
		metrics.SetTracer(metrics.NoOpTracer{})
	case "simple":
		metrics.SetTracer(metrics.NewSimpleTracer())
	case "otel":
		if !metrics.OTelEnabled() {
			return nil, nil, fmt.Errorf("otel tracing not enabled (build with -tags otel)")
		}
		metrics.SetTracer(metrics.NewOTelTracer(cfg.Tracing.ServiceName))
	default:
		return nil, nil, fmt.Errorf("invalid tracing mode: %s (use none, simple, or otel)", cfg.Tracing.Backend)
	}

	labels := metrics.Labels{"service": "qnetsim"}
	for k, v := range cfg.Metrics.Labels {
		labels[k] = v
	}
	collector := metrics.NewCollector(labels)
	metrics.SetGlobal(collector)

	return collector, logger, nil
}

func parseLogLevel(level string) (metrics.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return metrics.LevelDebug, nil
	case "info":
		return metrics.LevelInfo, nil
	case "warn", "warning":
		return metrics.LevelWarn, nil
	case "error":
		return metrics.LevelError, nil
	case "silent", "off", "none":
		return metrics.LevelSilent, nil
	default:
		return metrics.LevelInfo, fmt.Errorf("invalid log level: %s (use debug, info, warn, error, silent)", level)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"syscall"

	"github.com/oklog/run"

	"github.com/pzverkov/quantum-netsim/pkg/metrics"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
	"github.com/pzverkov/quantum-netsim/pkg/sim"
)

func serveCommand(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	common := addCommonFlags(fs)
	addr := fs.String("addr", "", "Observability server address (default: metrics.addr from config, :9090)")
	scenarioPath := fs.String("scenario", "", "Scenario to run before serving (default: built-in demo)")

	fs.Usage = func() {
		fmt.Println(`USAGE: qnetsim serve [options]

Run a scenario, then serve its metrics until SIGINT or SIGTERM.

ENDPOINTS:
    /metrics  Prometheus metrics
    /health   Detailed health status
    /healthz  Liveness probe
    /readyz   Readiness probe

OPTIONS:`)
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Metrics.Addr = *addr
	}
	collector, logger, err := setupObservability(cfg)
	if err != nil {
		return err
	}

	sc, err := resolveScenario(*scenarioPath, cfg)
	if err != nil {
		return err
	}
	simCfg := sim.Config{Logger: logger}
	if sc.Seed != nil {
		simCfg.Rand = rng.New(*sc.Seed)
	}
	s, err := sim.New(simCfg)
	if err != nil {
		return err
	}

	report, err := s.Run(context.Background(), sc)
	if err != nil {
		return err
	}
	printReport(os.Stdout, report)

	server := metrics.NewServer(metrics.ServerConfig{
		Collector:        collector,
		Version:          getVersion(),
		Namespace:        cfg.Metrics.Namespace,
		EnablePrometheus: true,
		EnableHealth:     true,
	})
	server.AddHealthCheck("nodes", metrics.MinNodesCheck(s.Len, 1))
	httpServer := server.HTTPServer(cfg.Metrics.Addr)

	var g run.Group
	g.Add(func() error {
		logger.Info("observability server listening", metrics.Fields{"addr": cfg.Metrics.Addr})
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Metrics.ShutdownTimeout.Duration())
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	})
	g.Add(run.SignalHandler(context.Background(), os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		logger.Info("shutting down", metrics.Fields{"signal": sigErr.Signal.String()})
		return nil
	}
	return err
}

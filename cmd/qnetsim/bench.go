package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/pzverkov/quantum-netsim/pkg/api"
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
)

func benchCommand(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	common := addCommonFlags(fs)
	rounds := fs.Int("rounds", 0, "Key exchange + send/receive rounds (default: bench.rounds from config, 1000)")
	size := fs.Int("size", 0, "Message size in bytes (default: bench.message_size from config, 256)")
	seed := fs.Uint64("seed", 1, "Seed for the key generator")

	fs.Usage = func() {
		fmt.Println(`USAGE: qnetsim bench [options]

Measure key exchange and encrypted message throughput through the service
facade.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    qnetsim bench --rounds 10000
    qnetsim bench --size 4096`)
	}
	_ = fs.Parse(args)

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if *rounds > 0 {
		cfg.Bench.Rounds = *rounds
	}
	if *size > 0 {
		cfg.Bench.MessageSize = *size
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Per-operation logs would dominate the measurement.
	cfg.Log.Level = "error"
	collector, logger, err := setupObservability(cfg)
	if err != nil {
		return err
	}

	svc, err := api.New(
		api.WithSeed(*seed),
		api.WithLogger(logger),
		api.WithObserver(metrics.NewNetworkObserver(metrics.NetworkObserverConfig{
			Collector: collector,
			Logger:    logger,
		})),
	)
	if err != nil {
		return err
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      Quantum Network Simulator Benchmark                  ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Rounds: %d, message size: %d bytes\n", cfg.Bench.Rounds, cfg.Bench.MessageSize)
	fmt.Println(strings.Repeat("─", 60))

	ctx := context.Background()
	const a, b quantum.NodeID = 1, 2
	for _, id := range []quantum.NodeID{a, b} {
		if err := svc.RegisterNode(ctx, id); err != nil {
			return err
		}
	}
	if err := svc.EntangleNodes(ctx, a, b); err != nil {
		return err
	}

	message := strings.Repeat("q", cfg.Bench.MessageSize)
	failed := 0
	start := time.Now()
	for range cfg.Bench.Rounds {
		if err := benchRound(ctx, svc, a, b, message); err != nil {
			failed++
		}
	}
	total := time.Since(start)

	snap := collector.Snapshot()
	fmt.Println("\nResults:")
	fmt.Printf("  Rounds: %d\n", cfg.Bench.Rounds)
	fmt.Printf("  Failed: %d\n", failed)
	fmt.Printf("  Total time: %v\n", total)
	fmt.Println()
	fmt.Println("Key Exchange:")
	printLatency(snap.QKDLatency)
	fmt.Printf("  Noisy bytes per key: %.2f\n", snap.KeyNoise.Mean)
	fmt.Println()
	fmt.Println("Send:")
	printLatency(snap.SendLatency)
	fmt.Println()
	fmt.Println("Receive:")
	printLatency(snap.ReceiveLatency)
	fmt.Println()

	if secs := total.Seconds(); secs > 0 {
		done := float64(cfg.Bench.Rounds - failed)
		fmt.Printf("Throughput: %.0f rounds/sec, %.2f MB/s plaintext\n",
			done/secs, float64(snap.BytesSent)/secs/1e6)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d rounds failed", failed, cfg.Bench.Rounds)
	}
	return nil
}

// benchRound refreshes the shared key and sends one message each way.
func benchRound(ctx context.Context, svc *api.API, a, b quantum.NodeID, message string) error {
	if err := svc.ExchangeKeys(ctx, a, b); err != nil {
		return err
	}
	for _, dir := range [][2]quantum.NodeID{{a, b}, {b, a}} {
		p, err := svc.SendMessage(ctx, dir[0], dir[1], message)
		if err != nil {
			return err
		}
		got, err := svc.ReceiveMessage(ctx, dir[1], p)
		if err != nil {
			return err
		}
		if got != message {
			return fmt.Errorf("round trip mismatch")
		}
	}
	return nil
}

// printLatency prints a microsecond histogram summary.
func printLatency(h metrics.HistogramSummary) {
	if h.Count == 0 {
		fmt.Println("  (no samples)")
		return
	}
	us := func(v float64) time.Duration { return time.Duration(v * float64(time.Microsecond)) }
	fmt.Printf("  Average: %v\n", us(h.Mean))
	fmt.Printf("  p50: %v  p99: %v\n", us(h.Percentiles[0.5]), us(h.Percentiles[0.99]))
	fmt.Printf("  Min: %v  Max: %v\n", us(h.Min), us(h.Max))
}

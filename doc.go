// Package qnetsim simulates a network of abstract quantum nodes that can be
// entangled, share a key through simulated quantum key distribution, exchange
// encrypted packets, and suffer and recover from transmission errors.
//
// The model is deliberately simplified and is not physically faithful.
//
// # Quick Start
//
// Through the concurrency-safe service facade:
//
//	import "github.com/pzverkov/quantum-netsim/pkg/api"
//
//	svc, _ := api.New(api.WithSeed(42))
//	_ = svc.RegisterNode(ctx, 1)
//	_ = svc.RegisterNode(ctx, 2)
//	_ = svc.EntangleNodes(ctx, 1, 2)
//	_ = svc.ExchangeKeys(ctx, 1, 2)
//	p, _ := svc.SendMessage(ctx, 1, 2, "hello")
//	text, _ := svc.ReceiveMessage(ctx, 2, p) // "hello"
//
// Or with a scripted scenario:
//
//	sc, _ := sim.LoadScenario("hello.yaml")
//	report, _ := sim.RunScenario(ctx, sc, sim.Config{})
//
// # Package Structure
//
//   - pkg/quantum: states, nodes, the registry, entanglement and tunneling
//   - pkg/qkd: simulated key distribution with channel noise
//   - pkg/crypto: repeating-key XOR cipher and key fingerprints
//   - pkg/qec: error injection, detection and correction
//   - pkg/packet: immutable packets, node-level send/receive, wire codec
//   - pkg/sim: single-threaded simulator and YAML scenarios
//   - pkg/api: synchronous service facade guarded by one lock
//   - pkg/rng: seedable randomness (SHAKE-256 expanded ChaCha20 keystream)
//   - pkg/metrics: logging, counters, Prometheus export, health, tracing
//   - internal/config: optional YAML configuration file
//   - internal/constants: simulation parameters
//   - internal/errors: sentinel errors and context wrappers
//
// # Testing
//
//	go test ./...                             # All tests
//	go test -fuzz=FuzzRoundTrip ./pkg/crypto
//	go test -fuzz=FuzzDecode ./pkg/packet
//	go test -bench=. ./pkg/qkd
//	go test -tags otel ./pkg/metrics          # OpenTelemetry tracer
package qnetsim

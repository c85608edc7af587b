package sim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
)

func quietConfig() Config {
	return Config{
		Observer: quantum.NopObserver{},
		Tracer:   metrics.NoOpTracer{},
		Logger:   metrics.NullLogger(),
	}
}

func TestDemoScenario(t *testing.T) {
	Convey("Given the built-in demo scenario", t, func() {
		sc := DemoScenario()
		So(sc.Name, ShouldEqual, "demo")
		So(sc.Seed, ShouldNotBeNil)

		Convey("When it runs", func() {
			report, err := RunScenario(context.Background(), sc, quietConfig())
			So(err, ShouldBeNil)

			Convey("Every step should pass", func() {
				for _, step := range report.Steps {
					So(step.Reason, ShouldBeEmpty)
				}
				So(report.Passed(), ShouldBeTrue)
				So(report.Steps, ShouldHaveLength, len(sc.Steps))
				So(report.Network, ShouldEqual, "Quantum Network with 4 nodes")
			})

			Convey("Expected failures should be reported by name", func() {
				So(report.Steps[6].Error, ShouldEqual, "not_entangled")
				So(report.Steps[7].Error, ShouldEqual, "no_key")
			})
		})
	})
}

func TestScenarioReproducible(t *testing.T) {
	Convey("Given a seeded scenario with random steps", t, func() {
		sc, err := ParseScenario([]byte(`
seed: 7
nodes:
  - id: 1
  - id: 2
    state: one
steps:
  - op: introduce_error
    nodes: [1]
  - op: introduce_error
    nodes: [2]
  - op: state
    nodes: [1]
  - op: state
    nodes: [2]
`))
		So(err, ShouldBeNil)

		Convey("Two runs should produce identical outputs", func() {
			a, err := RunScenario(context.Background(), sc, quietConfig())
			So(err, ShouldBeNil)
			b, err := RunScenario(context.Background(), sc, quietConfig())
			So(err, ShouldBeNil)

			for i := range a.Steps {
				So(a.Steps[i].Output, ShouldEqual, b.Steps[i].Output)
			}
			So(a.RunID, ShouldNotEqual, b.RunID)
		})
	})
}

func TestScenarioFailures(t *testing.T) {
	Convey("Given a scenario whose expectations do not hold", t, func() {
		sc, err := ParseScenario([]byte(`
nodes:
  - id: 1
  - id: 2
steps:
  - op: qkd
    nodes: [1, 2]
  - op: state
    nodes: [1]
    want: One
  - op: break
    nodes: [1]
    expect: no_key
  - op: receive
    nodes: [2]
`))
		So(err, ShouldBeNil)

		Convey("Each failed step should carry a reason", func() {
			report, err := RunScenario(context.Background(), sc, quietConfig())
			So(err, ShouldBeNil)
			So(report.Failures(), ShouldEqual, 4)
			So(report.Passed(), ShouldBeFalse)

			So(report.Steps[0].Error, ShouldEqual, "not_entangled")
			So(report.Steps[1].Output, ShouldEqual, "Zero")
			So(report.Steps[2].Error, ShouldEqual, "not_entangled")
			So(report.Steps[3].Error, ShouldEqual, "invalid_scenario")
			for _, step := range report.Steps {
				So(step.Reason, ShouldNotBeEmpty)
			}
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Run should stop before the first step", func() {
			report, err := RunScenario(ctx, DemoScenario(), quietConfig())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(report.Steps, ShouldBeEmpty)
		})
	})
}

func TestParseScenarioErrors(t *testing.T) {
	Convey("Given malformed scenario documents", t, func() {
		cases := []struct {
			name string
			doc  string
			want error
		}{
			{"unknown operation", "steps:\n  - op: teleport\n    nodes: [1]\n", qerrors.ErrUnknownOperation},
			{"wrong arity", "steps:\n  - op: entangle\n    nodes: [1]\n", qerrors.ErrInvalidScenario},
			{"unknown field", "steps:\n  - op: state\n    node: 1\n", qerrors.ErrInvalidScenario},
			{"duplicate node", "nodes:\n  - id: 1\n  - id: 1\n", qerrors.ErrInvalidScenario},
			{"bad state", "nodes:\n  - id: 1\n    state: plus\n", qerrors.ErrInvalidScenario},
			{"not yaml", "steps: [", qerrors.ErrInvalidScenario},
		}

		for _, tc := range cases {
			Convey("It should reject "+tc.name, func() {
				_, err := ParseScenario([]byte(tc.doc))
				So(errors.Is(err, tc.want), ShouldBeTrue)
			})
		}
	})

	Convey("Given an empty document", t, func() {
		sc, err := ParseScenario(nil)

		Convey("It should parse to an empty scenario", func() {
			So(err, ShouldBeNil)
			So(sc.Steps, ShouldBeEmpty)
		})
	})
}

func TestLoadScenario(t *testing.T) {
	Convey("Given a scenario file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "hello.yaml")
		doc := "name: hello\nnodes:\n  - id: 1\nsteps:\n  - op: state\n    nodes: [1]\n    want: Zero\n"
		So(os.WriteFile(path, []byte(doc), 0o600), ShouldBeNil)

		Convey("LoadScenario should read and validate it", func() {
			sc, err := LoadScenario(path)
			So(err, ShouldBeNil)
			So(sc.Name, ShouldEqual, "hello")
			So(sc.Steps, ShouldHaveLength, 1)
		})

		Convey("A missing file should fail", func() {
			_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestScenarioSpans(t *testing.T) {
	Convey("Given a simulator with an in-memory tracer", t, func() {
		tracer := metrics.NewSimpleTracer()
		cfg := quietConfig()
		cfg.Tracer = tracer

		Convey("A run should record one scenario span and one span per step", func() {
			sc := DemoScenario()
			_, err := RunScenario(context.Background(), sc, cfg)
			So(err, ShouldBeNil)

			counts := map[string]int{}
			for _, span := range tracer.Spans() {
				counts[span.Name]++
			}
			So(counts[metrics.SpanScenario], ShouldEqual, 1)
			So(counts[metrics.SpanScenarioStep], ShouldEqual, len(sc.Steps))
		})
	})
}

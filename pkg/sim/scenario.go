package sim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	qerrors "github.com/pzverkov/quantum-netsim/internal/errors"
	"github.com/pzverkov/quantum-netsim/pkg/metrics"
	"github.com/pzverkov/quantum-netsim/pkg/packet"
	"github.com/pzverkov/quantum-netsim/pkg/quantum"
	"github.com/pzverkov/quantum-netsim/pkg/rng"
)

// Scenario operations.
const (
	OpAdd            = "add"
	OpEntangle       = "entangle"
	OpAreEntangled   = "are_entangled"
	OpBreak          = "break"
	OpQKD            = "qkd"
	OpSend           = "send"
	OpReceive        = "receive"
	OpIntroduceError = "introduce_error"
	OpDetect         = "detect"
	OpCorrect        = "correct"
	OpTunnel         = "tunnel"
	OpState          = "state"
)

// opArity is the number of node ids each operation takes.
var opArity = map[string]int{
	OpAdd:            1,
	OpEntangle:       2,
	OpAreEntangled:   2,
	OpBreak:          1,
	OpQKD:            2,
	OpSend:           2,
	OpReceive:        1,
	OpIntroduceError: 1,
	OpDetect:         1,
	OpCorrect:        1,
	OpTunnel:         2,
	OpState:          1,
}

// Scenario is a scripted simulation loaded from YAML:
//
//	name: hello
//	seed: 42
//	nodes:
//	  - id: 1
//	  - id: 2
//	    state: one
//	steps:
//	  - op: entangle
//	    nodes: [1, 2]
//	  - op: qkd
//	    nodes: [1, 2]
//	  - op: send
//	    nodes: [1, 2]
//	    message: hello
//	  - op: receive
//	    nodes: [2]
//	    want: hello
//	  - op: break
//	    nodes: [1]
//	    expect: not_entangled
type Scenario struct {
	Name  string     `yaml:"name"`
	Seed  *uint64    `yaml:"seed,omitempty"`
	Nodes []NodeSpec `yaml:"nodes"`
	Steps []Step     `yaml:"steps"`
}

// NodeSpec declares a node present before the first step.
type NodeSpec struct {
	ID    uint32  `yaml:"id"`
	State string  `yaml:"state,omitempty"` // zero (default) or one
	X     float64 `yaml:"x,omitempty"`
	Y     float64 `yaml:"y,omitempty"`
}

// Step is one scenario operation.
type Step struct {
	Op      string   `yaml:"op"`
	Nodes   []uint32 `yaml:"nodes"`
	Message string   `yaml:"message,omitempty"`
	State   string   `yaml:"state,omitempty"` // add: initial state; correct: expected state

	// Expect names the error the step must fail with (see errors.Name).
	// Empty means the step must succeed.
	Expect string `yaml:"expect,omitempty"`

	// Want, when set, must equal the step's output.
	Want *string `yaml:"want,omitempty"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario. Unknown fields are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", qerrors.ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks node declarations and step shapes.
func (sc *Scenario) Validate() error {
	seen := make(map[uint32]bool, len(sc.Nodes))
	for _, n := range sc.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("%w: node %d declared twice", qerrors.ErrInvalidScenario, n.ID)
		}
		seen[n.ID] = true
		if _, err := parseStateOrZero(n.State); err != nil {
			return fmt.Errorf("%w: node %d: %v", qerrors.ErrInvalidScenario, n.ID, err)
		}
	}

	for i, st := range sc.Steps {
		arity, ok := opArity[st.Op]
		if !ok {
			return fmt.Errorf("step %d: %w %q", i+1, qerrors.ErrUnknownOperation, st.Op)
		}
		if len(st.Nodes) != arity {
			return fmt.Errorf("%w: step %d: %s takes %d node ids, got %d",
				qerrors.ErrInvalidScenario, i+1, st.Op, arity, len(st.Nodes))
		}
		if _, err := parseStateOrZero(st.State); err != nil {
			return fmt.Errorf("%w: step %d: %v", qerrors.ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func parseStateOrZero(text string) (quantum.State, error) {
	if text == "" {
		return quantum.Zero(), nil
	}
	return quantum.ParseState(text)
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index  int    `json:"index"` // 1-based
	Op     string `json:"op"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"` // errors.Name of the failure
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Report summarizes a scenario run.
type Report struct {
	Name     string        `json:"name"`
	RunID    string        `json:"run_id"`
	Seed     *uint64       `json:"seed,omitempty"`
	Steps    []StepResult  `json:"steps"`
	Duration time.Duration `json:"duration"`
	Network  string        `json:"network"`
}

// Failures returns the number of failed steps.
func (r *Report) Failures() int {
	n := 0
	for _, s := range r.Steps {
		if !s.Passed {
			n++
		}
	}
	return n
}

// Passed reports whether every step passed.
func (r *Report) Passed() bool { return r.Failures() == 0 }

// RunScenario builds a simulator for sc and runs it. A seed in the scenario
// overrides cfg.Rand. Step failures are recorded in the report; the returned
// error is non-nil only if the scenario could not run.
func RunScenario(ctx context.Context, sc *Scenario, cfg Config) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if sc.Seed != nil {
		cfg.Rand = rng.New(*sc.Seed)
	}
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, sc)
}

// Run executes sc against the simulator's network.
func (s *Simulator) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	start := time.Now()
	ctx, end := s.tracer.StartSpan(ctx, metrics.SpanScenario,
		metrics.WithSpanAttributes(metrics.SpanAttributes{RunID: s.runID}),
		metrics.WithAttributes(map[string]any{
			"scenario.name":  sc.Name,
			"scenario.steps": len(sc.Steps),
		}),
	)

	report := &Report{Name: sc.Name, RunID: s.runID, Seed: sc.Seed}

	for _, n := range sc.Nodes {
		state, _ := parseStateOrZero(n.State)
		if err := s.AddNodeWithState(quantum.NodeID(n.ID), state, quantum.Position{X: n.X, Y: n.Y}); err != nil {
			end(err)
			return nil, fmt.Errorf("%w: %v", qerrors.ErrInvalidScenario, err)
		}
	}

	r := runner{sim: s, inbox: make(map[quantum.NodeID][]packet.Packet)}
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			end(err)
			return report, err
		}
		report.Steps = append(report.Steps, r.step(ctx, i+1, st))
	}

	report.Duration = time.Since(start)
	report.Network = s.String()
	s.logger.Info("scenario finished", metrics.Fields{
		"scenario": sc.Name,
		"steps":    len(report.Steps),
		"failures": report.Failures(),
		"duration": report.Duration.String(),
	})
	end(nil)
	return report, nil
}

// runner holds per-run state: packets sent but not yet received, by
// receiver, in send order.
type runner struct {
	sim   *Simulator
	inbox map[quantum.NodeID][]packet.Packet
}

func (r *runner) step(ctx context.Context, index int, st Step) StepResult {
	ctx, end := r.sim.tracer.StartSpan(ctx, metrics.SpanScenarioStep, metrics.WithAttributes(map[string]any{
		"scenario.step": index,
		"scenario.op":   st.Op,
	}))

	output, err := r.exec(ctx, st)
	res := StepResult{Index: index, Op: st.Op, Output: output, Error: qerrors.Name(err)}
	if err != nil && res.Error == "" {
		res.Error = err.Error()
	}

	switch {
	case st.Expect != "" && res.Error != st.Expect:
		res.Reason = fmt.Sprintf("expected error %s, got %q", st.Expect, res.Error)
	case st.Expect == "" && err != nil && !qerrors.Is(err, qerrors.ErrDecodeFailed):
		res.Reason = fmt.Sprintf("unexpected error: %v", err)
	case st.Want != nil && output != *st.Want:
		res.Reason = fmt.Sprintf("output %q, want %q", output, *st.Want)
	default:
		res.Passed = true
	}

	if !res.Passed {
		r.sim.logger.Warn("scenario step failed", metrics.Fields{
			"step":   index,
			"op":     st.Op,
			"reason": res.Reason,
		})
	}
	end(err)
	return res
}

// exec runs one step and renders its output as text.
func (r *runner) exec(ctx context.Context, st Step) (string, error) {
	s := r.sim
	ids := make([]quantum.NodeID, len(st.Nodes))
	for i, id := range st.Nodes {
		ids[i] = quantum.NodeID(id)
	}

	switch st.Op {
	case OpAdd:
		state, _ := parseStateOrZero(st.State)
		return "", s.AddNodeWithState(ids[0], state, quantum.Position{})

	case OpEntangle:
		return "", s.Entangle(ctx, ids[0], ids[1])

	case OpAreEntangled:
		ok, err := s.AreEntangled(ids[0], ids[1])
		return boolOutput(ok, err)

	case OpBreak:
		return "", s.BreakEntanglement(ids[0])

	case OpQKD:
		key, err := s.PerformQKD(ctx, ids[0], ids[1])
		if err != nil {
			return "", err
		}
		return strconv.Itoa(len(key)), nil

	case OpSend:
		p, err := s.Send(ctx, ids[0], ids[1], st.Message)
		if err != nil {
			return "", err
		}
		r.inbox[ids[1]] = append(r.inbox[ids[1]], p)
		return strconv.Itoa(p.Len()), nil

	case OpReceive:
		queue := r.inbox[ids[0]]
		if len(queue) == 0 {
			return "", fmt.Errorf("%w: no packet pending for node %d", qerrors.ErrInvalidScenario, ids[0])
		}
		r.inbox[ids[0]] = queue[1:]
		return s.Receive(ctx, ids[0], queue[0])

	case OpIntroduceError:
		return s.IntroduceErrors(ids[0])

	case OpDetect:
		_, found, err := s.DetectErrors(ids[0])
		return boolOutput(found, err)

	case OpCorrect:
		expected, _ := parseStateOrZero(st.State)
		ok, err := s.CorrectErrors(ctx, ids[0], expected)
		return boolOutput(ok, err)

	case OpTunnel:
		return "", s.Tunnel(ids[0], ids[1])

	case OpState:
		state, err := s.State(ids[0])
		if err != nil {
			return "", err
		}
		return state.String(), nil
	}
	return "", fmt.Errorf("%w %q", qerrors.ErrUnknownOperation, st.Op)
}

func boolOutput(v bool, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(v), nil
}

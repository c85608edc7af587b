package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pzverkov/quantum-netsim/internal/config"
	"github.com/pzverkov/quantum-netsim/pkg/sim"
)

var errStepsFailed = errors.New("scenario had failing steps")

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	common := addCommonFlags(fs)
	scenarioPath := fs.String("scenario", "", "Scenario file (default: simulation.scenario from config, else the built-in demo)")
	seed := fs.Uint64("seed", 0, "Seed for reproducible runs; overrides the scenario's seed")
	asJSON := fs.Bool("json", false, "Print the report as JSON")

	fs.Usage = func() {
		fmt.Println(`USAGE: qnetsim run [options]

Run a scripted scenario and print a per-step report. Exits non-zero if any
step fails.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    qnetsim run --scenario hello.yaml
    qnetsim run --scenario hello.yaml --seed 7 --json`)
	}
	_ = fs.Parse(args)

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if _, _, err := setupObservability(cfg); err != nil {
		return err
	}

	sc, err := resolveScenario(*scenarioPath, cfg)
	if err != nil {
		return err
	}
	if flagWasSet(fs, "seed") {
		sc.Seed = seed
	}

	report, err := sim.RunScenario(context.Background(), sc, sim.Config{})
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(os.Stdout, report)
	}

	if !report.Passed() {
		return errStepsFailed
	}
	return nil
}

// resolveScenario picks the scenario from the flag, then the config file,
// then the built-in demo. A seed from the config applies when the scenario
// has none.
func resolveScenario(path string, cfg *config.Config) (*sim.Scenario, error) {
	if path == "" {
		path = cfg.Simulation.Scenario
	}

	var sc *sim.Scenario
	if path == "" {
		sc = sim.DemoScenario()
	} else {
		var err error
		if sc, err = sim.LoadScenario(path); err != nil {
			return nil, err
		}
	}

	if sc.Seed == nil && cfg.Simulation.Seed != nil {
		seed := *cfg.Simulation.Seed
		sc.Seed = &seed
	}
	return sc, nil
}

func printReport(w io.Writer, r *sim.Report) {
	name := r.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Scenario: %s\n", name)
	fmt.Fprintf(w, "Run ID:   %s\n", r.RunID)
	if r.Seed != nil {
		fmt.Fprintf(w, "Seed:     %d\n", *r.Seed)
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, s := range r.Steps {
		mark := "✓"
		if !s.Passed {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %3d  %-16s", mark, s.Index, s.Op)
		if s.Output != "" {
			line += fmt.Sprintf(" -> %q", s.Output)
		}
		if s.Error != "" {
			line += fmt.Sprintf(" [%s]", s.Error)
		}
		fmt.Fprintln(w, line)
		if s.Reason != "" {
			fmt.Fprintf(w, "        %s\n", s.Reason)
		}
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "%s, %d steps, %d failed, %v\n", r.Network, len(r.Steps), r.Failures(), r.Duration)
}

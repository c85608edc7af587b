// Command qnetsim runs quantum network simulations.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pzverkov/quantum-netsim/internal/config"
	pkgversion "github.com/pzverkov/quantum-netsim/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch command, args := os.Args[1], os.Args[2:]; command {
	case "run":
		err = runCommand(args)
	case "demo":
		err = demoCommand(args)
	case "serve":
		err = serveCommand(args)
	case "bench":
		err = benchCommand(args)
	case "version":
		fmt.Printf("qnetsim version %s\n", getVersion())
		fmt.Println(pkgversion.Full())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`qnetsim - Quantum Network Simulator

USAGE:
    qnetsim <command> [options]

COMMANDS:
    run       Run a YAML scenario and print the report
    demo      Walk through register, entangle, key exchange and messaging
    serve     Run a scenario, then serve metrics and health endpoints
    bench     Measure key exchange and message throughput
    version   Print version information
    help      Show this help message

Run 'qnetsim <command> --help' for more information on a command.

EXAMPLES:
    # Run a scenario with a fixed seed
    qnetsim run --scenario hello.yaml --seed 42

    # Serve Prometheus metrics for the built-in scenario
    qnetsim serve --addr :9090

    # Benchmark 10000 rounds
    qnetsim bench --rounds 10000

CONFIGURATION:
    Settings are read from $QNETSIM_CONFIG, ./qnetsim.yaml or
    ~/.config/qnetsim/config.yaml. Flags override the file.`)
}

// commonFlags are accepted by every command that runs a simulation.
type commonFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	tracing    string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "Config file (default: search $QNETSIM_CONFIG, ./qnetsim.yaml)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error, silent")
	fs.StringVar(&c.logFormat, "log-format", "", "Log format: text or json")
	fs.StringVar(&c.tracing, "tracing", "", "Tracing mode: none, simple, otel (requires -tags otel)")
	return c
}

// loadConfig reads the config file and applies any flags that were set.
func (c *commonFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, _, err = config.LoadFromPath(c.configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	if c.tracing != "" {
		cfg.Tracing.Backend = c.tracing
	}
	return cfg, cfg.Validate()
}

// flagWasSet reports whether name was given on the command line.
func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

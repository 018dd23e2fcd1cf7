// sibratest is the acceptance suite for the sibra bandwidth
// reservation service. It regenerates a known topology, mutates the
// per-AS reservation and traffic-matrix configuration, measures the
// achievable bandwidth with the sibra_bandwidth tools, and checks the
// observed speed and drop rate against per-scenario tolerance bands.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/juagargi/sibratest/internal/libaccept"
	"github.com/juagargi/sibratest/internal/libbwtest"
	"github.com/juagargi/sibratest/internal/libscion"
	"github.com/juagargi/sibratest/internal/libsibra"
)

var (
	scionRoot    = flag.String("scion-root", os.Getenv("SC"), "Root of the SCION tree under test (defaults to $SC)")
	topologyFile = flag.String("topology", "topology/Simple.topo", "Topology description to generate, relative to the SCION root")
	suiteFile    = flag.String("suite", "", "YAML suite definition; runs the built-in cases when empty")
	serverPort   = flag.Int("server-port", 4444, "Loopback port the measurement server binds")
	loglevelFlag = flag.Int("loglevel", 3, "Log level to use for displaying system events")
)

func main() {
	flag.Parse()
	log15.Root().SetHandler(log15.LvlFilterHandler(log15.Lvl(*loglevelFlag), log15.StreamHandler(os.Stderr, log15.TerminalFormat())))

	if *scionRoot == "" {
		log15.Crit("no SCION root: set $SC or pass -scion-root")
		os.Exit(2)
	}

	cases, err := loadCases(*suiteFile)
	if err != nil {
		log15.Crit("failed to load suite", "error", err)
		os.Exit(2)
	}

	// Cases run strictly sequentially: they share the generated config
	// files and the measurement server's port.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := libscion.NewEnv(*scionRoot)
	harness := libbwtest.NewHarness(*scionRoot)
	harness.Port = *serverPort
	orch := libaccept.NewOrchestrator(*scionRoot, env, harnessAdapter{harness})
	runner := libaccept.NewRunner(env, orch, *topologyFile)

	result, err := runner.Run(ctx, cases)
	if err != nil {
		log15.Crit("suite aborted", "error", err)
		os.Exit(1)
	}
	if !result.Pass() {
		os.Exit(1)
	}
}

func loadCases(path string) ([]libaccept.Case, error) {
	if path == "" {
		return builtinCases()
	}
	return libaccept.LoadSuite(path)
}

// harnessAdapter lifts the concrete harness into the orchestrator's
// interface: Go does not treat a *libbwtest.Server return as a
// ServerHandle return.
type harnessAdapter struct {
	*libbwtest.Harness
}

func (a harnessAdapter) StartServer(ctx context.Context, ia libsibra.IA) (libaccept.ServerHandle, error) {
	return a.Harness.StartServer(ctx, ia)
}

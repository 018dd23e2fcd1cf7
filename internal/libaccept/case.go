// Package libaccept orchestrates acceptance scenarios against a running
// SCION stack: it mutates sibra configuration, runs a measurement, and
// checks the result against per-scenario tolerance bands.
package libaccept

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/juagargi/sibratest/internal/libbwtest"
	"github.com/juagargi/sibratest/internal/libsibra"
)

// EnvController is the slice of the environment controller the
// orchestrator needs. Implemented by libscion.Env, faked in tests.
type EnvController interface {
	CleanGenCache() error
	RegenTopology(ctx context.Context, topoFile string) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	WaitPath(ctx context.Context, src, dst libsibra.IA) error
}

// ServerHandle is a running measurement server. Stop releases it and
// must run on every exit path.
type ServerHandle interface {
	Stop() error
}

// Harness runs the measurement processes. Implemented by
// libbwtest.Harness, faked in tests.
type Harness interface {
	StartServer(ctx context.Context, ia libsibra.IA) (ServerHandle, error)
	RunClient(ctx context.Context, p libbwtest.ClientParams) (libbwtest.Result, error)
}

// Case is one acceptance scenario: which ASes to reconfigure, how, what
// to measure, and what to accept.
type Case interface {
	Name() string
	// ASes lists the entities whose configuration the case mutates.
	ASes() []libsibra.IA
	// Configure edits the loaded documents in place, before they are
	// written forward.
	Configure(cfg *libsibra.ConfigSet) error
	// Params describes the measurement client run.
	Params() libbwtest.ClientParams
	// Assert checks the measured result. A returned error is a case
	// failure, not a harness failure.
	Assert(res libbwtest.Result) error
}

// State tracks a case through its lifecycle. Transitions are strictly
// sequential; teardown guarantees Restored is reached even when the
// measurement or assertion fails.
type State int

const (
	Constructed State = iota
	Configured
	Running
	Measured
	Restored
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Measured:
		return "measured"
	case Restored:
		return "restored"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// CaseResult is the outcome of one case: pass/fail plus diagnostics.
type CaseResult struct {
	Name    string
	Pass    bool
	Details string
	Result  libbwtest.Result
}

// Orchestrator runs a single case through its state machine. Cases must
// run strictly sequentially: they share the on-disk configuration and
// the server's loopback port.
type Orchestrator struct {
	Root    string
	Env     EnvController
	Harness Harness

	log log15.Logger
}

// NewOrchestrator wires an orchestrator over the SCION tree at root.
func NewOrchestrator(root string, env EnvController, harness Harness) *Orchestrator {
	return &Orchestrator{
		Root:    root,
		Env:     env,
		Harness: harness,
		log:     log15.New("component", "orchestrator"),
	}
}

// RunCase drives one case from Constructed to Restored. The returned
// error is harness-fatal (broken environment, unrestorable config, an
// unparseable measurement); an assertion failure is reported in the
// CaseResult instead and leaves the error nil.
func (o *Orchestrator) RunCase(ctx context.Context, c Case) (res CaseResult, err error) {
	res.Name = c.Name()
	logger := o.log.New("case", c.Name())

	state := Constructed
	setState := func(next State) {
		logger.Debug("state transition", "from", state, "to", next)
		state = next
	}

	cfg, err := libsibra.NewConfigSet(o.Root, c.ASes())
	if err != nil {
		return res, err
	}
	// Restore on every exit path from here on, including a forward
	// write that fails halfway through its file set. Backward is
	// idempotent, so restoring untouched files is harmless. A restore
	// failure overrides any other error, because it leaves shared
	// state corrupt.
	defer func() {
		if berr := cfg.Backward(); berr != nil {
			err = errors.Wrap(berr, "restoring configuration")
		}
		if serr := o.Env.Stop(ctx); serr != nil && err == nil {
			err = serr
		}
		if err == nil {
			setState(Restored)
		}
	}()

	if err := c.Configure(cfg); err != nil {
		return res, errors.Wrap(err, "configuring case")
	}
	if err := cfg.Forward(); err != nil {
		return res, err
	}

	if err := o.Env.Start(ctx); err != nil {
		return res, err
	}
	setState(Configured)

	p := c.Params()
	if err := o.Env.WaitPath(ctx, p.Client, p.Server); err != nil {
		return res, err
	}

	srv, err := o.Harness.StartServer(ctx, p.Server)
	if err != nil {
		return res, err
	}
	setState(Running)
	defer func() {
		if serr := srv.Stop(); serr != nil && err == nil {
			err = serr
		}
	}()

	measured, err := o.Harness.RunClient(ctx, p)
	if err != nil {
		return res, err
	}
	setState(Measured)
	res.Result = measured
	logger.Info("measurement finished", "speed", measured.Speed, "drops", measured.Drops)

	if aerr := c.Assert(measured); aerr != nil {
		res.Pass = false
		res.Details = aerr.Error()
	} else {
		res.Pass = true
	}
	return res, nil
}

package libaccept

import (
	"context"

	"gopkg.in/inconshreveable/log15.v2"
)

// SuiteResult aggregates the outcome of a whole run.
type SuiteResult struct {
	Cases  []CaseResult
	Failed int
}

// Pass reports whether every case passed.
func (r SuiteResult) Pass() bool { return r.Failed == 0 }

// Runner prepares the environment once and then executes cases in
// order. Cases never run concurrently: they share the generated
// configuration and the measurement server's port.
type Runner struct {
	Env      EnvController
	Orch     *Orchestrator
	Topology string

	log log15.Logger
}

// NewRunner wires a runner over the given environment and orchestrator.
func NewRunner(env EnvController, orch *Orchestrator, topology string) *Runner {
	return &Runner{
		Env:      env,
		Orch:     orch,
		Topology: topology,
		log:      log15.New("component", "runner"),
	}
}

// Run regenerates a vanilla topology and executes every case,
// aggregating pass/fail. A harness-fatal error aborts the run
// immediately; assertion failures are recorded and the run continues.
func (r *Runner) Run(ctx context.Context, cases []Case) (SuiteResult, error) {
	var result SuiteResult

	// Start from a known-clean stack and a fresh topology.
	if err := r.Env.Stop(ctx); err != nil {
		return result, err
	}
	if err := r.Env.CleanGenCache(); err != nil {
		return result, err
	}
	if err := r.Env.RegenTopology(ctx, r.Topology); err != nil {
		return result, err
	}

	for _, c := range cases {
		r.log.Info("running case", "name", c.Name())
		res, err := r.Orch.RunCase(ctx, c)
		if err != nil {
			return result, err
		}
		result.Cases = append(result.Cases, res)
		if res.Pass {
			r.log.Info("case passed", "name", res.Name,
				"speed", res.Result.Speed, "drops", res.Result.Drops)
		} else {
			result.Failed++
			r.log.Error("case failed", "name", res.Name, "details", res.Details,
				"speed", res.Result.Speed, "drops", res.Result.Drops)
		}
	}

	r.log.Info("suite finished",
		"cases", len(result.Cases),
		"passed", len(result.Cases)-result.Failed,
		"failed", result.Failed)
	return result, nil
}

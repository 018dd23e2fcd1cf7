package libaccept_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/juagargi/sibratest/internal/fakes"
	"github.com/juagargi/sibratest/internal/libaccept"
	"github.com/juagargi/sibratest/internal/libbwtest"
)

func TestRunnerPreparesEnvironment(t *testing.T) {
	root := writeGenTree(t)

	var prep []string
	env := fakes.NewEnvController(&fakes.EnvHooks{
		Stop:          func() error { prep = append(prep, "stop"); return nil },
		CleanGenCache: func() error { prep = append(prep, "clean"); return nil },
		RegenTopology: func(topo string) error {
			if topo != "topology/Simple.topo" {
				t.Errorf("regenerated wrong topology: %s", topo)
			}
			prep = append(prep, "regen")
			return nil
		},
	})
	harness := fakes.NewHarness(&fakes.HarnessHooks{
		RunClient: func(p libbwtest.ClientParams) (libbwtest.Result, error) {
			return libbwtest.Result{Speed: 1440000, Drops: 0.95}, nil
		},
	})

	runner := libaccept.NewRunner(env, libaccept.NewOrchestrator(root, env, harness), "topology/Simple.topo")
	result, err := runner.Run(context.Background(), []libaccept.Case{testScenario()})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Pass() || len(result.Cases) != 1 {
		t.Fatalf("wrong suite result: %+v", result)
	}

	// The first three events are the one-time preparation, in order.
	if len(prep) < 3 || prep[0] != "stop" || prep[1] != "clean" || prep[2] != "regen" {
		t.Fatalf("wrong preparation sequence: %v", prep)
	}
}

func TestRunnerContinuesAfterCaseFailure(t *testing.T) {
	root := writeGenTree(t)

	runs := 0
	harness := fakes.NewHarness(&fakes.HarnessHooks{
		RunClient: func(p libbwtest.ClientParams) (libbwtest.Result, error) {
			runs++
			if runs == 1 {
				// Outside the speed band: a case failure, not fatal.
				return libbwtest.Result{Speed: 100, Drops: 0.95}, nil
			}
			return libbwtest.Result{Speed: 1440000, Drops: 0.95}, nil
		},
	})
	env := fakes.NewEnvController(nil)

	first := testScenario()
	second := testScenario()
	second.CaseName = "case2"

	runner := libaccept.NewRunner(env, libaccept.NewOrchestrator(root, env, harness), "topology/Simple.topo")
	result, err := runner.Run(context.Background(), []libaccept.Case{first, second})
	if err != nil {
		t.Fatal(err)
	}
	if result.Pass() {
		t.Fatal("suite should have recorded a failure")
	}
	if result.Failed != 1 || len(result.Cases) != 2 {
		t.Fatalf("wrong aggregation: failed=%d cases=%d", result.Failed, len(result.Cases))
	}
	if result.Cases[0].Pass || !result.Cases[1].Pass {
		t.Fatalf("wrong per-case outcomes: %+v", result.Cases)
	}
}

func TestRunnerAbortsOnFatalError(t *testing.T) {
	root := writeGenTree(t)

	harness := fakes.NewHarness(&fakes.HarnessHooks{
		RunClient: func(p libbwtest.ClientParams) (libbwtest.Result, error) {
			return libbwtest.Result{}, errors.New("sciond is gone")
		},
	})
	env := fakes.NewEnvController(nil)

	second := testScenario()
	second.CaseName = "case2"

	runner := libaccept.NewRunner(env, libaccept.NewOrchestrator(root, env, harness), "topology/Simple.topo")
	result, err := runner.Run(context.Background(), []libaccept.Case{testScenario(), second})
	if err == nil {
		t.Fatal("expected fatal error to abort the run")
	}
	if len(result.Cases) != 0 {
		t.Fatalf("no case result should have been recorded, got %d", len(result.Cases))
	}
}

func TestRunnerFatalOnBrokenEnvironment(t *testing.T) {
	env := fakes.NewEnvController(&fakes.EnvHooks{
		RegenTopology: func(string) error { return errors.New("generator broke") },
	})
	runner := libaccept.NewRunner(env, libaccept.NewOrchestrator("/nonexistent", env, fakes.NewHarness(nil)), "topology/Simple.topo")
	_, err := runner.Run(context.Background(), []libaccept.Case{testScenario()})
	if err == nil {
		t.Fatal("expected fatal error from topology regeneration")
	}
}

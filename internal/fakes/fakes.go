// Package fakes contains hook-based fakes of the environment controller
// and the measurement harness, for testing the orchestration logic
// without a SCION tree.
package fakes

import (
	"context"

	"github.com/juagargi/sibratest/internal/libaccept"
	"github.com/juagargi/sibratest/internal/libbwtest"
	"github.com/juagargi/sibratest/internal/libsibra"
)

// EnvHooks can be used to override the behavior of the fake environment
// controller. Unset hooks succeed silently.
type EnvHooks struct {
	CleanGenCache func() error
	RegenTopology func(topoFile string) error
	Start         func() error
	Stop          func() error
	WaitPath      func(src, dst libsibra.IA) error
}

var _ = libaccept.EnvController(&fakeEnv{})

type fakeEnv struct {
	hooks EnvHooks
}

// NewEnvController creates a fake environment controller.
func NewEnvController(hooks *EnvHooks) libaccept.EnvController {
	e := &fakeEnv{}
	if hooks != nil {
		e.hooks = *hooks
	}
	return e
}

func (e *fakeEnv) CleanGenCache() error {
	if e.hooks.CleanGenCache != nil {
		return e.hooks.CleanGenCache()
	}
	return nil
}

func (e *fakeEnv) RegenTopology(ctx context.Context, topoFile string) error {
	if e.hooks.RegenTopology != nil {
		return e.hooks.RegenTopology(topoFile)
	}
	return nil
}

func (e *fakeEnv) Start(ctx context.Context) error {
	if e.hooks.Start != nil {
		return e.hooks.Start()
	}
	return nil
}

func (e *fakeEnv) Stop(ctx context.Context) error {
	if e.hooks.Stop != nil {
		return e.hooks.Stop()
	}
	return nil
}

func (e *fakeEnv) WaitPath(ctx context.Context, src, dst libsibra.IA) error {
	if e.hooks.WaitPath != nil {
		return e.hooks.WaitPath(src, dst)
	}
	return nil
}

// HarnessHooks can be used to override the behavior of the fake
// measurement harness.
type HarnessHooks struct {
	StartServer func(ia libsibra.IA) (libaccept.ServerHandle, error)
	StopServer  func() error
	RunClient   func(p libbwtest.ClientParams) (libbwtest.Result, error)
}

var _ = libaccept.Harness(&fakeHarness{})

type fakeHarness struct {
	hooks HarnessHooks
}

// NewHarness creates a fake measurement harness. Without hooks, servers
// start and stop successfully and every client run reports a clean
// 1 Mbps measurement.
func NewHarness(hooks *HarnessHooks) libaccept.Harness {
	h := &fakeHarness{}
	if hooks != nil {
		h.hooks = *hooks
	}
	return h
}

func (h *fakeHarness) StartServer(ctx context.Context, ia libsibra.IA) (libaccept.ServerHandle, error) {
	if h.hooks.StartServer != nil {
		return h.hooks.StartServer(ia)
	}
	return serverHandle{stop: h.hooks.StopServer}, nil
}

func (h *fakeHarness) RunClient(ctx context.Context, p libbwtest.ClientParams) (libbwtest.Result, error) {
	if h.hooks.RunClient != nil {
		return h.hooks.RunClient(p)
	}
	return libbwtest.Result{Speed: 1e6, Drops: 0}, nil
}

type serverHandle struct {
	stop func() error
}

func (s serverHandle) Stop() error {
	if s.stop != nil {
		return s.stop()
	}
	return nil
}

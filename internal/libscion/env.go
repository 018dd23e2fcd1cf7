package libscion

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/juagargi/sibratest/internal/libsibra"
)

const (
	// genCacheDir holds state cached by the topology generator; stale
	// entries from a previous topology poison a fresh one.
	genCacheDir = "gen-cache"

	pathPollInterval = 100 * time.Millisecond
)

// Env controls the lifecycle of the SCION stack rooted at Root. All
// operations are blocking external-process invocations; any unexpected
// non-zero exit is fatal to the whole run.
type Env struct {
	// Root is the SCION source tree, normally taken from $SC.
	Root string
	// PathTimeout bounds how long WaitPath polls for a usable path.
	PathTimeout time.Duration

	log log15.Logger
}

// NewEnv returns a controller for the SCION tree at root.
func NewEnv(root string) *Env {
	return &Env{
		Root:        root,
		PathTimeout: 30 * time.Second,
		log:         log15.New("component", "env"),
	}
}

// CleanGenCache removes every file in the generation cache. An already
// empty cache is fine.
func (e *Env) CleanGenCache() error {
	dir := filepath.Join(e.Root, genCacheDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "reading gen-cache")
	}
	e.log.Debug("cleaning gen-cache", "dir", dir, "entries", len(entries))
	for _, entry := range entries {
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return errors.Wrap(err, "cleaning gen-cache")
		}
	}
	return nil
}

// RegenTopology regenerates the per-entity configuration from the given
// topology description and reloads the process supervisor. The sibra
// config paths under gen/ are only valid after this returns.
func (e *Env) RegenTopology(ctx context.Context, topoFile string) error {
	e.log.Info("regenerating topology", "topology", topoFile)
	if _, err := Run(ctx, e.Root, "./scion.sh", "topology", "-c", topoFile, "-sibra"); err != nil {
		return err
	}
	_, err := Run(ctx, e.Root, "./supervisor/supervisor.sh", "reload")
	return err
}

// Start brings up the full stack without rebuilding binaries. The stack
// components come up asynchronously; callers must not measure before
// WaitPath has seen a usable path.
func (e *Env) Start(ctx context.Context) error {
	e.log.Info("starting scion")
	_, err := Run(ctx, e.Root, "./scion.sh", "start", "nobuild")
	return err
}

// Stop brings the stack down. Stopping an already stopped stack is
// fine; a genuine stop failure is still fatal, since it would leak
// processes into the next case.
func (e *Env) Stop(ctx context.Context) error {
	e.log.Info("stopping scion")
	_, err := Run(ctx, e.Root, "./scion.sh", "stop")
	return err
}

// WaitPath polls showpaths until a path from src to dst resolves, or
// the configured timeout expires. This replaces a fixed sleep: path
// registration time varies too much for a constant to be reliable.
func (e *Env) WaitPath(ctx context.Context, src, dst libsibra.IA) error {
	e.log.Debug("waiting for path", "src", src, "dst", dst)
	deadline := time.Now().Add(e.PathTimeout)
	var lastErr error
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, lastErr = Run(ctx, e.Root, "./bin/showpaths",
			"-sciondFromIA", "-srcIA", string(src), "-dstIA", string(dst))
		if lastErr == nil {
			return nil
		}
		time.Sleep(pathPollInterval)
	}
	return errors.Wrapf(lastErr, "no path from %s to %s after %v", src, dst, e.PathTimeout)
}

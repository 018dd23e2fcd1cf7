// Package libscion drives the SCION infrastructure under test through
// its external control tooling: scion.sh, the supervisor and the
// generated configuration tree.
package libscion

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/inconshreveable/log15.v2"
)

// defaultCmdTimeout bounds every spawned control command so that a hung
// tool cannot turn into a stuck suite.
const defaultCmdTimeout = 5 * time.Minute

// Run executes an external command with dir as working directory and
// returns its combined output. A non-zero exit yields an error carrying
// the full output; there is no retry. If the caller's context has no
// deadline, a default wall-clock timeout is applied.
func Run(ctx context.Context, dir string, name string, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCmdTimeout)
		defer cancel()
	}
	cmdline := name + " " + strings.Join(args, " ")
	log15.Debug("running command", "cmd", cmdline, "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	start := time.Now()
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return string(out), errors.Errorf("command %q timed out after %v", cmdline, time.Since(start))
	}
	if err != nil {
		return string(out), errors.Wrapf(err, "command %q failed, output:\n%s", cmdline, out)
	}
	return string(out), nil
}

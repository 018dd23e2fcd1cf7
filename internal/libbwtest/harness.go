// Package libbwtest spawns the sibra_bandwidth measurement binaries and
// turns their textual output into results.
package libbwtest

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/juagargi/sibratest/internal/libsibra"
)

const (
	// serverBin is relative to the SCION root.
	serverBin = "./bin/sibra_bandwidth"

	defaultServerPort   = 4444
	defaultServerSettle = 200 * time.Millisecond
	defaultClientGrace  = 30 * time.Second
)

// Harness runs the measurement server and client. The server binds a
// fixed loopback port, so at most one measurement may be in flight at a
// time; the suite guarantees this by running cases sequentially.
type Harness struct {
	// Root is the SCION tree the binaries live under.
	Root string
	// Bin overrides the measurement binary, mainly for tests.
	Bin string
	// Port is the loopback port the server binds.
	Port int
	// ServerSettle is how long to wait after spawning the server before
	// considering it ready. The binary offers no readiness signal, so a
	// short fixed delay is the only synchronization available here.
	ServerSettle time.Duration
	// ClientGrace is added to the measurement duration to bound the
	// client's total wall-clock time.
	ClientGrace time.Duration
	// PacketSize is the payload size handed to the server, and to the
	// client when the case does not set its own.
	PacketSize int

	log log15.Logger
}

// NewHarness returns a harness with the standard binary location and
// timing defaults.
func NewHarness(root string) *Harness {
	return &Harness{
		Root:         root,
		Bin:          serverBin,
		Port:         defaultServerPort,
		ServerSettle: defaultServerSettle,
		ClientGrace:  defaultClientGrace,
		PacketSize:   2000,
		log:          log15.New("component", "bwtest"),
	}
}

// Server is a handle on a running measurement server process. Stop must
// be called on every exit path of the scope that acquired it.
type Server struct {
	ia  libsibra.IA
	cmd *exec.Cmd
	eg  *errgroup.Group
	log log15.Logger
}

// StartServer spawns the measurement server for the given entity, bound
// to the loopback endpoint, and returns once the settle delay passed.
func (h *Harness) StartServer(ctx context.Context, ia libsibra.IA) (*Server, error) {
	local := fmt.Sprintf("%s,[127.0.0.1]:%d", ia, h.Port)
	cmd := exec.Command(h.Bin,
		"-mode", "server",
		"-sciondFromIA",
		"-local", local,
		"-log.console", "debug",
		"-packetSize", strconv.Itoa(h.PacketSize))
	cmd.Dir = h.Root

	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "creating server output pipe")
	}
	cmd.Stderr = cmd.Stdout

	logger := h.logger().New("server", ia)
	logger.Debug("starting measurement server", "local", local)
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "starting measurement server")
	}

	// Pump the server's combined output into the debug log until the
	// process exits and the pipe drains.
	var eg errgroup.Group
	eg.Go(func() error {
		scanner := bufio.NewScanner(out)
		for scanner.Scan() {
			logger.Debug("server output", "line", scanner.Text())
		}
		return scanner.Err()
	})

	select {
	case <-time.After(h.ServerSettle):
	case <-ctx.Done():
		cmd.Process.Kill()
		eg.Wait()
		cmd.Wait()
		return nil, ctx.Err()
	}
	return &Server{ia: ia, cmd: cmd, eg: &eg, log: logger}, nil
}

// Stop terminates the server if it is still alive and waits for it to
// exit, so no process outlives the scope that started it. Stopping an
// already exited server is fine.
func (s *Server) Stop() error {
	s.log.Debug("stopping measurement server")
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return errors.Wrap(err, "killing measurement server")
	}
	if err := s.eg.Wait(); err != nil {
		s.log.Debug("server output pump failed", "err", err)
	}
	// The exit status is expected to reflect the kill; only the wait
	// itself may fail.
	if err := s.cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return errors.Wrap(err, "waiting for measurement server")
		}
	}
	return nil
}

// ClientParams describes one measurement client run.
type ClientParams struct {
	Server   libsibra.IA
	Client   libsibra.IA
	Duration time.Duration
	BwCls    libsibra.BwCls
	// Bandwidth is the bit-rate ceiling handed to the client.
	Bandwidth int64
	// PacketSize overrides the harness payload size when non-zero.
	PacketSize int
	// ExpectFailure inverts the exit-code contract: a non-zero exit is
	// the passing outcome of a negative test.
	ExpectFailure bool
}

// RunClient runs the measurement client to completion and parses its
// output.
//
// A non-zero exit is fatal unless the caller expected failure, in which
// case it yields the sentinel result. A zero exit when failure was
// expected is an expectation mismatch and fails hard rather than
// passing silently.
func (h *Harness) RunClient(ctx context.Context, p ClientParams) (Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Duration+h.ClientGrace)
		defer cancel()
	}
	pktSize := p.PacketSize
	if pktSize == 0 {
		pktSize = h.PacketSize
	}
	remote := fmt.Sprintf("%s,[127.0.0.1]:%d", p.Server, h.Port)
	local := fmt.Sprintf("%s,[127.0.0.1]:0", p.Client)
	cmd := exec.CommandContext(ctx, h.Bin,
		"-sciondFromIA",
		"-remote", remote,
		"-local", local,
		"-packetSize", strconv.Itoa(pktSize),
		"-log.console", "debug",
		"-sibra=T",
		"-duration", strconv.Itoa(int(p.Duration/time.Second)),
		"-bw", strconv.Itoa(int(p.BwCls)),
		"-bandwidth", strconv.FormatInt(p.Bandwidth, 10))
	cmd.Dir = h.Root

	logger := h.logger().New("client", p.Client, "server", p.Server)
	logger.Debug("running measurement client", "duration", p.Duration, "bwCls", p.BwCls, "bandwidth", p.Bandwidth)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, errors.Errorf("measurement client timed out, output:\n%s", out)
	}
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok && p.ExpectFailure {
			logger.Debug("client failed as expected")
			return Result{Speed: 0, Drops: 1, ExpectedFailure: true}, nil
		}
		return Result{}, errors.Wrapf(err, "measurement client failed, output:\n%s", out)
	}
	if p.ExpectFailure {
		return Result{}, errors.Errorf(
			"measurement client succeeded although failure was expected, output:\n%s", out)
	}
	return parseResult(string(out))
}

func (h *Harness) logger() log15.Logger {
	if h.log == nil {
		h.log = log15.New("component", "bwtest")
	}
	return h.log
}

package libbwtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHarness returns a harness whose measurement binary is a shell
// script with the given body.
func stubHarness(t *testing.T, script string) *Harness {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0755))
	path := filepath.Join(root, "bin", "sibra_bandwidth")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	h := NewHarness(root)
	h.ServerSettle = 10 * time.Millisecond
	return h
}

func TestRunClientParsesOutput(t *testing.T) {
	h := stubHarness(t, "echo 'Speed: 1.295 Mbps drop rate: 0.000000'\n")
	res, err := h.RunClient(context.Background(), ClientParams{
		Server:    "1-ff00:0:110",
		Client:    "1-ff00:0:111",
		Duration:  time.Second,
		BwCls:     14,
		Bandwidth: 99000000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1295000.0, res.Speed)
	assert.Equal(t, 0.0, res.Drops)
	assert.False(t, res.ExpectedFailure)
}

func TestRunClientPacketSize(t *testing.T) {
	// The stub records its arguments so the command line can be
	// inspected.
	h := stubHarness(t, `echo "$@" > "$(dirname "$0")/../args.log"`+"\necho 'Speed: 1 Mbps drop rate: 0'\n")
	argsLog := filepath.Join(h.Root, "args.log")
	p := ClientParams{
		Server:   "1-ff00:0:110",
		Client:   "1-ff00:0:111",
		Duration: time.Second,
	}

	_, err := h.RunClient(context.Background(), p)
	require.NoError(t, err)
	args, err := os.ReadFile(argsLog)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-packetSize 2000")

	p.PacketSize = 1000
	_, err = h.RunClient(context.Background(), p)
	require.NoError(t, err)
	args, err = os.ReadFile(argsLog)
	require.NoError(t, err)
	assert.Contains(t, string(args), "-packetSize 1000")
}

func TestRunClientExpectedFailure(t *testing.T) {
	h := stubHarness(t, "exit 1\n")
	res, err := h.RunClient(context.Background(), ClientParams{
		Server:        "1-ff00:0:110",
		Client:        "1-ff00:0:111",
		Duration:      time.Second,
		ExpectFailure: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Speed)
	assert.Equal(t, 1.0, res.Drops)
	assert.True(t, res.ExpectedFailure)
}

func TestRunClientUnexpectedFailure(t *testing.T) {
	h := stubHarness(t, "echo 'no sciond here'; exit 1\n")
	_, err := h.RunClient(context.Background(), ClientParams{
		Server:   "1-ff00:0:110",
		Client:   "1-ff00:0:111",
		Duration: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sciond here")
}

func TestRunClientInconsistentExpectation(t *testing.T) {
	// Failure expected, but the client exits zero: hard failure, not a
	// silent pass.
	h := stubHarness(t, "echo 'Speed: 1 Mbps drop rate: 0'\n")
	_, err := h.RunClient(context.Background(), ClientParams{
		Server:        "1-ff00:0:110",
		Client:        "1-ff00:0:111",
		Duration:      time.Second,
		ExpectFailure: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failure was expected")
}

func TestRunClientUnparseableOutput(t *testing.T) {
	h := stubHarness(t, "echo 'measurement ran but printed garbage'\n")
	_, err := h.RunClient(context.Background(), ClientParams{
		Server:   "1-ff00:0:110",
		Client:   "1-ff00:0:111",
		Duration: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no result line")
}

func TestServerStartStop(t *testing.T) {
	h := stubHarness(t, "sleep 60\n")
	srv, err := h.StartServer(context.Background(), "1-ff00:0:110")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Stop() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not terminate the server")
	}
}

func TestServerStopAfterExit(t *testing.T) {
	// The server died on its own; Stop must still succeed and reap it.
	h := stubHarness(t, "exit 0\n")
	srv, err := h.StartServer(context.Background(), "1-ff00:0:110")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, srv.Stop())
}

package commands

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"duskwire/internal/config"
	"duskwire/internal/engine"
)

// runCommand builds cmd fresh (cobra commands carry run-scoped state in this
// package's globals) and executes it with args, capturing stdout.
func runCommand(t *testing.T, build func() *cobra.Command, args ...string) string {
	t.Helper()
	opts = config.DefaultOptions()
	cryptoEng = engine.New(rand.Reader)

	cmd := build()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestIdentityCommandPrintsFingerprint(t *testing.T) {
	out := runCommand(t, identityCmd, "--registration-id", "7")
	require.Contains(t, out, "registration_id=7")
	require.Contains(t, out, "fingerprint=")
}

func TestHandshakeCommandRunsToCompletion(t *testing.T) {
	out := runCommand(t, handshakeCmd)
	require.Contains(t, out, `alice received: "hello alice, this is bob"`)
	require.Contains(t, out, "bob stats:")
	require.Contains(t, out, "alice stats:")
}

func TestSimulateCommandRunsAllScenarios(t *testing.T) {
	out := runCommand(t, simulateCmd)
	require.Contains(t, out, "scenario 1: basic ping-pong")
	require.Contains(t, out, "scenario 2: out-of-order same epoch")
	require.Contains(t, out, "scenario 3: DH rotation")
	require.Contains(t, out, "final dh counters: alice=2 bob=2")
	require.Contains(t, out, "alice one-time pre-keys remaining: 0")
}

package docker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devdock/internal/model"
)

// recorder captures the commands a ComposeRunner would run.
type recorder struct {
	calls  [][]string
	output string
	err    error
}

func (r *recorder) run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return []byte(r.output), r.err
}

func (r *recorder) attach(_ context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func newTestRunner(binary string, rec *recorder) *ComposeRunner {
	r := NewComposeRunner(binary, nil)
	r.run = rec.run
	r.attach = rec.attach
	return r
}

type fakeExitError struct{ code int }

func (e *fakeExitError) Error() string { return "exit status" }
func (e *fakeExitError) ExitCode() int { return e.code }

func setTerminal(t *testing.T, tty bool) {
	t.Helper()
	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return tty }
	t.Cleanup(func() { stdinIsTerminal = prev })
}

func TestComposeRunner_DefaultBinary(t *testing.T) {
	assert.Equal(t, "docker", NewComposeRunner("", nil).Binary())
	assert.Equal(t, "podman", NewComposeRunner("podman", nil).Binary())
}

func TestComposeRunner_Up(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner("", rec)

	require.NoError(t, r.Up(context.Background(), "/w/docker-compose.dev.yml", "db", "web"))
	require.NoError(t, r.Up(context.Background(), "/w/docker-compose.yml"))

	assert.Equal(t, [][]string{
		{"docker", "compose", "-f", "/w/docker-compose.dev.yml", "up", "-d", "db", "web"},
		{"docker", "compose", "-f", "/w/docker-compose.yml", "up", "-d"},
	}, rec.calls)
}

func TestComposeRunner_Down(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner("nerdctl", rec)

	require.NoError(t, r.Down(context.Background(), "compose.yaml"))
	assert.Equal(t, [][]string{{"nerdctl", "compose", "-f", "compose.yaml", "down"}}, rec.calls)
}

func TestComposeRunner_FailureCarriesOutput(t *testing.T) {
	rec := &recorder{output: "no such service: ghost\n", err: &fakeExitError{code: 1}}
	r := newTestRunner("", rec)

	err := r.Up(context.Background(), "compose.yaml", "ghost")

	var ef *model.EngineFailure
	require.True(t, errors.As(err, &ef))
	assert.Equal(t, "no such service: ghost", ef.Output)
	assert.Contains(t, err.Error(), "start compose services")
}

func TestComposeRunner_Exec(t *testing.T) {
	rec := &recorder{output: "ok\n"}
	r := newTestRunner("", rec)

	res, err := r.Exec(context.Background(), "compose.yaml", "web", []string{"ls", "-la"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "ok\n", res.Output)
	assert.Equal(t, []string{"docker", "compose", "-f", "compose.yaml", "exec", "-T", "web", "ls", "-la"}, rec.calls[0])
}

func TestComposeRunner_ExecNonZeroExit(t *testing.T) {
	rec := &recorder{output: "boom\n", err: &fakeExitError{code: 2}}
	r := newTestRunner("", rec)

	res, err := r.Exec(context.Background(), "compose.yaml", "web", []string{"false"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "boom\n", res.Output)
}

func TestComposeRunner_ExecStartFailure(t *testing.T) {
	rec := &recorder{err: errors.New("executable file not found in $PATH")}
	r := newTestRunner("", rec)

	_, err := r.Exec(context.Background(), "compose.yaml", "web", []string{"ls"})

	var ef *model.EngineFailure
	assert.True(t, errors.As(err, &ef))
}

func TestComposeRunner_Shell(t *testing.T) {
	setTerminal(t, false)
	rec := &recorder{}
	r := newTestRunner("", rec)

	require.NoError(t, r.Shell(context.Background(), "compose.yaml", "web", ""))
	assert.Equal(t, []string{"docker", "compose", "-f", "compose.yaml", "exec", "-T", "web", "/bin/bash"}, rec.calls[0])

	setTerminal(t, true)
	require.NoError(t, r.Shell(context.Background(), "compose.yaml", "web", "/bin/sh"))
	assert.Equal(t, []string{"docker", "compose", "-f", "compose.yaml", "exec", "web", "/bin/sh"}, rec.calls[1])
}

func TestComposeRunner_ContainerShell(t *testing.T) {
	rec := &recorder{}
	r := newTestRunner("", rec)

	setTerminal(t, true)
	require.NoError(t, r.ContainerShell(context.Background(), "api", ""))
	setTerminal(t, false)
	require.NoError(t, r.ContainerShell(context.Background(), "api", "/bin/sh"))

	assert.Equal(t, [][]string{
		{"docker", "exec", "-it", "api", "/bin/bash"},
		{"docker", "exec", "-i", "api", "/bin/sh"},
	}, rec.calls)
}

func TestComposeRunner_ShellFailure(t *testing.T) {
	setTerminal(t, false)
	rec := &recorder{err: &fakeExitError{code: 126}}
	r := newTestRunner("", rec)

	err := r.ContainerShell(context.Background(), "api", "")

	var ef *model.EngineFailure
	assert.True(t, errors.As(err, &ef))
}

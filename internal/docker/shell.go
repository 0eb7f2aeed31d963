package docker

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/shinji-kodama/devdock/internal/model"
)

// DefaultShell is the program started by the shell command.
const DefaultShell = "/bin/bash"

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ContainerShell opens an interactive shell in a container through
// "<binary> exec -i[t] <id> <shell>" with the caller's stdio attached.
func (r *ComposeRunner) ContainerShell(ctx context.Context, id, shell string) error {
	if err := r.attach(ctx, r.binary, shellArgs(id, shell)...); err != nil {
		return model.NewEngineFailure("open shell in container "+id, "", err)
	}
	return nil
}

// shellArgs builds the "exec" arguments, asking for a TTY only when stdin
// is one.
func shellArgs(id, shell string) []string {
	if shell == "" {
		shell = DefaultShell
	}
	flags := "-i"
	if stdinIsTerminal() {
		flags = "-it"
	}
	return []string{"exec", flags, id, shell}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devdock/internal/docker"
	"github.com/shinji-kodama/devdock/internal/model"
)

// containerAction is a lifecycle operation on one container.
type containerAction struct {
	use, short, verb string
	run              func(ctx context.Context, s *session, id string) (*model.ContainerInfo, error)
}

func newContainerActionCommand(a containerAction) *cobra.Command {
	return &cobra.Command{
		Use:   a.use,
		Short: a.short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, requireEngine)
			if err != nil {
				return err
			}
			defer s.Close()

			info, err := a.run(ctx, s, args[0])
			if err != nil {
				return err
			}
			return printContainerAction(cmd.OutOrStdout(), a.verb, info)
		},
	}
}

func printContainerAction(w io.Writer, verb string, info *model.ContainerInfo) error {
	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{
			"action":        strings.ToLower(verb),
			"containerId":   info.ContainerID,
			"containerName": info.ContainerName,
		})
	}
	fmt.Fprintf(w, "%s container %s (%s)\n", verb, info.ContainerName, info.ShortID())
	return nil
}

// NewStartCommand creates the "start" cobra command.
func NewStartCommand() *cobra.Command {
	return newContainerActionCommand(containerAction{
		use:   "start <container>",
		short: "Start a container by ID or name",
		verb:  "Started",
		run: func(ctx context.Context, s *session, id string) (*model.ContainerInfo, error) {
			return s.mgr.StartContainer(ctx, id)
		},
	})
}

// NewStopCommand creates the "stop" cobra command.
func NewStopCommand() *cobra.Command {
	return newContainerActionCommand(containerAction{
		use:   "stop <container>",
		short: "Stop a container by ID or name",
		verb:  "Stopped",
		run: func(ctx context.Context, s *session, id string) (*model.ContainerInfo, error) {
			return s.mgr.StopContainer(ctx, id)
		},
	})
}

// NewRemoveCommand creates the "remove" cobra command.
func NewRemoveCommand() *cobra.Command {
	var force bool
	cmd := newContainerActionCommand(containerAction{
		use:   "remove <container>",
		short: "Remove a container by ID or name",
		verb:  "Removed",
		run: func(ctx context.Context, s *session, id string) (*model.ContainerInfo, error) {
			return s.mgr.RemoveContainer(ctx, id, force)
		},
	})
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove a running container")
	return cmd
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	var service string

	cmd := &cobra.Command{
		Use:   "run <container|env|compose-file> <command>",
		Short: "Run a command in a container or compose service",
		Long: `Run a command and print its output.

Without --service, the first argument is a container ID or name. With
--service, it is a compose environment name or a compose file path.
The command is split with shell quoting rules but not run by a shell.
devdock exits non-zero when the command does.

Examples:
  devdock run api "go test ./..."
  devdock run shop --service web "ls -la /app"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], service)
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "Compose service to run the command in")
	return cmd
}

func runRun(ctx context.Context, w io.Writer, target, command, service string) error {
	mode := requireEngine
	if service != "" {
		mode = noEngine
	}
	s, err := openSession(ctx, mode)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.mgr.RunCommand(ctx, target, command, service)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		if err := printJSON(w, map[string]interface{}{
			"exitCode": res.ExitCode,
			"output":   res.Output,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprint(w, res.Output)
	}

	if res.ExitCode != 0 {
		return model.NewCLIError(model.ExitGeneralError, fmt.Sprintf("command exited with status %d", res.ExitCode))
	}
	return nil
}

// NewShellCommand creates the "shell" cobra command.
func NewShellCommand() *cobra.Command {
	var service, shell string

	cmd := &cobra.Command{
		Use:   "shell <container|env|compose-file>",
		Short: "Open an interactive shell",
		Long: `Open an interactive shell in a container or, with --service, in a
compose service. The target is resolved as for "run".

Examples:
  devdock shell api
  devdock shell shop --service web --shell /bin/sh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mode := requireEngine
			if service != "" {
				mode = noEngine
			}
			s, err := openSession(ctx, mode)
			if err != nil {
				return err
			}
			defer s.Close()

			return s.mgr.Shell(ctx, args[0], service, shell)
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "Compose service to open the shell in")
	cmd.Flags().StringVar(&shell, "shell", docker.DefaultShell, "Shell to run")
	return cmd
}

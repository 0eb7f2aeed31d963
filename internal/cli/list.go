package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devdock/internal/devenv"
	"github.com/shinji-kodama/devdock/internal/model"
)

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded dev environments",
		Long: `List every recorded dev environment.

Container environments show the state of their container as reported by
Docker ("missing" when it no longer exists). When Docker is not reachable
the state is shown as "unknown".

Examples:
  devdock list
  devdock list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runList(ctx context.Context, w io.Writer) error {
	s, err := openSession(ctx, optionalEngine)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.mgr.List(ctx)
	if err != nil {
		return err
	}
	if s.client == nil {
		for i := range rows {
			if !rows[i].Env.IsCompose() {
				rows[i].State = devenv.StateUnknown
			}
		}
	}
	VerboseLog("Found %d environments", len(rows))

	return printListResult(w, rows)
}

func printListResult(w io.Writer, rows []devenv.EnvStatus) error {
	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"environments": rows})
	}
	printListResultText(w, rows)
	return nil
}

// printListResultText prints the environments as an aligned table:
//
//	NAME        TYPE        STATE       TARGET
//	api         container   running     golang:1.25
//	shop        compose     -           /work/shop/docker-compose.dev.yml
func printListResultText(w io.Writer, rows []devenv.EnvStatus) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No dev environments found.")
		return
	}

	fmt.Fprintf(w, "%-20s %-10s %-10s %s\n", "NAME", "TYPE", "STATE", "TARGET")
	for _, row := range rows {
		state := row.State
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(w, "%-20s %-10s %-10s %s\n", row.Env.Name, row.Env.Kind, state, describeTarget(&row.Env))
	}
}

// describeTarget returns what an environment runs: the image of a
// container environment, or the compose file with its default services.
func describeTarget(env *model.Environment) string {
	if !env.IsCompose() {
		return env.Image
	}
	if len(env.Services) == 0 {
		return env.ComposeFile
	}
	return fmt.Sprintf("%s [%s]", env.ComposeFile, strings.Join(env.Services, ","))
}

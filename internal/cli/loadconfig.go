package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devdock/internal/devenv"
	"github.com/shinji-kodama/devdock/internal/model"
)

// NewLoadConfigCommand creates the "load-config" cobra command.
func NewLoadConfigCommand() *cobra.Command {
	var register bool

	cmd := &cobra.Command{
		Use:   "load-config <file>",
		Short: "Load environment definitions from a file",
		Long: `Load and validate environment definitions from a YAML or JSON file.

The file holds either a single environment or a list under "environments".
JSON files (.json, .jsonc) may contain comments and trailing commas.
With --register, every environment is recorded so "workon" can use it.

Example file:
  environments:
    - name: api
      type: container
      image: golang:1.25
      volumes: ["~/src/api:/src"]
    - name: shop
      type: compose
      compose_file: ~/src/shop/docker-compose.yml
      services: [web]

Examples:
  devdock load-config envs.yaml
  devdock load-config envs.jsonc --register`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoadConfig(cmd.Context(), cmd.OutOrStdout(), args[0], register)
		},
	}

	cmd.Flags().BoolVar(&register, "register", false, "Record the loaded environments")
	return cmd
}

func runLoadConfig(ctx context.Context, w io.Writer, path string, register bool) error {
	envs, err := devenv.LoadExternal(path)
	if err != nil {
		return err
	}
	VerboseLog("Loaded %d environments from %s", len(envs), path)

	var registered []string
	if register {
		s, err := openSession(ctx, noEngine)
		if err != nil {
			return err
		}
		defer s.Close()

		registered, err = s.mgr.Register(envs)
		if err != nil {
			return model.WrapCLIError(model.ExitCodeFor(err),
				fmt.Sprintf("registered %d of %d environments", len(registered), len(envs)), err)
		}
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{
			"environments": envs,
			"registered":   nonNil(registered),
		})
	}

	for i := range envs {
		fmt.Fprintf(w, "%-20s %-10s %s\n", envs[i].Name, envs[i].Kind, describeTarget(&envs[i]))
	}
	if register {
		fmt.Fprintf(w, "Registered %d environment(s)\n", len(registered))
	}
	return nil
}

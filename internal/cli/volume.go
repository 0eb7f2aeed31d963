package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devdock/internal/compose"
)

// NewCreateVolumeCommand creates the "create-volume" cobra command.
func NewCreateVolumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-volume <name>",
		Short: "Create a named volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, requireEngine)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.mgr.CreateVolume(ctx, args[0]); err != nil {
				return err
			}
			return printVolumeAction(cmd.OutOrStdout(), "created", args[0])
		},
	}
}

// NewRemoveVolumeCommand creates the "remove-volume" cobra command.
func NewRemoveVolumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-volume <name>",
		Short: "Remove a named volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, requireEngine)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.mgr.RemoveVolume(ctx, args[0]); err != nil {
				return err
			}
			return printVolumeAction(cmd.OutOrStdout(), "removed", args[0])
		},
	}
}

func printVolumeAction(w io.Writer, action, name string) error {
	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"volume": name, "action": action})
	}
	fmt.Fprintf(w, "Volume %q %s\n", name, action)
	return nil
}

// updateVolumesFlags holds the flag values for the update-volumes command.
type updateVolumesFlags struct {
	composeFile string
	mappings    []string
	output      string
	dev         bool
}

// NewUpdateVolumesCommand creates the "update-volumes" cobra command.
func NewUpdateVolumesCommand() *cobra.Command {
	flags := &updateVolumesFlags{}

	cmd := &cobra.Command{
		Use:   "update-volumes",
		Short: "Rewrite the volumes of a compose file",
		Long: `Apply volume mappings to a compose file.

The file is rewritten in place unless --output or --dev is given. Either
every mapping applies or nothing is written.

Examples:
  devdock update-volumes -f docker-compose.yml --mapping web:data:/var/data2
  devdock update-volumes -f docker-compose.yml --mapping ./src:/home/me/src --dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateVolumes(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.composeFile, "compose-file", "f", "", "Compose file to rewrite")
	cmd.Flags().StringArrayVarP(&flags.mappings, "mapping", "m", nil, "Volume mapping, service:source:target or source:replacement (repeatable)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the result to this file")
	cmd.Flags().BoolVar(&flags.dev, "dev", false, "Write the result next to the file as <name>.dev.<ext>")
	_ = cmd.MarkFlagRequired("compose-file")
	_ = cmd.MarkFlagRequired("mapping")
	cmd.MarkFlagsMutuallyExclusive("output", "dev")

	return cmd
}

func runUpdateVolumes(ctx context.Context, w io.Writer, flags *updateVolumesFlags) error {
	s, err := openSession(ctx, noEngine)
	if err != nil {
		return err
	}
	defer s.Close()

	output := flags.output
	if flags.dev {
		output = compose.DevPath(flags.composeFile)
	}

	written, err := s.mgr.UpdateVolumes(flags.composeFile, flags.mappings, output)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"composeFile": flags.composeFile, "written": written})
	}
	fmt.Fprintf(w, "Updated volumes: %s\n", written)
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/devdock/internal/devenv"
	"github.com/shinji-kodama/devdock/internal/model"
	"github.com/shinji-kodama/devdock/internal/port"
)

// mkDevContainerFlags holds the flag values for the mkdevcontainer command.
type mkDevContainerFlags struct {
	name    string
	image   string
	volumes []string // --volumes: "host:container[:mode]"
	publish []string // --publish: "[host:]container[/proto]"

	// composeFile switches the command to the compose flavour.
	composeFile    string
	volumeMappings []string
	services       []string
}

// NewMkDevContainerCommand creates the "mkdevcontainer" cobra command.
func NewMkDevContainerCommand() *cobra.Command {
	flags := &mkDevContainerFlags{}

	cmd := &cobra.Command{
		Use:   "mkdevcontainer",
		Short: "Create a container dev environment",
		Long: `Record a dev environment and run its container detached.

The container is named after the environment. The image must already be
present locally. With --compose-file, a compose environment is created
instead, exactly as "mkdevcompose" does.

Examples:
  devdock mkdevcontainer --name api --image golang:1.25 --volumes ~/src/api:/src --publish 8080:8080
  devdock mkdevcontainer --name shop -f docker-compose.yml --volume-mappings web:./src:/app`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMkDevContainer(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Environment name")
	cmd.Flags().StringVar(&flags.image, "image", "", "Image to run")
	cmd.Flags().StringArrayVar(&flags.volumes, "volumes", nil, "Volume to mount, source:target[:mode] (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.publish, "publish", "p", nil, "Port to publish, [host:]container[/proto] (repeatable)")
	cmd.Flags().StringVarP(&flags.composeFile, "compose-file", "f", "", "Create a compose environment from this file")
	cmd.Flags().StringArrayVar(&flags.volumeMappings, "volume-mappings", nil, "Compose volume mapping, service:source:target or source:replacement (repeatable)")
	cmd.Flags().StringSliceVar(&flags.services, "services", nil, "Default services to start (compose only)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runMkDevContainer(ctx context.Context, w io.Writer, flags *mkDevContainerFlags) error {
	if flags.composeFile != "" {
		if flags.image != "" || len(flags.volumes) > 0 || len(flags.publish) > 0 {
			return model.NewCLIError(model.ExitInvalidInput,
				"--image, --volumes and --publish cannot be combined with --compose-file")
		}
		return runMkDevCompose(ctx, w, &mkDevComposeFlags{
			name:           flags.name,
			composeFile:    flags.composeFile,
			volumeMappings: flags.volumeMappings,
			services:       flags.services,
		})
	}

	if flags.image == "" {
		return model.NewCLIError(model.ExitInvalidInput, "--image is required (or --compose-file for a compose environment)")
	}
	if len(flags.volumeMappings) > 0 || len(flags.services) > 0 {
		return model.NewCLIError(model.ExitInvalidInput, "--volume-mappings and --services require --compose-file")
	}
	if err := checkPublished(flags.publish); err != nil {
		return err
	}

	s, err := openSession(ctx, requireEngine)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, id, err := s.mgr.CreateDevContainer(ctx, devenv.ContainerOptions{
		Name:    flags.name,
		Image:   flags.image,
		Volumes: flags.volumes,
		Ports:   flags.publish,
	})
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{
			"environment": rec,
			"containerId": id,
		})
	}
	info := model.ContainerInfo{ContainerID: id}
	fmt.Fprintf(w, "Created dev container %q (%s) from %s\n", rec.Name, info.ShortID(), rec.Image)
	return nil
}

// checkPublished fails early when a host port to publish is taken, before
// any record or container is created.
func checkPublished(specs []string) error {
	err := port.NewScanner().CheckPublished(specs)
	if err == nil {
		return nil
	}
	var inUse *port.InUseError
	if errors.As(err, &inUse) {
		return model.WrapCLIError(model.ExitGeneralError, "cannot publish ports", err)
	}
	return model.WrapCLIError(model.ExitInvalidInput, "invalid --publish value", err)
}

// mkDevComposeFlags holds the flag values for the mkdevcompose command.
type mkDevComposeFlags struct {
	name           string
	composeFile    string
	volumeMappings []string
	services       []string
}

// NewMkDevComposeCommand creates the "mkdevcompose" cobra command.
func NewMkDevComposeCommand() *cobra.Command {
	flags := &mkDevComposeFlags{}

	cmd := &cobra.Command{
		Use:   "mkdevcompose",
		Short: "Create a compose dev environment",
		Long: `Record a compose dev environment and bring it up.

With --volume-mappings, the compose file is rewritten and saved next to the
original as <name>.dev.<ext>; the environment then uses that copy. The
original file is never modified. With --services, only those services and
their dependencies are started, now and by later "workon" calls.

Mapping forms:
  service:source:target   re-point the service's volume with this source
                          at target, or add source:target if it has none
  source:replacement      replace this source in every service

Examples:
  devdock mkdevcompose --name shop --compose-file docker-compose.yml
  devdock mkdevcompose --name shop -f docker-compose.yml --volume-mappings web:data:/var/data2 --services web`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMkDevCompose(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Environment name")
	cmd.Flags().StringVarP(&flags.composeFile, "compose-file", "f", "", "Compose file")
	cmd.Flags().StringArrayVar(&flags.volumeMappings, "volume-mappings", nil, "Volume mapping (repeatable)")
	cmd.Flags().StringSliceVar(&flags.services, "services", nil, "Default services to start")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("compose-file")

	return cmd
}

func runMkDevCompose(ctx context.Context, w io.Writer, flags *mkDevComposeFlags) error {
	s, err := openSession(ctx, noEngine)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.mgr.CreateDevCompose(ctx, devenv.ComposeOptions{
		Name:        flags.name,
		ComposeFile: flags.composeFile,
		Mappings:    flags.volumeMappings,
		Services:    flags.services,
	})
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{"environment": rec})
	}
	fmt.Fprintf(w, "Created compose environment %q from %s\n", rec.Name, rec.ComposeFile)
	return nil
}

// NewRmDevCommand creates the "rmdev" cobra command.
func NewRmDevCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rmdev <name>",
		Short: "Remove a dev environment",
		Long: `Delete a dev environment's record and tear it down.

A container environment's container is removed (even if running); a compose
environment is stopped with "compose down". Volumes are kept.

Examples:
  devdock rmdev api`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRmDev(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func runRmDev(ctx context.Context, w io.Writer, name string) error {
	s, err := openSession(ctx, requireEngine)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.mgr.RemoveDev(ctx, name)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{
			"name":   rec.Name,
			"type":   rec.Kind.String(),
			"action": "removed",
		})
	}
	fmt.Fprintf(w, "Removed %s environment %q\n", rec.Kind, rec.Name)
	return nil
}

// NewWorkonCommand creates the "workon" cobra command.
func NewWorkonCommand() *cobra.Command {
	var services []string

	cmd := &cobra.Command{
		Use:   "workon <name>",
		Short: "Bring a dev environment up",
		Long: `Start a recorded dev environment.

For a compose environment, the services to start are those given with
--services, else the environment's default services, else all of them.
Every service they depend on is started too.

Examples:
  devdock workon api
  devdock workon shop --services web,worker`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkon(cmd.Context(), cmd.OutOrStdout(), args[0], services)
		},
	}

	cmd.Flags().StringSliceVarP(&services, "services", "s", nil, "Services to start (compose only)")
	return cmd
}

func runWorkon(ctx context.Context, w io.Writer, name string, services []string) error {
	s, err := openSession(ctx, requireEngine)
	if err != nil {
		return err
	}
	defer s.Close()

	act, err := s.mgr.Activate(ctx, name, services)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return printJSON(w, map[string]interface{}{
			"name":     act.Env.Name,
			"type":     act.Env.Kind.String(),
			"services": nonNil(act.Order),
		})
	}
	if act.Env.IsCompose() {
		fmt.Fprintf(w, "Started %q: %s\n", act.Env.Name, strings.Join(act.Order, ", "))
		return nil
	}
	fmt.Fprintf(w, "Started %q\n", act.Env.Name)
	return nil
}

// nonNil makes JSON output show [] instead of null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package devenv

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// ContainerOptions describes a container environment to create.
type ContainerOptions struct {
	Name    string
	Image   string
	Volumes []string
	Ports   []string
}

// CreateDevContainer records a container environment and then runs its
// container detached, named after the environment. The record is written
// first, so a failed run leaves it in place for a later "workon".
func (m *Manager) CreateDevContainer(ctx context.Context, opts ContainerOptions) (*model.Environment, string, error) {
	rec := &model.Environment{
		Name:    opts.Name,
		Kind:    model.KindContainer,
		Image:   opts.Image,
		Volumes: opts.Volumes,
		Ports:   opts.Ports,
	}
	if err := m.store.Create(rec); err != nil {
		return nil, "", err
	}
	m.logger.Debug("environment recorded", zap.String("env", rec.Name), zap.String("type", rec.Kind.String()))

	id, err := m.engine.RunContainer(ctx, model.ContainerSpec{
		Name:    rec.Name,
		Image:   rec.Image,
		Volumes: rec.Volumes,
		Ports:   rec.Ports,
	})
	if err != nil {
		return rec, "", err
	}
	return rec, id, nil
}

// StartContainer starts the container identified by ID or name.
func (m *Manager) StartContainer(ctx context.Context, identifier string) (*model.ContainerInfo, error) {
	info, err := m.engine.GetContainer(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return info, m.engine.StartContainer(ctx, info.ContainerID)
}

// StopContainer stops the container identified by ID or name.
func (m *Manager) StopContainer(ctx context.Context, identifier string) (*model.ContainerInfo, error) {
	info, err := m.engine.GetContainer(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return info, m.engine.StopContainer(ctx, info.ContainerID)
}

// RemoveContainer removes the container identified by ID or name.
func (m *Manager) RemoveContainer(ctx context.Context, identifier string, force bool) (*model.ContainerInfo, error) {
	info, err := m.engine.GetContainer(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return info, m.engine.RemoveContainer(ctx, info.ContainerID, force)
}

// CreateVolume creates a named volume.
func (m *Manager) CreateVolume(ctx context.Context, name string) error {
	return m.engine.CreateVolume(ctx, name)
}

// RemoveVolume removes a named volume.
func (m *Manager) RemoveVolume(ctx context.Context, name string) error {
	return m.engine.RemoveVolume(ctx, name)
}

// RunCommand executes command and returns its output and exit status.
//
// Without a service, identifier names a container and the command runs
// through the engine's exec API. With a service, identifier is a compose
// environment name or a compose file path and the command runs through
// "compose exec".
//
// command is split into arguments with shell quoting rules; it is not
// passed through a shell.
func (m *Manager) RunCommand(ctx context.Context, identifier, command, service string) (*model.ExecResult, error) {
	argv, err := splitCommand(command)
	if err != nil {
		return nil, err
	}

	if service == "" {
		info, err := m.engine.GetContainer(ctx, identifier)
		if err != nil {
			return nil, err
		}
		m.logger.Debug("exec in container", zap.String("container", info.ContainerName), zap.Strings("argv", argv))
		return m.engine.Exec(ctx, info.ContainerID, argv)
	}

	file, err := m.composeFileFor(identifier)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("exec in service", zap.String("file", file), zap.String("service", service), zap.Strings("argv", argv))
	return m.compose.Exec(ctx, file, service, argv)
}

// Shell opens an interactive shell, in a container or, with a service, in
// a compose service. identifier is resolved as in RunCommand.
func (m *Manager) Shell(ctx context.Context, identifier, service, shell string) error {
	if service == "" {
		info, err := m.engine.GetContainer(ctx, identifier)
		if err != nil {
			return err
		}
		return m.compose.ContainerShell(ctx, info.ContainerID, shell)
	}

	file, err := m.composeFileFor(identifier)
	if err != nil {
		return err
	}
	return m.compose.Shell(ctx, file, service, shell)
}

func splitCommand(command string) ([]string, error) {
	if strings.TrimSpace(command) == "" {
		return nil, model.NewCLIError(model.ExitInvalidInput, "command must not be empty")
	}
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidInput, fmt.Sprintf("cannot parse command %q", command), err)
	}
	if len(argv) == 0 {
		return nil, model.NewCLIError(model.ExitInvalidInput, "command must not be empty")
	}
	return argv, nil
}

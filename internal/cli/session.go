package cli

import (
	"context"

	"github.com/shinji-kodama/devdock/internal/devenv"
	"github.com/shinji-kodama/devdock/internal/docker"
	"github.com/shinji-kodama/devdock/internal/registry"
)

// engineMode says whether a command needs the Docker daemon.
type engineMode int

const (
	// noEngine commands only touch files and the compose subprocess.
	noEngine engineMode = iota

	// requireEngine commands fail with ExitDockerNotRunning without a daemon.
	requireEngine

	// optionalEngine commands degrade when the daemon is unreachable.
	optionalEngine
)

// session holds the collaborators of one command invocation.
type session struct {
	mgr    *devenv.Manager
	client *docker.Client
}

// openSession wires a Manager from the loaded settings.
func openSession(ctx context.Context, mode engineMode) (*session, error) {
	s := &session{}

	var engine devenv.Engine
	if mode != noEngine {
		c, err := connectDocker(ctx)
		switch {
		case err == nil:
			s.client = c
			engine = c
		case mode == requireEngine:
			return nil, err
		default:
			VerboseLog("Docker unavailable, container state will not be shown: %v", err)
		}
	}

	store := registry.NewStore(settings.ConfigDir)
	runner := docker.NewComposeRunner(settings.Compose.Binary, logger)
	s.mgr = devenv.NewManager(engine, runner, store, logger)

	VerboseLog("Registry directory: %s", store.Dir())
	return s, nil
}

// Close releases the Docker connection, if any.
func (s *session) Close() {
	if s.client != nil {
		_ = s.client.Close()
	}
}

func connectDocker(ctx context.Context) (*docker.Client, error) {
	c, err := docker.NewClient(settings.Docker.Host, logger)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	VerboseLog("Connected to Docker daemon")
	return c, nil
}

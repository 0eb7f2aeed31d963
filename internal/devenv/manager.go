// Package devenv implements devdock's use cases: creating, activating and
// removing dev environments, and the container / volume / compose
// operations the CLI exposes.
//
// The Manager owns no state of its own. Environment records live in the
// registry, lifecycle state lives in the container engine, and each call
// reads both afresh. Failures are returned as they happen; nothing is
// retried and completed steps are not rolled back.
package devenv

import (
	"context"

	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// Engine is the container engine as the Manager uses it.
// *docker.Client implements it.
type Engine interface {
	GetContainer(ctx context.Context, id string) (*model.ContainerInfo, error)
	RunContainer(ctx context.Context, spec model.ContainerSpec) (string, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string, force bool) error
	Exec(ctx context.Context, id string, argv []string) (*model.ExecResult, error)
	CreateVolume(ctx context.Context, name string) error
	RemoveVolume(ctx context.Context, name string) error
	ListManaged(ctx context.Context) ([]model.ContainerInfo, error)
}

// ComposeRunner runs docker compose and interactive docker CLI sessions.
// *docker.ComposeRunner implements it.
type ComposeRunner interface {
	Up(ctx context.Context, file string, services ...string) error
	Down(ctx context.Context, file string) error
	Exec(ctx context.Context, file, service string, argv []string) (*model.ExecResult, error)
	Shell(ctx context.Context, file, service, shell string) error
	ContainerShell(ctx context.Context, id, shell string) error
}

// Store persists environment records. *registry.Store implements it.
type Store interface {
	Create(rec *model.Environment) error
	Read(name string) (*model.Environment, error)
	Delete(name string) error
	List() ([]string, error)
	Exists(name string) bool
}

// Manager wires the registry, the engine and the compose runner together.
type Manager struct {
	engine  Engine
	compose ComposeRunner
	store   Store
	logger  *zap.Logger
}

// NewManager creates a Manager. A nil logger disables logging.
func NewManager(engine Engine, compose ComposeRunner, store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		engine:  engine,
		compose: compose,
		store:   store,
		logger:  logger,
	}
}

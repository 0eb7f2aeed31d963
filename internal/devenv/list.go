package devenv

import (
	"context"

	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// Container states reported by List besides the engine's own
// ("running", "exited", "created", ...).
const (
	StateMissing = "missing"
	StateUnknown = "unknown"
)

// EnvStatus is one row of List.
type EnvStatus struct {
	Env model.Environment `json:"environment"`

	// State is the container state for container environments and empty
	// for compose environments.
	State string `json:"state,omitempty"`

	// ContainerID is set when the container was found.
	ContainerID string `json:"containerId,omitempty"`
}

// List returns every registered environment in name order. Container
// environments are looked up in the engine: a container that does not
// exist is StateMissing, one that cannot be inspected is StateUnknown.
// A record that cannot be read is skipped with a warning.
func (m *Manager) List(ctx context.Context) ([]EnvStatus, error) {
	names, err := m.store.List()
	if err != nil {
		return nil, err
	}

	result := make([]EnvStatus, 0, len(names))
	for _, name := range names {
		rec, err := m.store.Read(name)
		if err != nil {
			m.logger.Warn("skipping unreadable environment", zap.String("env", name), zap.Error(err))
			continue
		}

		row := EnvStatus{Env: *rec}
		if !rec.IsCompose() && m.engine != nil {
			info, err := m.engine.GetContainer(ctx, rec.Name)
			switch {
			case err == nil:
				row.State = info.Status
				row.ContainerID = info.ContainerID
			case model.IsNotFound(err):
				row.State = StateMissing
			default:
				m.logger.Debug("container lookup failed", zap.String("env", name), zap.Error(err))
				row.State = StateUnknown
			}
		}
		result = append(result, row)
	}
	return result, nil
}

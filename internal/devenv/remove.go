package devenv

import (
	"context"

	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// RemoveDev deletes an environment's record and tears down what it runs:
// the container (forcibly) for a container environment, "compose down"
// for a compose one. A container that is already gone is not an error.
func (m *Manager) RemoveDev(ctx context.Context, name string) (*model.Environment, error) {
	rec, err := m.store.Read(name)
	if err != nil {
		return nil, err
	}
	if err := m.store.Delete(name); err != nil {
		return nil, err
	}

	if rec.IsCompose() {
		if err := m.compose.Down(ctx, rec.ComposeFile); err != nil {
			return rec, err
		}
		return rec, nil
	}

	if err := m.engine.RemoveContainer(ctx, rec.Name, true); err != nil {
		if model.IsNotFound(err) {
			m.logger.Warn("container already removed", zap.String("env", rec.Name))
			return rec, nil
		}
		return rec, err
	}
	return rec, nil
}

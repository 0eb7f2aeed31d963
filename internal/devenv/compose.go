package devenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/compose"
	"github.com/shinji-kodama/devdock/internal/model"
)

// ComposeOptions describes a compose environment to create.
type ComposeOptions struct {
	Name        string
	ComposeFile string

	// Mappings are volume mapping strings (see compose.ParseMapping). When
	// present, a ".dev" copy of the compose file is written with the
	// mappings applied and the environment points at that copy.
	Mappings []string

	// Services is the default subset started by Activate.
	Services []string
}

// CreateDevCompose records a compose environment and brings it up.
//
// Every mapping string is parsed, and the compose file is loaded and
// rewritten, before anything is written to disk, so a bad mapping leaves
// neither a ".dev" file nor a record behind.
func (m *Manager) CreateDevCompose(ctx context.Context, opts ComposeOptions) (*model.Environment, error) {
	if err := model.ValidateName(opts.Name); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidInput, "invalid environment name", err)
	}
	file, err := absPath(opts.ComposeFile)
	if err != nil {
		return nil, err
	}
	mappings, err := compose.ParseMappings(opts.Mappings)
	if err != nil {
		return nil, err
	}

	def, err := compose.Load(file)
	if err != nil {
		return nil, err
	}

	var services []string
	if len(opts.Services) > 0 {
		if services, err = compose.Resolve(def, opts.Services); err != nil {
			return nil, err
		}
	}

	if len(mappings) > 0 {
		rewritten, err := compose.Rewrite(def, mappings)
		if err != nil {
			return nil, err
		}
		devFile := compose.DevPath(file)
		if err := compose.Save(devFile, rewritten); err != nil {
			return nil, err
		}
		m.logger.Debug("dev compose file written", zap.String("file", devFile), zap.Int("mappings", len(mappings)))
		file = devFile
	}

	rec := &model.Environment{
		Name:        opts.Name,
		Kind:        model.KindCompose,
		ComposeFile: file,
		Services:    opts.Services,
	}
	if err := m.store.Create(rec); err != nil {
		return nil, err
	}

	if err := m.compose.Up(ctx, file, services...); err != nil {
		return rec, err
	}
	return rec, nil
}

// Activation is the outcome of Activate.
type Activation struct {
	Env *model.Environment

	// Services is the dependency closure that was started, sorted.
	// Empty for container environments.
	Services []string

	// Order is Services with dependencies before their dependents.
	Order []string
}

// Activate brings an environment up.
//
// A container environment has its container started. For a compose
// environment, the services to start are requested, else the record's
// default subset, else every service in the file; their dependency
// closure is computed and passed to "compose up".
func (m *Manager) Activate(ctx context.Context, name string, requested []string) (*Activation, error) {
	rec, err := m.store.Read(name)
	if err != nil {
		return nil, err
	}

	if !rec.IsCompose() {
		if err := m.engine.StartContainer(ctx, rec.Name); err != nil {
			return nil, err
		}
		return &Activation{Env: rec}, nil
	}

	def, err := compose.Load(rec.ComposeFile)
	if err != nil {
		return nil, err
	}

	if len(requested) == 0 {
		requested = rec.Services
	}
	all := len(requested) == 0
	if all {
		requested = def.ServiceNames()
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("compose file %s declares no services", rec.ComposeFile)
	}

	closure, err := compose.Resolve(def, requested)
	if err != nil {
		return nil, err
	}
	order := compose.StartOrder(def, closure)
	m.logger.Debug("resolved services", zap.String("env", rec.Name), zap.Strings("order", order))

	up := closure
	if all {
		up = nil
	}
	if err := m.compose.Up(ctx, rec.ComposeFile, up...); err != nil {
		return nil, err
	}
	return &Activation{Env: rec, Services: closure, Order: order}, nil
}

// UpdateVolumes rewrites the compose file at file with the given mapping
// strings and writes the result to output, or back to file when output is
// empty. It returns the path written.
func (m *Manager) UpdateVolumes(file string, mappingSpecs []string, output string) (string, error) {
	mappings, err := compose.ParseMappings(mappingSpecs)
	if err != nil {
		return "", err
	}
	if len(mappings) == 0 {
		return "", model.NewCLIError(model.ExitInvalidInput, "at least one volume mapping is required")
	}

	def, err := compose.Load(file)
	if err != nil {
		return "", err
	}
	rewritten, err := compose.Rewrite(def, mappings)
	if err != nil {
		return "", err
	}

	if output == "" {
		output = file
	}
	if err := compose.Save(output, rewritten); err != nil {
		return "", err
	}
	m.logger.Debug("volumes updated", zap.String("file", file), zap.String("output", output))
	return output, nil
}

// composeFileFor resolves identifier to a compose file: a registered
// compose environment's file, or else identifier itself if it names an
// existing file.
func (m *Manager) composeFileFor(identifier string) (string, error) {
	if m.store.Exists(identifier) {
		rec, err := m.store.Read(identifier)
		if err != nil {
			return "", err
		}
		if rec.IsCompose() {
			return rec.ComposeFile, nil
		}
	}

	path, err := homedir.Expand(identifier)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path, nil
	}
	return "", model.NewNotFoundError("compose file", identifier, nil)
}

func absPath(path string) (string, error) {
	if path == "" {
		return "", model.NewCLIError(model.ExitInvalidInput, "compose file path must not be empty")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

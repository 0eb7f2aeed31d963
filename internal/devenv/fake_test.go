package devenv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shinji-kodama/devdock/internal/model"
	"github.com/shinji-kodama/devdock/internal/registry"
)

// fakeEngine is an in-memory Engine keyed by container name.
type fakeEngine struct {
	containers map[string]*model.ContainerInfo
	lookupErr  error
	runErr     error

	ran     []model.ContainerSpec
	started []string
	stopped []string
	removed []string
	execs   [][]string
	execOut model.ExecResult
	volumes map[string]bool
	calls   []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		containers: make(map[string]*model.ContainerInfo),
		volumes:    make(map[string]bool),
	}
}

func (f *fakeEngine) add(name, id, status string) {
	f.containers[name] = &model.ContainerInfo{ContainerID: id, ContainerName: name, Status: status}
}

func (f *fakeEngine) GetContainer(_ context.Context, id string) (*model.ContainerInfo, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for name, c := range f.containers {
		if name == id || c.ContainerID == id {
			return c, nil
		}
	}
	return nil, model.NewNotFoundError("container", id, nil)
}

func (f *fakeEngine) RunContainer(_ context.Context, spec model.ContainerSpec) (string, error) {
	f.calls = append(f.calls, "run")
	if f.runErr != nil {
		return "", f.runErr
	}
	f.ran = append(f.ran, spec)
	id := "id-" + spec.Name
	f.add(spec.Name, id, "running")
	return id, nil
}

func (f *fakeEngine) StartContainer(_ context.Context, id string) error {
	if _, err := f.GetContainer(context.Background(), id); err != nil {
		return err
	}
	f.started = append(f.started, id)
	return nil
}

func (f *fakeEngine) StopContainer(_ context.Context, id string) error {
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeEngine) RemoveContainer(_ context.Context, id string, _ bool) error {
	c, err := f.GetContainer(context.Background(), id)
	if err != nil {
		return err
	}
	delete(f.containers, c.ContainerName)
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeEngine) Exec(_ context.Context, id string, argv []string) (*model.ExecResult, error) {
	f.execs = append(f.execs, append([]string{id}, argv...))
	out := f.execOut
	return &out, nil
}

func (f *fakeEngine) CreateVolume(_ context.Context, name string) error {
	f.volumes[name] = true
	return nil
}

func (f *fakeEngine) RemoveVolume(_ context.Context, name string) error {
	if !f.volumes[name] {
		return model.NewNotFoundError("volume", name, nil)
	}
	delete(f.volumes, name)
	return nil
}

func (f *fakeEngine) ListManaged(context.Context) ([]model.ContainerInfo, error) {
	out := make([]model.ContainerInfo, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, *c)
	}
	return out, nil
}

// fakeCompose records compose invocations.
type fakeCompose struct {
	ups    []composeCall
	downs  []string
	execs  []composeCall
	shells []composeCall
	upErr  error
}

type composeCall struct {
	file     string
	services []string
	argv     []string
}

func (f *fakeCompose) Up(_ context.Context, file string, services ...string) error {
	f.ups = append(f.ups, composeCall{file: file, services: services})
	return f.upErr
}

func (f *fakeCompose) Down(_ context.Context, file string) error {
	f.downs = append(f.downs, file)
	return nil
}

func (f *fakeCompose) Exec(_ context.Context, file, service string, argv []string) (*model.ExecResult, error) {
	f.execs = append(f.execs, composeCall{file: file, services: []string{service}, argv: argv})
	return &model.ExecResult{Output: "ok"}, nil
}

func (f *fakeCompose) Shell(_ context.Context, file, service, shell string) error {
	f.shells = append(f.shells, composeCall{file: file, services: []string{service}, argv: []string{shell}})
	return nil
}

func (f *fakeCompose) ContainerShell(_ context.Context, id, shell string) error {
	f.shells = append(f.shells, composeCall{file: id, argv: []string{shell}})
	return nil
}

type harness struct {
	mgr     *Manager
	engine  *fakeEngine
	compose *fakeCompose
	store   *registry.Store
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		engine:  newFakeEngine(),
		compose: &fakeCompose{},
		store:   registry.NewStore(filepath.Join(dir, "registry")),
		dir:     dir,
	}
	h.mgr = NewManager(h.engine, h.compose, h.store, nil)
	return h
}

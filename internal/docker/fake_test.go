package docker

import (
	"bufio"
	"bytes"
	"context"
	"net"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// fakeAPI implements engineAPI. Methods a test does not set up fall through
// to the nil embedded interface and panic, which flags unexpected calls.
type fakeAPI struct {
	engineAPI

	inspect      map[string]container.InspectResponse
	inspectErr   error
	list         []container.Summary
	listErr      error
	lastListOpts container.ListOptions

	images   map[string]bool
	imageErr error

	created     []createCall
	createErr   error
	started     []string
	stopped     []string
	removed     []string
	removeForce []bool
	lifeErr     error

	execCmd    []string
	execStdout string
	execStderr string
	execExit   int

	volumesCreated []volume.CreateOptions
	volumesRemoved []string
	volumeErr      error
}

type createCall struct {
	config *container.Config
	host   *container.HostConfig
	name   string
}

func (f *fakeAPI) Close() error { return nil }

func (f *fakeAPI) Ping(context.Context) (types.Ping, error) { return types.Ping{}, nil }

func (f *fakeAPI) ContainerInspect(_ context.Context, id string) (container.InspectResponse, error) {
	if f.inspectErr != nil {
		return container.InspectResponse{}, f.inspectErr
	}
	resp, ok := f.inspect[id]
	if !ok {
		return container.InspectResponse{}, errNotFound("No such container: " + id)
	}
	return resp, nil
}

func (f *fakeAPI) ContainerList(_ context.Context, opts container.ListOptions) ([]container.Summary, error) {
	f.lastListOpts = opts
	return f.list, f.listErr
}

func (f *fakeAPI) ContainerCreate(_ context.Context, cfg *container.Config, host *container.HostConfig,
	_ *network.NetworkingConfig, _ *ocispec.Platform, name string) (container.CreateResponse, error) {
	if f.createErr != nil {
		return container.CreateResponse{}, f.createErr
	}
	f.created = append(f.created, createCall{config: cfg, host: host, name: name})
	return container.CreateResponse{ID: "c0ffee" + name}, nil
}

func (f *fakeAPI) ContainerStart(_ context.Context, id string, _ container.StartOptions) error {
	if f.lifeErr != nil {
		return f.lifeErr
	}
	f.started = append(f.started, id)
	return nil
}

func (f *fakeAPI) ContainerStop(_ context.Context, id string, _ container.StopOptions) error {
	if f.lifeErr != nil {
		return f.lifeErr
	}
	f.stopped = append(f.stopped, id)
	return nil
}

func (f *fakeAPI) ContainerRemove(_ context.Context, id string, opts container.RemoveOptions) error {
	if f.lifeErr != nil {
		return f.lifeErr
	}
	f.removed = append(f.removed, id)
	f.removeForce = append(f.removeForce, opts.Force)
	return nil
}

func (f *fakeAPI) ContainerExecCreate(_ context.Context, _ string, opts container.ExecOptions) (container.ExecCreateResponse, error) {
	if f.lifeErr != nil {
		return container.ExecCreateResponse{}, f.lifeErr
	}
	f.execCmd = opts.Cmd
	return container.ExecCreateResponse{ID: "exec-1"}, nil
}

func (f *fakeAPI) ContainerExecAttach(context.Context, string, container.ExecAttachOptions) (types.HijackedResponse, error) {
	var buf bytes.Buffer
	if f.execStdout != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(f.execStdout))
	}
	if f.execStderr != "" {
		_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(f.execStderr))
	}
	conn, peer := net.Pipe()
	_ = peer.Close()
	return types.HijackedResponse{Conn: conn, Reader: bufio.NewReader(&buf)}, nil
}

func (f *fakeAPI) ContainerExecInspect(context.Context, string) (container.ExecInspect, error) {
	return container.ExecInspect{ExecID: "exec-1", ExitCode: f.execExit}, nil
}

func (f *fakeAPI) ImageInspect(_ context.Context, ref string, _ ...client.ImageInspectOption) (image.InspectResponse, error) {
	if f.imageErr != nil {
		return image.InspectResponse{}, f.imageErr
	}
	if !f.images[ref] {
		return image.InspectResponse{}, errNotFound("No such image: " + ref)
	}
	return image.InspectResponse{ID: "sha256:" + ref}, nil
}

func (f *fakeAPI) VolumeCreate(_ context.Context, opts volume.CreateOptions) (volume.Volume, error) {
	if f.volumeErr != nil {
		return volume.Volume{}, f.volumeErr
	}
	f.volumesCreated = append(f.volumesCreated, opts)
	return volume.Volume{Name: opts.Name, Mountpoint: "/var/lib/docker/volumes/" + opts.Name}, nil
}

func (f *fakeAPI) VolumeRemove(_ context.Context, name string, _ bool) error {
	if f.volumeErr != nil {
		return f.volumeErr
	}
	f.volumesRemoved = append(f.volumesRemoved, name)
	return nil
}

// notFoundErr satisfies the errdefs NotFound interface like the SDK's
// own errors do.
type notFoundErr string

func (e notFoundErr) Error() string { return string(e) }
func (notFoundErr) NotFound()       {}

func errNotFound(msg string) error { return notFoundErr(msg) }

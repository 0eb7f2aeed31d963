// container.go implements the single-container side of devdock: finding a
// container by ID or name, creating and running one from an image, and the
// start / stop / remove lifecycle calls. Compose stacks go through
// ComposeRunner instead.
package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/compose-spec/compose-go/v2/format"
	composetypes "github.com/compose-spec/compose-go/v2/types"
	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// GetContainer looks a container up by exact ID or name. When the daemon
// does not know the identifier, containers whose name contains it are
// listed and the first match wins. If that also finds nothing, a
// model.NotFoundError of kind "container" is returned.
func (c *Client) GetContainer(ctx context.Context, id string) (*model.ContainerInfo, error) {
	resp, err := c.inner.ContainerInspect(ctx, id)
	if err == nil {
		info := inspectToInfo(resp)
		return &info, nil
	}
	if !cerrdefs.IsNotFound(err) {
		return nil, model.NewEngineFailure(fmt.Sprintf("inspect container %s", id), "", err)
	}

	c.logger.Debug("container not found by ID, trying name filter", zap.String("container", id))

	containers, err := c.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", id)),
	})
	if err != nil {
		return nil, model.NewEngineFailure("list containers", "", err)
	}
	if len(containers) == 0 {
		return nil, model.NewNotFoundError("container", id, nil)
	}

	info := containerToInfo(containers[0])
	return &info, nil
}

// RunContainer creates a container from spec and starts it detached,
// returning its ID. The image must already be present locally: a missing
// image is a model.NotFoundError of kind "image" and nothing is pulled.
func (c *Client) RunContainer(ctx context.Context, spec model.ContainerSpec) (string, error) {
	if _, err := c.inner.ImageInspect(ctx, spec.Image); err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", model.NewNotFoundError("image", spec.Image, err)
		}
		return "", model.NewEngineFailure(fmt.Sprintf("inspect image %s", spec.Image), "", err)
	}

	mounts, err := buildMounts(spec.Volumes)
	if err != nil {
		return "", err
	}
	exposed, bindings, err := buildPorts(spec.Ports)
	if err != nil {
		return "", err
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Labels:       BuildLabels(spec.Name, spec.Labels),
		ExposedPorts: exposed,
		Tty:          true,
		OpenStdin:    true,
	}
	hostCfg := &container.HostConfig{
		Mounts:       mounts,
		PortBindings: bindings,
	}

	c.logger.Debug("creating container",
		zap.String("name", spec.Name),
		zap.String("image", spec.Image),
		zap.Int("mounts", len(mounts)),
		zap.Int("ports", len(bindings)))

	resp, err := c.inner.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", model.NewEngineFailure(fmt.Sprintf("create container %s", spec.Name), "", err)
	}
	for _, w := range resp.Warnings {
		c.logger.Warn("docker create warning", zap.String("container", spec.Name), zap.String("warning", w))
	}

	if err := c.inner.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", model.NewEngineFailure(fmt.Sprintf("start container %s", spec.Name), "", err)
	}
	return resp.ID, nil
}

// StartContainer starts a stopped container.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	if err := c.inner.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return lifecycleError("start", id, err)
	}
	return nil
}

// StopContainer stops a running container using the daemon's default
// grace period before SIGKILL.
func (c *Client) StopContainer(ctx context.Context, id string) error {
	if err := c.inner.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		return lifecycleError("stop", id, err)
	}
	return nil
}

// RemoveContainer removes a container. With force, a running container is
// killed first.
func (c *Client) RemoveContainer(ctx context.Context, id string, force bool) error {
	err := c.inner.ContainerRemove(ctx, id, container.RemoveOptions{Force: force})
	if err != nil {
		return lifecycleError("remove", id, err)
	}
	return nil
}

// ListManaged returns every container carrying the devdock management
// label, stopped ones included.
func (c *Client) ListManaged(ctx context.Context) ([]model.ContainerInfo, error) {
	containers, err := c.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: managedFilter(),
	})
	if err != nil {
		return nil, model.NewEngineFailure("list containers", "", err)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, ct := range containers {
		result = append(result, containerToInfo(ct))
	}
	return result, nil
}

func lifecycleError(op, id string, err error) error {
	if cerrdefs.IsNotFound(err) {
		return model.NewNotFoundError("container", id, err)
	}
	return model.NewEngineFailure(fmt.Sprintf("%s container %s", op, id), "", err)
}

// containerToInfo converts a list entry to the domain model. The API
// prefixes names with "/", which is dropped.
func containerToInfo(c container.Summary) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}
	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Image:         c.Image,
		Status:        string(c.State),
		Labels:        c.Labels,
	}
}

// inspectToInfo converts an inspect response to the domain model.
func inspectToInfo(resp container.InspectResponse) model.ContainerInfo {
	info := model.ContainerInfo{}
	if resp.ContainerJSONBase != nil {
		info.ContainerID = resp.ID
		info.ContainerName = strings.TrimPrefix(resp.Name, "/")
		if resp.State != nil {
			info.Status = string(resp.State.Status)
		}
	}
	if resp.Config != nil {
		info.Image = resp.Config.Image
		info.Labels = resp.Config.Labels
	}
	return info
}

// buildMounts turns "source:target[:mode]" specs into mounts using the
// compose volume grammar: a source that looks like a path is a bind mount
// (made absolute, with "~" expanded), anything else is a named volume, and
// a lone target is an anonymous volume.
func buildMounts(specs []string) ([]mount.Mount, error) {
	mounts := make([]mount.Mount, 0, len(specs))
	for _, spec := range specs {
		cfg, err := format.ParseVolume(spec)
		if err != nil {
			return nil, &model.InvalidMappingError{Mapping: spec, Reason: err.Error()}
		}
		if cfg.Target == "" {
			return nil, &model.InvalidMappingError{Mapping: spec, Reason: "missing container path"}
		}

		m := mount.Mount{
			Source:   cfg.Source,
			Target:   cfg.Target,
			ReadOnly: cfg.ReadOnly,
		}
		switch cfg.Type {
		case composetypes.VolumeTypeBind:
			m.Type = mount.TypeBind
			src, err := homedir.Expand(cfg.Source)
			if err != nil {
				return nil, &model.InvalidMappingError{Mapping: spec, Reason: err.Error()}
			}
			if !filepath.IsAbs(src) {
				if src, err = filepath.Abs(src); err != nil {
					return nil, &model.InvalidMappingError{Mapping: spec, Reason: err.Error()}
				}
			}
			m.Source = src
			if cfg.Bind != nil && cfg.Bind.Propagation != "" {
				m.BindOptions = &mount.BindOptions{Propagation: mount.Propagation(cfg.Bind.Propagation)}
			}
		case composetypes.VolumeTypeVolume:
			m.Type = mount.TypeVolume
			if cfg.Volume != nil && cfg.Volume.NoCopy {
				m.VolumeOptions = &mount.VolumeOptions{NoCopy: true}
			}
		default:
			return nil, &model.InvalidMappingError{Mapping: spec, Reason: fmt.Sprintf("unsupported volume type %q", cfg.Type)}
		}
		mounts = append(mounts, m)
	}
	return mounts, nil
}

// buildPorts parses "[ip:][host:]container[/proto]" publish specs.
func buildPorts(specs []string) (nat.PortSet, nat.PortMap, error) {
	if len(specs) == 0 {
		return nil, nil, nil
	}
	exposed, bindings, err := nat.ParsePortSpecs(specs)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid port spec: %w", err)
	}
	return exposed, bindings, nil
}

package docker

import (
	"context"
	"fmt"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/volume"
	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// CreateVolume creates a named volume with the default local driver.
// Creating a volume that already exists succeeds, as it does in the docker
// CLI.
func (c *Client) CreateVolume(ctx context.Context, name string) error {
	vol, err := c.inner.VolumeCreate(ctx, volume.CreateOptions{
		Name:   name,
		Labels: BuildLabels("", nil),
	})
	if err != nil {
		return model.NewEngineFailure(fmt.Sprintf("create volume %s", name), "", err)
	}
	c.logger.Debug("volume created", zap.String("volume", vol.Name), zap.String("mountpoint", vol.Mountpoint))
	return nil
}

// RemoveVolume removes a named volume. A missing volume is a
// model.NotFoundError of kind "volume"; a volume still in use fails.
func (c *Client) RemoveVolume(ctx context.Context, name string) error {
	if err := c.inner.VolumeRemove(ctx, name, false); err != nil {
		if cerrdefs.IsNotFound(err) {
			return model.NewNotFoundError("volume", name, err)
		}
		return model.NewEngineFailure(fmt.Sprintf("remove volume %s", name), "", err)
	}
	return nil
}

package docker

import (
	"bytes"
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/shinji-kodama/devdock/internal/model"
)

// Exec runs argv inside a running container and waits for it to finish.
// stdout and stderr are collected together in Output. A command that runs
// and exits non-zero is not an error: its status is in ExitCode.
func (c *Client) Exec(ctx context.Context, id string, argv []string) (*model.ExecResult, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("no command given")
	}

	created, err := c.inner.ContainerExecCreate(ctx, id, container.ExecOptions{
		Cmd:          argv,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, lifecycleError("exec in", id, err)
	}

	c.logger.Debug("exec created", zap.String("container", id), zap.String("exec", created.ID), zap.Strings("cmd", argv))

	attached, err := c.inner.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, model.NewEngineFailure(fmt.Sprintf("attach to exec in %s", id), "", err)
	}
	defer attached.Close()

	// Without a TTY the stream is multiplexed; both halves go to one buffer.
	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, attached.Reader); err != nil {
		return nil, model.NewEngineFailure(fmt.Sprintf("read exec output from %s", id), out.String(), err)
	}

	inspect, err := c.inner.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return nil, model.NewEngineFailure(fmt.Sprintf("inspect exec in %s", id), out.String(), err)
	}

	return &model.ExecResult{ExitCode: inspect.ExitCode, Output: out.String()}, nil
}

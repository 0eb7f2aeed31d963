// Package docker is devdock's boundary to the container engine.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows) or an explicit docker.host setting
//   - Single-container operations over the Docker Engine SDK: lookup,
//     run, start, stop, remove, exec and named volumes
//   - Management labels ("devdock.managed-by", "devdock.env") that mark
//     the containers devdock created
//   - Compose stacks and interactive shells, driven through the docker
//     CLI binary as a child process
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
// Engine errors are translated into the error kinds of package model.
package docker

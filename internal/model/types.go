package model

import (
	"fmt"
	"regexp"
	"strings"
)

// EnvKind distinguishes the two flavours of dev environment.
// The string values are the ones written to the "type" key of a record file,
// so they must stay stable across releases.
type EnvKind string

const (
	// KindContainer is a single container created from an image.
	KindContainer EnvKind = "container"

	// KindCompose is a docker compose stack described by a compose file.
	KindCompose EnvKind = "compose"
)

// String returns the string representation of EnvKind.
func (k EnvKind) String() string {
	return string(k)
}

// IsValid checks whether the EnvKind value is one of the predefined kinds.
func (k EnvKind) IsValid() bool {
	switch k {
	case KindContainer, KindCompose:
		return true
	default:
		return false
	}
}

// ParseEnvKind converts a string to an EnvKind, ignoring case.
// Returns an error if the string does not match any valid kind.
func ParseEnvKind(s string) (EnvKind, error) {
	kind := EnvKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid environment type: %q (valid: container, compose)", s)
	}
	return kind, nil
}

// Environment is the persisted record of a dev environment.
//
// Container-only fields (Image, Volumes, Ports) are empty for compose
// environments, and compose-only fields (ComposeFile, Services) are empty
// for container environments. Validate enforces this split.
type Environment struct {
	// Name is the unique identifier of the environment. It doubles as the
	// registry storage key and, for container environments, the container name.
	Name string `yaml:"name" json:"name"`

	// Kind selects between a single container and a compose stack.
	Kind EnvKind `yaml:"type" json:"type"`

	// Image is the container image reference (container kind only).
	Image string `yaml:"image,omitempty" json:"image,omitempty"`

	// Volumes lists "source:target[:mode]" mappings for the container,
	// in the order the user declared them (container kind only).
	Volumes []string `yaml:"volumes,omitempty" json:"volumes,omitempty"`

	// Ports lists "[host:]container[/proto]" publish specs (container kind only).
	Ports []string `yaml:"ports,omitempty" json:"ports,omitempty"`

	// ComposeFile is the path of the compose file to drive (compose kind only).
	ComposeFile string `yaml:"compose_file,omitempty" json:"compose_file,omitempty"`

	// Services is the default subset of compose services activated by
	// "workon" when no --services flag is given. Empty means all services.
	Services []string `yaml:"services,omitempty" json:"services,omitempty"`
}

// IsCompose reports whether the environment is a compose stack.
func (e *Environment) IsCompose() bool {
	return e.Kind == KindCompose
}

// Validate checks that the record is internally consistent.
func (e *Environment) Validate() error {
	if err := ValidateName(e.Name); err != nil {
		return err
	}
	switch e.Kind {
	case KindContainer:
		if e.Image == "" {
			return fmt.Errorf("environment %q: image is required for a container environment", e.Name)
		}
		if e.ComposeFile != "" {
			return fmt.Errorf("environment %q: compose_file is not allowed for a container environment", e.Name)
		}
	case KindCompose:
		if e.ComposeFile == "" {
			return fmt.Errorf("environment %q: compose_file is required for a compose environment", e.Name)
		}
		if e.Image != "" || len(e.Volumes) > 0 || len(e.Ports) > 0 {
			return fmt.Errorf("environment %q: image, volumes and ports are not allowed for a compose environment", e.Name)
		}
	default:
		return fmt.Errorf("environment %q: invalid type %q (valid: container, compose)", e.Name, e.Kind)
	}
	return nil
}

// nameRegex validates environment names. Docker container names allow
// [a-zA-Z0-9][a-zA-Z0-9_.-]*, and the name is also used as a file name,
// so path separators are excluded by construction.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// ValidateName checks if the given name is a valid environment name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must start with an alphanumeric character and contain only alphanumerics, '_', '.' or '-'", name)
	}
	return nil
}

// ContainerInfo holds runtime information about a Docker container.
// This data is fetched from the Docker API on demand, never persisted.
type ContainerInfo struct {
	// ContainerID is the full Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the container name without the API's leading "/".
	ContainerName string `json:"containerName"`

	// Image is the image reference the container was created from.
	Image string `json:"image,omitempty"`

	// Status is the Docker container state (e.g., "running", "exited").
	Status string `json:"status"`

	// Labels is the full set of Docker labels on the container.
	Labels map[string]string `json:"labels,omitempty"`
}

// ShortID returns the 12-character form of the container ID used by the
// docker CLI, or the full ID when it is shorter than that.
func (c *ContainerInfo) ShortID() string {
	if len(c.ContainerID) > 12 {
		return c.ContainerID[:12]
	}
	return c.ContainerID
}

// ContainerSpec describes a container to create with RunContainer.
type ContainerSpec struct {
	// Name is the container name.
	Name string

	// Image is the image reference. It must already exist locally.
	Image string

	// Volumes are "source:target[:mode]" mappings.
	Volumes []string

	// Ports are "[host:]container[/proto]" publish specs.
	Ports []string

	// Labels are extra labels merged over the management labels.
	Labels map[string]string
}

// ExecResult is the outcome of a command executed inside a container.
type ExecResult struct {
	// ExitCode is the exit status of the command.
	ExitCode int

	// Output is the combined stdout and stderr of the command.
	Output string
}

// ExitCode defines the CLI exit codes. Only success/failure is part of the
// contract; the distinct non-zero values are a convenience for scripts.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidInput indicates bad flags, names or mapping strings.
	ExitInvalidInput ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitEnvNotFound indicates the named environment, container, volume
	// or file does not exist.
	ExitEnvNotFound ExitCode = 6
)

// CLIError is an error that carries an exit code.
// The CLI layer translates domain errors into CLIErrors before returning
// them to cobra, and Execute uses the code for os.Exit.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

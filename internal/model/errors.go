package model

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by devdock. Each kind is a concrete type so callers
// can branch with errors.As; the CLI maps them to exit codes in one place
// (see ExitCodeFor).

// NotFoundError reports that a container, volume, image, environment record
// or file does not exist.
type NotFoundError struct {
	// Kind names the missing thing, e.g. "container", "volume", "config".
	Kind string

	// Name is the identifier that was looked up.
	Name string

	// Err is the underlying lookup error, if any.
	Err error
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case "config":
		return fmt.Sprintf("no configuration found for %s", e.Name)
	case "":
		return fmt.Sprintf("%s not found", e.Name)
	default:
		return fmt.Sprintf("%s %s not found", capitalize(e.Kind), e.Name)
	}
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// NewNotFoundError creates a NotFoundError for the given kind and name.
func NewNotFoundError(kind, name string, err error) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name, Err: err}
}

// UnknownServiceError reports a service name that is not declared in the
// compose definition, whether it was requested directly or reached through
// a depends_on edge.
type UnknownServiceError struct {
	// Service is the undeclared name.
	Service string

	// RequiredBy is the service whose depends_on referenced Service.
	// Empty when Service was requested directly.
	RequiredBy string
}

func (e *UnknownServiceError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("unknown service %q (required by %q)", e.Service, e.RequiredBy)
	}
	return fmt.Sprintf("unknown service %q", e.Service)
}

// InvalidMappingError reports a malformed volume mapping.
type InvalidMappingError struct {
	// Mapping is the offending input, as given by the user.
	Mapping string

	// Reason describes what is wrong with it.
	Reason string
}

func (e *InvalidMappingError) Error() string {
	return fmt.Sprintf("invalid volume mapping %q: %s", e.Mapping, e.Reason)
}

// ParseError reports a malformed structured document (compose file,
// environment record, external configuration).
type ParseError struct {
	// Path is the file the document came from. Empty for in-memory input.
	Path string

	// Err is the decoder error.
	Err error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EngineFailure reports a failed Docker SDK call or a non-zero exit of the
// docker / docker compose binary.
type EngineFailure struct {
	// Op is the operation that failed, e.g. "start container".
	Op string

	// Output is the captured process output, if the failure came from a
	// subprocess.
	Output string

	// Err is the underlying error.
	Err error
}

func (e *EngineFailure) Error() string {
	msg := "failed to " + e.Op
	if e.Output != "" {
		msg += ": " + e.Output
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineFailure) Unwrap() error { return e.Err }

// NewEngineFailure creates an EngineFailure for op.
func NewEngineFailure(op, output string, err error) *EngineFailure {
	return &EngineFailure{Op: op, Output: output, Err: err}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ExitCodeFor picks the CLI exit code for a domain error.
func ExitCodeFor(err error) ExitCode {
	var (
		cliErr     *CLIError
		notFound   *NotFoundError
		unknownSvc *UnknownServiceError
		badMapping *InvalidMappingError
		parseErr   *ParseError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cliErr):
		return cliErr.Code
	case errors.As(err, &notFound):
		return ExitEnvNotFound
	case errors.As(err, &unknownSvc), errors.As(err, &badMapping), errors.As(err, &parseErr):
		return ExitInvalidInput
	default:
		return ExitGeneralError
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

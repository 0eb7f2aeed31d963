// Package model defines the shared domain types for devdock.
//
// This package contains:
//   - Environment: the persisted record of a named dev environment
//   - EnvKind: container vs. compose environments
//   - ContainerInfo / ContainerSpec / ExecResult: engine-facing values
//   - Typed error kinds (NotFoundError, UnknownServiceError,
//     InvalidMappingError, ParseError, EngineFailure)
//   - CLIError and ExitCode for process exit handling
//
// The package has no dependencies on other internal packages, so every
// other package can import it without cycles.
package model

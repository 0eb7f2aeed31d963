// Package compose models docker compose files as far as devdock needs to:
// services, their volumes and their depends_on edges, with every other key
// carried through untouched.
//
// Key responsibilities:
//   - Load / Parse / Marshal / Save compose YAML (gopkg.in/yaml.v3)
//   - Resolve: the depends_on closure of a set of requested services
//   - Rewrite: volume substitutions producing a new Definition
//   - DevPath: the file name of the ".dev" variant of a compose file
//
// Resolve and Rewrite are pure functions over in-memory values. They do no
// I/O and never modify their input, so they are safe to call concurrently
// with independent arguments.
package compose

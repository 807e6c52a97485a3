// Package config provides snapshot engine configuration for snapmesh.
//
// This package defines the configuration structure and validation:
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (mode names, codec, backend, filter pattern)
//   - load.go: Loading through internal/infra/confloader
//
// Configuration supports a YAML file and SNAPMESH_* environment variables.
// Function-valued collaborators (serializer, loader, hooks) are not part of
// this structure; they are handed to the matcher directly.
package config

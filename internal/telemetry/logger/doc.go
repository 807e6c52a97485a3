// Package logger provides structured logging for snapmesh.
//
// This package wraps log/slog:
//
//   - logger.go: handler configuration and the package-level default logger
//   - context.go: context-aware logging with broadcast peer propagation
//   - truncate.go: shortening of large snapshot payloads in log attributes
//
// The default output is text on stderr at warn level so that a passing test
// run stays quiet.
package logger

// Package command provides CLI command definitions for snapmesh-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, config and store setup
//   - list.go: baseline groups in the snapshot directory
//   - show.go: entries of one group
//   - check.go: strict parse of every baseline
//   - serve.go: broadcast receiver
//   - watch.go: baseline change feed
//   - version.go: build information
//
// Commands parse flags, load the snapshot configuration the same way the
// test engine does, and format output with internal/cli/output.
package command

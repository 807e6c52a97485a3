// Package main provides the entry point for snapmesh-cli.
//
// The CLI inspects snapshot baselines and follows live broadcasts:
//
//   - list, show, check: read the baseline directory
//   - serve: receive broadcast snapshots from test runs
//   - watch: report baseline files as they change
//
// Usage:
//
//	snapmesh-cli [global flags] <command> [flags]
//	snapmesh-cli --dir testdata/__snapshots__ list
//	snapmesh-cli -o json show Button
//	snapmesh-cli serve --addr 127.0.0.1:5990 --http-addr :8080
package main

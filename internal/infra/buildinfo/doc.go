// Package buildinfo exposes the version of the snapmesh binaries.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/snapmesh-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When a value was not injected, Get falls back to what the Go toolchain
// embedded in the binary.
package buildinfo

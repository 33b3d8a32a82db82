// Package version exposes build metadata injected with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/gotasks/version.Version=v1.2.0 \
//	  -X github.com/kbukum/gotasks/version.Commit=$(git rev-parse --short HEAD)"
//
// Missing values fall back to the VCS stamp recorded by the Go toolchain.
package version

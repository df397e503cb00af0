// Package version reports the lazylists build version.
//
// Version, commit and build time can be set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/lazylists/version.Version=1.0.0" ./cmd/lazyrun
//
// Unset values fall back to the VCS settings embedded by the Go toolchain.
package version

// Package buildinfo reports the version of the sod binaries.
//
// Version, Commit and BuildTime are set with -ldflags at release time.
// When they are not set, Get falls back to the module build information
// recorded by the Go toolchain.
package buildinfo

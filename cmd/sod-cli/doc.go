// Package main provides the entry point for sod-cli.
//
// sod-cli talks to sod-server over its local socket:
//
//	sod-cli login alice
//	sod-cli --socket /run/sod/sod.sock logout alice
//	echo secret | sod-cli login alice
package main

// Package logger provides structured logging for the sod daemon and
// client.
//
// It wraps log/slog with JSON or text output, a runtime-adjustable level
// and automatic redaction of credential material: attributes whose keys
// name passwords or secrets are replaced, and values that look like
// crypt(3) hashes are masked down to their scheme prefix.
//
// Per-connection context (instance identifier, peer credentials) travels
// in context.Context and is attached by L.
package logger

// Package localserver runs sod's accept loop.
//
// The server listens on a Unix domain socket (sequenced-packet by
// default, or TCP for testing),
// removes a stale socket left by a previous run, applies the configured
// permissions and hands every accepted connection to a Handler. Creation
// is serialized on the accept goroutine; each returned Worker is joined
// and destroyed on its own goroutine. An optional token-bucket limiter
// throttles accepts.
//
// On Linux the peer's process credentials are read with SO_PEERCRED and
// logged with the connection.
package localserver

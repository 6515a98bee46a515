// Package main provides the entry point for sod-server.
//
// sod-server is the authentication proxy daemon. It accepts local
// connections on a sequenced-packet Unix socket and runs one
// authentication transaction per connection: the peer names a user, the
// daemon relays the credential validator's prompts and answers with an
// ACK or a REJECT. A TERM request closes the session a previous AUTH
// opened.
//
// Usage:
//
//	sod-server [--config /etc/sod/sod.yaml] [--socket PATH] [--log-level LEVEL]
//
// SIGHUP and changes to the configuration file reload the login_cap
// policy and the log level. SIGINT and SIGTERM shut the daemon down.
package main

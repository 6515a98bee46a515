// Package memory keeps the daemon's open sessions in process memory.
//
// A session is recorded when an authentication succeeds and its validator
// session is opened. It stays until the user's TERM request or daemon
// shutdown. Nothing is persisted.
//
// The store is a sharded concurrent map keyed by login name, so
// transactions on different connections never contend on one lock.
package memory

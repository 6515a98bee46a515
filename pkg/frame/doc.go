// Package frame implements the fixed-size message protocol spoken between
// the sign-on daemon and its clients.
//
// Every message is a 148-byte frame carrying a correlation identifier, a
// declared length, a code and a NUL-terminated token of at most 127 bytes.
// A code is a verb (AUTH, TERM) optionally combined with a status (ACK,
// NAK, REJ). The daemon answers prompts with AUTH_NAK frames whose token
// is the prompt text; the client replies with AUTH_REQ frames that echo
// the correlation identifier it was given.
//
// Usage:
//
//	f := frame.New()
//	f.Prepare("alice", frame.AuthRequest, 0)
//	if err := frame.Send(conn, f); err != nil { ... }
//	if err := frame.Receive(conn, f); err != nil { ... }
package frame

package domain

import (
	"context"
	"errors"
	"time"
)

// OpenSession is a validator session opened after a successful
// authentication and kept until the user's TERM request or daemon exit.
type OpenSession struct {
	// Username is the authenticated login name.
	Username string

	// Handle is the validator transaction that owns the session.
	Handle CredentialHandle

	// Owner is the identifier of the instance that opened the session.
	Owner uint64

	// OpenedAt is when the session was recorded.
	OpenedAt time.Time
}

// Close closes the validator session and releases its handle. The handle
// is released even when closing fails.
func (s *OpenSession) Close(ctx context.Context) error {
	if s == nil || s.Handle == nil {
		return ErrSessionNotFound
	}
	closeErr := s.Handle.CloseSession(ctx)
	endErr := s.Handle.End(closeErr)
	s.Handle = nil
	return errors.Join(closeErr, endErr)
}

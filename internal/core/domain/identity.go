package domain

import (
	"context"
	"strings"
)

// Username constraints.
const (
	// MaxUsernameLength matches the largest token a frame can carry.
	MaxUsernameLength = 127

	// RootUID is the superuser identifier. Authentication for it is always refused.
	RootUID = 0
)

// Identity is an account record as returned by an IdentityLookup.
type Identity struct {
	// Name is the login name.
	Name string `json:"name"`

	// UID is the numeric user identifier.
	UID int `json:"uid"`

	// GID is the primary group identifier.
	GID int `json:"gid"`

	// Gecos is the free-form comment field.
	Gecos string `json:"gecos"`

	// Home is the home directory.
	Home string `json:"home"`

	// Shell is the login shell.
	Shell string `json:"shell"`
}

// IsRoot reports whether the identity is the superuser.
func (i *Identity) IsRoot() bool {
	return i.UID == RootUID
}

// IdentityLookup resolves a login name to an account record.
//
// Implementations return ErrUserUnknown when no account matches.
type IdentityLookup interface {
	Lookup(ctx context.Context, name string) (*Identity, error)
}

// ValidateUsername checks that a candidate username taken from a request
// frame is usable as a login name.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrMissingArgument.WithDetails("username is empty")
	}
	if len(name) > MaxUsernameLength {
		return ErrInvalidArgument.WithDetails("username exceeds maximum length")
	}
	if strings.ContainsAny(name, ":\n\x00") {
		return ErrInvalidArgument.WithDetails("username contains forbidden characters")
	}
	return nil
}

package passwd

import (
	"context"
	"errors"
	"fmt"
	"os/user"
	"strconv"

	"github.com/yndnr/sod-go/internal/core/domain"
)

var _ domain.IdentityLookup = SystemLookup{}

// SystemLookup resolves identities through the host's name service.
type SystemLookup struct{}

// Lookup returns the identity for name, or ErrUserUnknown.
func (SystemLookup) Lookup(ctx context.Context, name string) (*domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.ValidateUsername(name); err != nil {
		return nil, err
	}

	u, err := user.Lookup(name)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return nil, domain.ErrUserUnknown.WithDetails(name)
		}
		return nil, fmt.Errorf("lookup user %s: %w", name, err)
	}

	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("user %s: non-numeric uid %q", name, u.Uid)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, fmt.Errorf("user %s: non-numeric gid %q", name, u.Gid)
	}
	return &domain.Identity{
		Name:  u.Username,
		UID:   uid,
		GID:   gid,
		Gecos: u.Name,
		Home:  u.HomeDir,
	}, nil
}

// NewLookup selects an identity source by name: "file" reads passwdFile,
// "system" or "" uses the host name service.
func NewLookup(source, passwdFile string) (domain.IdentityLookup, error) {
	switch source {
	case "", "system":
		return SystemLookup{}, nil
	case "file":
		return NewFileLookup(passwdFile), nil
	default:
		return nil, domain.ErrInvalidArgument.WithDetails("unknown identity source: " + source)
	}
}

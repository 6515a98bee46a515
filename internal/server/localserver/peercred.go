package localserver

import (
	"errors"
	"fmt"
)

var errNoPeerCredentials = errors.New("peer credentials unavailable")

// PeerCredentials identifies the process on the other end of a unix
// socket.
type PeerCredentials struct {
	PID int32
	UID uint32
	GID uint32
}

func (c PeerCredentials) String() string {
	return fmt.Sprintf("pid=%d uid=%d gid=%d", c.PID, c.UID, c.GID)
}

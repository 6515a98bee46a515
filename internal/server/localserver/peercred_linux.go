//go:build linux

package localserver

import (
	"net"

	"golang.org/x/sys/unix"
)

func peerCredentials(conn net.Conn) (PeerCredentials, error) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return PeerCredentials{}, errNoPeerCredentials
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return PeerCredentials{}, err
	}

	var (
		cred   *unix.Ucred
		sysErr error
	)
	err = raw.Control(func(fd uintptr) {
		cred, sysErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return PeerCredentials{}, err
	}
	if sysErr != nil {
		return PeerCredentials{}, sysErr
	}
	return PeerCredentials{PID: cred.Pid, UID: cred.Uid, GID: cred.Gid}, nil
}

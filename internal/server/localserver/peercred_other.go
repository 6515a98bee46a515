//go:build !linux

package localserver

import "net"

func peerCredentials(net.Conn) (PeerCredentials, error) {
	return PeerCredentials{}, errNoPeerCredentials
}

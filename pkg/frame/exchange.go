package frame

import (
	"fmt"
	"io"
	"net"
)

// Op selects the exchange direction.
type Op int

const (
	// OpSend writes the frame to the connection.
	OpSend Op = iota + 1
	// OpReceive reads one frame from the connection into the frame.
	OpReceive
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpSend:
		return "send"
	case OpReceive:
		return "receive"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// DefaultNetwork is the socket type the daemon and client use. Sequenced
// packets keep one frame per read and write.
const DefaultNetwork = "unixpacket"

// Exchange moves exactly one frame over conn in a single transport call.
//
// The frame's declared length must equal Size before either direction is
// attempted. A transfer of any other byte count fails with
// ErrShortTransfer; partial frames are never retried or reassembled.
// A received frame must itself declare Size.
func Exchange(op Op, conn io.ReadWriter, f *Frame) error {
	if f == nil {
		return ErrNilFrame
	}
	if f.Length != Size {
		return fmt.Errorf("%w: %d != %d", ErrLength, f.Length, Size)
	}

	var buf [Size]byte
	switch op {
	case OpSend:
		f.put(buf[:])
		n, err := conn.Write(buf[:])
		if err != nil {
			return fmt.Errorf("frame: send: %w", err)
		}
		if n != Size {
			return fmt.Errorf("%w: sent %d of %d bytes", ErrShortTransfer, n, Size)
		}
		return nil

	case OpReceive:
		n, err := conn.Read(buf[:])
		if err != nil {
			if n == 0 {
				return fmt.Errorf("frame: receive: %w", err)
			}
			return fmt.Errorf("%w: received %d of %d bytes: %v", ErrShortTransfer, n, Size, err)
		}
		if n != Size {
			return fmt.Errorf("%w: received %d of %d bytes", ErrShortTransfer, n, Size)
		}
		var in Frame
		if err := in.UnmarshalBinary(buf[:]); err != nil {
			return err
		}
		if in.Length != Size {
			return fmt.Errorf("%w: received %d != %d", ErrLength, in.Length, Size)
		}
		*f = in
		return nil

	default:
		return fmt.Errorf("%w: %v", ErrOperation, op)
	}
}

// Send is Exchange(OpSend, conn, f).
func Send(conn io.ReadWriter, f *Frame) error {
	return Exchange(OpSend, conn, f)
}

// Receive is Exchange(OpReceive, conn, f).
func Receive(conn io.ReadWriter, f *Frame) error {
	return Exchange(OpReceive, conn, f)
}

// Dial connects to a daemon socket. An empty network selects DefaultNetwork.
func Dial(network, path string) (net.Conn, error) {
	if network == "" {
		network = DefaultNetwork
	}
	return net.Dial(network, path)
}

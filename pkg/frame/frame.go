package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Wire constants.
const (
	// TokenSize is the token field width including the NUL terminator.
	TokenSize = 128

	// MaxToken is the longest token payload a frame carries.
	MaxToken = TokenSize - 1

	// Size is the declared length every valid frame carries, and the exact
	// number of bytes moved per exchange.
	Size = 8 + 8 + 4 + TokenSize
)

// Code is a frame verb, optionally OR-ed with a status.
type Code uint32

// Verbs.
const (
	AuthRequest Code = 0x01
	TermRequest Code = 0x02
)

// Statuses.
const (
	Ack    Code = 0x10
	Nak    Code = 0x20
	Reject Code = 0x30
)

// Combined codes sent by the daemon.
const (
	AuthAck    = AuthRequest | Ack
	AuthNak    = AuthRequest | Nak
	AuthReject = AuthRequest | Reject
	TermAck    = TermRequest | Ack
	TermReject = TermRequest | Reject
)

const (
	verbMask   Code = 0x0f
	statusMask Code = 0xf0
)

// Verb returns the verb bits of c.
func (c Code) Verb() Code { return c & verbMask }

// Status returns the status bits of c.
func (c Code) Status() Code { return c & statusMask }

// String renders the code as VERB or VERB|STATUS.
func (c Code) String() string {
	var verb string
	switch c.Verb() {
	case AuthRequest:
		verb = "AUTH"
	case TermRequest:
		verb = "TERM"
	default:
		verb = fmt.Sprintf("0x%02x", uint32(c.Verb()))
	}

	switch c.Status() {
	case 0:
		return verb + "_REQ"
	case Ack:
		return verb + "_ACK"
	case Nak:
		return verb + "_NAK"
	case Reject:
		return verb + "_REJ"
	default:
		return fmt.Sprintf("%s|0x%02x", verb, uint32(c.Status()))
	}
}

// Errors returned by the codec.
var (
	ErrNilFrame       = errors.New("frame: nil frame")
	ErrLength         = errors.New("frame: declared length mismatch")
	ErrOperation      = errors.New("frame: unknown exchange operation")
	ErrShortTransfer  = errors.New("frame: short transfer")
	ErrMalformedFrame = errors.New("frame: malformed frame")
)

// Frame is one fixed-size protocol message.
//
// Layout on the wire, little endian:
//
//	[correlation:8][length:8][code:4][token:128]
type Frame struct {
	Correlation uint64
	Length      uint64
	Code        Code
	Token       [TokenSize]byte
}

// New returns a zeroed frame with a valid declared length.
func New() *Frame {
	return &Frame{Length: Size}
}

// Prepare zeroes f, stamps correlation, code and the declared length, and
// copies token into the frame. Tokens longer than MaxToken are cut to
// MaxToken bytes; the return value reports whether that happened.
func (f *Frame) Prepare(token string, code Code, correlation uint64) (truncated bool) {
	*f = Frame{
		Correlation: correlation,
		Length:      Size,
		Code:        code,
	}
	if len(token) > MaxToken {
		token = token[:MaxToken]
		truncated = true
	}
	copy(f.Token[:], token)
	return truncated
}

// Text returns the token up to its first NUL.
func (f *Frame) Text() string {
	if i := bytes.IndexByte(f.Token[:], 0); i >= 0 {
		return string(f.Token[:i])
	}
	return string(f.Token[:])
}

// Wipe zeroes the token field. Call it once a frame carrying a secret has
// been consumed.
func (f *Frame) Wipe() {
	clear(f.Token[:])
}

// MarshalBinary encodes f into its wire form.
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	f.put(buf)
	return buf, nil
}

// UnmarshalBinary decodes a wire frame into f.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(data))
	}
	f.Correlation = binary.LittleEndian.Uint64(data[0:8])
	f.Length = binary.LittleEndian.Uint64(data[8:16])
	f.Code = Code(binary.LittleEndian.Uint32(data[16:20]))
	copy(f.Token[:], data[20:])
	return nil
}

func (f *Frame) put(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.Correlation)
	binary.LittleEndian.PutUint64(buf[8:16], f.Length)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(f.Code))
	copy(buf[20:], f.Token[:])
}

package frame

import (
	"strings"
	"testing"
)

func TestSizeMatchesLayout(t *testing.T) {
	if Size != 148 {
		t.Errorf("Size = %d, want 148", Size)
	}
	if MaxToken != 127 {
		t.Errorf("MaxToken = %d, want 127", MaxToken)
	}
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		wantText      string
		wantTruncated bool
	}{
		{"empty", "", "", false},
		{"short", "alice", "alice", false},
		{"exact", strings.Repeat("a", MaxToken), strings.Repeat("a", MaxToken), false},
		{"long", strings.Repeat("b", 200), strings.Repeat("b", MaxToken), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			truncated := f.Prepare(tt.token, AuthRequest, 42)

			if truncated != tt.wantTruncated {
				t.Errorf("Prepare() truncated = %v, want %v", truncated, tt.wantTruncated)
			}
			if got := f.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if f.Token[MaxToken] != 0 {
				t.Error("last token byte must stay NUL")
			}
			if f.Length != Size {
				t.Errorf("Length = %d, want %d", f.Length, Size)
			}
			if f.Correlation != 42 || f.Code != AuthRequest {
				t.Errorf("Prepare() stamped (%d, %v), want (42, AUTH_REQ)", f.Correlation, f.Code)
			}
		})
	}
}

func TestPrepareZeroesPreviousContent(t *testing.T) {
	f := New()
	f.Prepare("a-very-long-previous-secret", AuthRequest, 1)
	f.Prepare("ok", AuthAck, 2)

	for i := len("ok"); i < TokenSize; i++ {
		if f.Token[i] != 0 {
			t.Fatalf("Token[%d] = %q, want NUL", i, f.Token[i])
		}
	}
}

func TestWipe(t *testing.T) {
	f := New()
	f.Prepare("hunter2", AuthRequest, 7)
	f.Wipe()

	if f.Text() != "" {
		t.Errorf("Text() after Wipe = %q, want empty", f.Text())
	}
	if f.Correlation != 7 || f.Length != Size {
		t.Error("Wipe must only touch the token")
	}
}

func TestCodeParts(t *testing.T) {
	tests := []struct {
		code       Code
		wantVerb   Code
		wantStatus Code
		wantString string
	}{
		{AuthRequest, AuthRequest, 0, "AUTH_REQ"},
		{AuthAck, AuthRequest, Ack, "AUTH_ACK"},
		{AuthNak, AuthRequest, Nak, "AUTH_NAK"},
		{AuthReject, AuthRequest, Reject, "AUTH_REJ"},
		{TermRequest, TermRequest, 0, "TERM_REQ"},
		{TermAck, TermRequest, Ack, "TERM_ACK"},
		{TermReject, TermRequest, Reject, "TERM_REJ"},
		{Code(0x05), Code(0x05), 0, "0x05_REQ"},
	}

	for _, tt := range tests {
		t.Run(tt.wantString, func(t *testing.T) {
			if got := tt.code.Verb(); got != tt.wantVerb {
				t.Errorf("Verb() = %v, want %v", got, tt.wantVerb)
			}
			if got := tt.code.Status(); got != tt.wantStatus {
				t.Errorf("Status() = %#x, want %#x", uint32(got), uint32(tt.wantStatus))
			}
			if got := tt.code.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
		})
	}
}

func TestMarshalLayout(t *testing.T) {
	f := New()
	f.Prepare("hi", TermAck, 0x0102030405060708)

	buf, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	if len(buf) != Size {
		t.Fatalf("len = %d, want %d", len(buf), Size)
	}
	if buf[0] != 0x08 || buf[7] != 0x01 {
		t.Errorf("correlation not little endian: % x", buf[0:8])
	}
	if buf[8] != byte(Size) {
		t.Errorf("length byte = %d, want %d", buf[8], Size)
	}
	if buf[16] != byte(TermAck) {
		t.Errorf("code byte = %#x, want %#x", buf[16], byte(TermAck))
	}
	if string(buf[20:22]) != "hi" || buf[22] != 0 {
		t.Errorf("token bytes = %q", buf[20:24])
	}
}

func TestUnmarshalRejectsWrongSize(t *testing.T) {
	var f Frame
	if err := f.UnmarshalBinary(make([]byte, Size-1)); err == nil {
		t.Error("UnmarshalBinary() should reject short input")
	}
}

package object

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/oklog/ulid/v2"
)

// IDGenerator issues time-derived instance identifiers.
//
// An identifier packs the ULID millisecond timestamp into the high 48 bits
// and the low 16 bits of its monotonic entropy into the rest. Identifiers
// from one generator are strictly increasing and never zero, so a fresh
// client frame with correlation 0 can never look like loopback.
type IDGenerator struct {
	mu      sync.Mutex
	clock   clock.Clock
	entropy io.Reader
	last    ID
}

// NewIDGenerator creates a generator reading time from clk.
func NewIDGenerator(clk clock.Clock) *IDGenerator {
	if clk == nil {
		clk = clock.New()
	}
	return &IDGenerator{
		clock:   clk,
		entropy: ulid.Monotonic(rand.Reader, 1),
	}
}

// Next returns a new identifier.
func (g *IDGenerator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var id ID
	u, err := ulid.New(ulid.Timestamp(g.clock.Now()), g.entropy)
	if err == nil {
		id = ID(u.Time()<<16 | uint64(u[14])<<8 | uint64(u[15]))
	}
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

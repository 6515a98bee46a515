package object

import (
	"context"

	"github.com/benbjohnson/clock"
)

// Registry owns the abstract root class together with the clock and
// identifier source every derived class shares. Construct one at startup
// and pass it to the components that define classes.
type Registry struct {
	root  *Class
	clock clock.Clock
	ids   *IDGenerator
	ctx   context.Context
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the time source for identifiers and timed waits.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithContext sets the parent context of every worker.
func WithContext(ctx context.Context) Option {
	return func(r *Registry) { r.ctx = ctx }
}

// NewRegistry creates a registry with an initialized abstract root.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock: clock.New(),
		ctx:   context.Background(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ids = NewIDGenerator(r.clock)

	r.root = newClass(r, RootClassID, "thread", nil)
	r.root.abstract = true
	_ = r.root.Init(nil)
	return r
}

// Root returns the abstract root class.
func (r *Registry) Root() *Class { return r.root }

// Clock returns the registry's time source.
func (r *Registry) Clock() clock.Clock { return r.clock }

// NewClass defines a concrete class. factory must return a fresh, zeroed
// instance on every call. The class still has to be initialized under
// Root before use.
func (r *Registry) NewClass(id ID, name string, factory func() Instance) *Class {
	return newClass(r, id, name, factory)
}

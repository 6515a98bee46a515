package object

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Well-known class identifiers.
const (
	// RootClassID identifies the abstract threaded root.
	RootClassID ID = 0x7468725f636c7331
)

type table struct{ Methods }

// Class describes a family of instances: its method table, the derived
// classes registered under it and the instances currently alive.
//
// A class is usable once Init has run and stops accepting work once Fini
// has run. Two tiers exist: the abstract root, owned by a Registry, and
// concrete classes initialized under it.
type Class struct {
	Object

	name     string
	abstract bool
	registry *Registry
	factory  func() Instance

	// mu serializes instance registration and eviction against Fini.
	mu        sync.Mutex
	parent    *Class
	children  *Cache[*Class]
	instances *Cache[Instance]
	inherited Methods
	methods   atomic.Pointer[table]
	public    atomic.Value
}

func newClass(r *Registry, id ID, name string, factory func() Instance) *Class {
	c := &Class{
		name:     name,
		registry: r,
		factory:  factory,
	}
	c.id = id
	c.size = sizeOf(c)
	c.methods.Store(&table{nopMethods{}})
	return c
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// IsAbstract reports whether c is the abstract root.
func (c *Class) IsAbstract() bool { return c.abstract }

// Parent returns the class c was initialized under, or nil for the root.
func (c *Class) Parent() *Class { return c.parent }

// Methods returns the current method table.
func (c *Class) Methods() Methods { return c.methods.Load().Methods }

// SetPublic attaches the value the class exposes to its users.
func (c *Class) SetPublic(v any) {
	if v != nil {
		c.public.Store(v)
	}
}

// Public returns the value attached with SetPublic.
func (c *Class) Public() any { return c.public.Load() }

// Init prepares c for use. Repeated calls are no-ops. A concrete class is
// registered as a child of parent and inherits its method table verbatim.
func (c *Class) Init(parent *Class) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Has(FlagInitialized) {
		return nil
	}

	if c.abstract {
		c.children = NewCache[*Class]()
		c.instances = NewCache[Instance]()
		c.inherited = threadMethods{}
		c.methods.Store(&table{c.inherited})
		c.setFlags(FlagInitialized)
		return nil
	}

	if parent == nil {
		return ErrNilObject
	}
	if !parent.abstract {
		return fmt.Errorf("%w: %s under %s", ErrTooDeep, c.name, parent.name)
	}
	if !parent.Has(FlagInitialized) {
		return fmt.Errorf("%w: %s", ErrNotInitialized, parent.name)
	}

	c.children = NewCache[*Class]()
	c.instances = NewCache[Instance]()

	parent.mu.Lock()
	_, err := parent.children.Add(c)
	parent.mu.Unlock()
	if err != nil {
		return err
	}

	c.parent = parent
	c.inherited = parent.Methods()
	c.methods.Store(&table{c.inherited})
	c.setFlags(FlagInitialized)
	return nil
}

// Override replaces the Start and Stop entries of an initialized concrete
// class. Every other entry keeps the inherited behavior.
func (c *Class) Override(o Overrides) error {
	if c.abstract {
		return ErrAbstractClass
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Has(FlagInitialized) {
		return ErrNotInitialized
	}
	c.methods.Store(&table{overridden{Methods: c.inherited, o: o}})
	return nil
}

// Fini finalizes c. It fails with ErrBusy while c still has children or
// live instances. On success c is removed from its parent and every entry
// of its table fails with ErrClassFinalized. The abstract root cannot be
// finalized.
func (c *Class) Fini(parent *Class) error {
	if c.abstract {
		return ErrAbstractClass
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Has(FlagInitialized) {
		return nil
	}
	if parent != nil && parent != c.parent {
		return fmt.Errorf("%w: %s is not a child of %s", ErrNotFound, c.name, parent.name)
	}
	if n, m := c.children.Len(), c.instances.Len(); n > 0 || m > 0 {
		return fmt.Errorf("%w: %s has %d children, %d instances", ErrBusy, c.name, n, m)
	}

	c.parent.mu.Lock()
	_, err := c.parent.children.Delete(c.id)
	c.parent.mu.Unlock()
	if err != nil {
		return err
	}

	c.methods.Store(&table{nopMethods{}})
	c.clearFlags(FlagInitialized)
	return nil
}

// Instances returns the live instances at the time of the call.
func (c *Class) Instances() []Instance {
	if c.instances == nil {
		return nil
	}
	return c.instances.Snapshot()
}

// Lookup returns the live instance registered under id.
func (c *Class) Lookup(id ID) (Instance, error) {
	if c.instances == nil {
		return nil, ErrNotInitialized
	}
	return c.instances.Get(id)
}

// Children returns the number of classes initialized under c.
func (c *Class) Children() int {
	if c.children == nil {
		return 0
	}
	return c.children.Len()
}

// Create allocates an instance and starts its worker.
func (c *Class) Create() (Instance, error) { return c.Methods().Create(c) }

// Destroy stops the instance, cancels its worker and evicts it. It must
// not be called from the instance's own worker.
func (c *Class) Destroy(inst Instance) error { return c.Methods().Destroy(c, inst) }

// Lock takes the instance mutex. A second Lock before Unlock fails.
func (c *Class) Lock(inst Instance) error { return c.Methods().Lock(inst) }

// Unlock releases a mutex taken with Lock.
func (c *Class) Unlock(inst Instance) error { return c.Methods().Unlock(inst) }

// Sleep suspends the calling worker until Wakeup or cancellation. The
// instance must not be held through Lock.
func (c *Class) Sleep(inst Instance) error { return c.Methods().Sleep(inst) }

// Wakeup resumes a sleeping worker.
func (c *Class) Wakeup(inst Instance) error { return c.Methods().Wakeup(inst) }

// Wait suspends the calling worker for at most d.
func (c *Class) Wait(inst Instance, d time.Duration) error { return c.Methods().Wait(inst, d) }

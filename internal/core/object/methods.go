package object

import (
	"fmt"
	"time"
)

// Methods is the behavior table every class carries.
//
// A derived class inherits its parent's table unchanged and may replace
// only Start and Stop, through Class.Override.
type Methods interface {
	Create(c *Class) (Instance, error)
	Start(inst Instance)
	Lock(inst Instance) error
	Unlock(inst Instance) error
	Sleep(inst Instance) error
	Wakeup(inst Instance) error
	Wait(inst Instance, d time.Duration) error
	Stop(inst Instance)
	Destroy(c *Class, inst Instance) error
}

// Overrides are the entry points a concrete class may replace.
type Overrides struct {
	// Start is the worker body. It runs on the instance's own goroutine.
	Start func(inst Instance)
	// Stop releases external resources held by the instance. Destroy calls
	// it before cancelling the worker, so it must unblock any pending I/O.
	Stop func(inst Instance)
}

type overridden struct {
	Methods
	o Overrides
}

func (m overridden) Start(inst Instance) {
	if m.o.Start != nil {
		m.o.Start(inst)
		return
	}
	m.Methods.Start(inst)
}

func (m overridden) Stop(inst Instance) {
	if m.o.Stop != nil {
		m.o.Stop(inst)
		return
	}
	m.Methods.Stop(inst)
}

// nopMethods is installed on a finalized class.
type nopMethods struct{}

func (nopMethods) Create(*Class) (Instance, error)    { return nil, ErrClassFinalized }
func (nopMethods) Start(Instance)                     {}
func (nopMethods) Lock(Instance) error                { return ErrClassFinalized }
func (nopMethods) Unlock(Instance) error              { return ErrClassFinalized }
func (nopMethods) Sleep(Instance) error               { return ErrClassFinalized }
func (nopMethods) Wakeup(Instance) error              { return ErrClassFinalized }
func (nopMethods) Wait(Instance, time.Duration) error { return ErrClassFinalized }
func (nopMethods) Stop(Instance)                      {}
func (nopMethods) Destroy(*Class, Instance) error     { return ErrClassFinalized }

// threadMethods is the root table: one goroutine per instance.
type threadMethods struct{}

func (threadMethods) Create(c *Class) (Instance, error) {
	if c.IsAbstract() {
		return nil, ErrAbstractClass
	}
	if c.factory == nil {
		return nil, fmt.Errorf("%w: class %s has no factory", ErrAllocation, c.name)
	}

	inst := c.factory()
	if isNil(inst) || inst.Runtime() == nil {
		return nil, fmt.Errorf("%w: class %s factory returned nil", ErrAllocation, c.name)
	}

	t := inst.Runtime()
	t.init(c.registry.ids.Next(), sizeOf(inst), c.registry.clock)
	t.spawn(c.registry.ctx, func() { c.Methods().Start(inst) })

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.Has(FlagInitialized) {
		t.unwind()
		return nil, ErrClassFinalized
	}
	if _, err := c.instances.Add(inst); err != nil {
		t.unwind()
		return nil, err
	}
	return inst, nil
}

func (threadMethods) Start(Instance) {}

func (threadMethods) Stop(Instance) {}

func (threadMethods) Lock(inst Instance) error {
	t, err := threadOf(inst)
	if err != nil {
		return err
	}
	if !t.trySet(FlagLocked) {
		return ErrLocked
	}
	t.mu.Lock()
	return nil
}

func (threadMethods) Unlock(inst Instance) error {
	t, err := threadOf(inst)
	if err != nil {
		return err
	}
	if !t.tryClear(FlagLocked) {
		return ErrNotLocked
	}
	t.mu.Unlock()
	return nil
}

func (threadMethods) Sleep(inst Instance) error {
	t, err := threadOf(inst)
	if err != nil {
		return err
	}
	return t.sleep()
}

func (threadMethods) Wakeup(inst Instance) error {
	t, err := threadOf(inst)
	if err != nil {
		return err
	}
	return t.wakeup()
}

func (threadMethods) Wait(inst Instance, d time.Duration) error {
	if d <= 0 {
		return ErrInvalidTimeout
	}
	t, err := threadOf(inst)
	if err != nil {
		return err
	}
	return t.wait(d)
}

func (threadMethods) Destroy(c *Class, inst Instance) error {
	if c.IsAbstract() {
		return ErrAbstractClass
	}
	t, err := threadOf(inst)
	if err != nil {
		return err
	}
	if t.done == nil {
		return fmt.Errorf("%w: instance was never created", ErrNotFound)
	}

	t.teardown.Lock()
	defer t.teardown.Unlock()
	if t.State() == StateDestroyed {
		return nil
	}

	c.mu.Lock()
	owned, err := c.instances.Get(t.ID())
	c.mu.Unlock()
	if err != nil || owned.Runtime() != t {
		return fmt.Errorf("%w: instance %v does not belong to class %s", ErrNotFound, t.ID(), c.name)
	}

	if err := t.transition(StateStopped); err != nil {
		return err
	}

	c.Methods().Stop(inst)
	t.abort()

	c.mu.Lock()
	_, err = c.instances.Delete(t.ID())
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return t.transition(StateDestroyed)
}

func threadOf(inst Instance) (*Thread, error) {
	if isNil(inst) {
		return nil, ErrNilObject
	}
	t := inst.Runtime()
	if t == nil {
		return nil, ErrNilObject
	}
	return t, nil
}

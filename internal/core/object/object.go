package object

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
)

// ID identifies an object within its cache.
type ID uint64

// String renders the identifier as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Flags is the object state bit set.
type Flags uint32

const (
	// FlagInitialized marks an initialized class.
	FlagInitialized Flags = 1 << iota
	// FlagLocked marks an instance whose lock is held through Lock.
	FlagLocked
	// FlagThreaded marks an instance with a live worker.
	FlagThreaded
)

// Errors returned by the runtime.
var (
	ErrNilObject         = errors.New("object: nil object")
	ErrDuplicateID       = errors.New("object: duplicate identifier")
	ErrNotFound          = errors.New("object: not found")
	ErrBusy              = errors.New("object: class has live children or instances")
	ErrAbstractClass     = errors.New("object: operation not permitted on the abstract root")
	ErrClassFinalized    = errors.New("object: class finalized")
	ErrNotInitialized    = errors.New("object: class not initialized")
	ErrTooDeep           = errors.New("object: parent is not the abstract root")
	ErrLocked            = errors.New("object: already locked")
	ErrNotLocked         = errors.New("object: not locked")
	ErrWaitTimeout       = errors.New("object: wait timed out")
	ErrInvalidTimeout    = errors.New("object: timeout must be positive")
	ErrInvalidTransition = errors.New("object: invalid lifecycle transition")
	ErrAllocation        = errors.New("object: allocation failed")
)

// Object is the header shared by classes and instances.
type Object struct {
	id    ID
	size  uintptr
	flags atomic.Uint32
}

// Entry is anything that can be kept in a Cache.
type Entry interface {
	Header() *Object
}

// Header returns o itself so that types embedding Object satisfy Entry.
func (o *Object) Header() *Object { return o }

// ID returns the object identifier.
func (o *Object) ID() ID { return o.id }

// Size returns the size of the concrete value the header belongs to.
func (o *Object) Size() uintptr { return o.size }

// Flags returns the current flag set.
func (o *Object) Flags() Flags { return Flags(o.flags.Load()) }

// Has reports whether every bit of f is set.
func (o *Object) Has(f Flags) bool { return o.Flags()&f == f }

func (o *Object) setFlags(f Flags) {
	for {
		old := o.flags.Load()
		if o.flags.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

func (o *Object) clearFlags(f Flags) {
	for {
		old := o.flags.Load()
		if o.flags.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// trySet sets f and reports true only if none of its bits were set before.
func (o *Object) trySet(f Flags) bool {
	for {
		old := o.flags.Load()
		if old&uint32(f) != 0 {
			return false
		}
		if o.flags.CompareAndSwap(old, old|uint32(f)) {
			return true
		}
	}
}

// tryClear clears f and reports true only if all its bits were set before.
func (o *Object) tryClear(f Flags) bool {
	for {
		old := o.flags.Load()
		if old&uint32(f) != uint32(f) {
			return false
		}
		if o.flags.CompareAndSwap(old, old&^uint32(f)) {
			return true
		}
	}
}

func sizeOf(v any) uintptr {
	t := reflect.TypeOf(v)
	if t == nil {
		return 0
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Size()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

package object

import (
	"fmt"

	"github.com/yndnr/sod-go/pkg/cmap"
)

// Cache is a keyed collection of objects that owns its entries.
//
// Delete moves the entry out: once removed, the caller holds the only
// reference the runtime knows about.
type Cache[T Entry] struct {
	items *cmap.Map[ID, T]
}

// NewCache creates an empty cache.
func NewCache[T Entry]() *Cache[T] {
	return &Cache[T]{items: cmap.New[ID, T]()}
}

// Add registers v under its identifier and returns the stored value.
func (c *Cache[T]) Add(v T) (T, error) {
	var zero T
	if isNil(v) {
		return zero, ErrNilObject
	}
	id := v.Header().ID()
	if _, existed := c.items.GetOrSet(id, v); existed {
		return zero, fmt.Errorf("%w: %v", ErrDuplicateID, id)
	}
	return v, nil
}

// Get returns the entry registered under id.
func (c *Cache[T]) Get(id ID) (T, error) {
	v, ok := c.items.Get(id)
	if !ok {
		return v, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return v, nil
}

// Delete unlinks the entry registered under id and hands it back.
func (c *Cache[T]) Delete(id ID) (T, error) {
	v, ok := c.items.Pop(id)
	if !ok {
		return v, fmt.Errorf("%w: %v", ErrNotFound, id)
	}
	return v, nil
}

// Len returns the number of live entries.
func (c *Cache[T]) Len() int {
	return c.items.Count()
}

// Snapshot returns the entries present at the time of the call.
func (c *Cache[T]) Snapshot() []T {
	return c.items.Values()
}

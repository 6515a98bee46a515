package object

import (
	"errors"
	"sync"
	"testing"
)

type item struct {
	Object
	name string
}

func newItem(id ID, name string) *item {
	it := &item{name: name}
	it.id = id
	return it
}

func TestCache_AddGetDelete(t *testing.T) {
	c := NewCache[*item]()
	a := newItem(1, "a")

	stored, err := c.Add(a)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if stored != a {
		t.Error("Add() should return the stored object")
	}

	got, err := c.Get(1)
	if err != nil || got != a {
		t.Fatalf("Get(1) = (%v, %v), want (a, nil)", got, err)
	}

	removed, err := c.Delete(1)
	if err != nil || removed != a {
		t.Fatalf("Delete(1) = (%v, %v), want (a, nil)", removed, err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if _, err := c.Get(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
	if _, err := c.Delete(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestCache_AddNil(t *testing.T) {
	c := NewCache[*item]()

	var nilItem *item
	if _, err := c.Add(nilItem); !errors.Is(err, ErrNilObject) {
		t.Errorf("Add(nil) error = %v, want ErrNilObject", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_RejectsDuplicateID(t *testing.T) {
	c := NewCache[*item]()
	first := newItem(7, "first")
	second := newItem(7, "second")

	if _, err := c.Add(first); err != nil {
		t.Fatalf("Add(first) error = %v", err)
	}
	if _, err := c.Add(second); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Add(second) error = %v, want ErrDuplicateID", err)
	}

	got, _ := c.Get(7)
	if got.name != "first" {
		t.Errorf("Get(7).name = %q, want first", got.name)
	}
}

func TestCache_GetMissing(t *testing.T) {
	c := NewCache[*item]()
	c.Add(newItem(1, "a"))

	if _, err := c.Get(2); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(2) error = %v, want ErrNotFound", err)
	}
}

func TestCache_ConcurrentAddSameID(t *testing.T) {
	c := NewCache[*item]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	added := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Add(newItem(99, "x")); err == nil {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("successful adds = %d, want 1", added)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_Snapshot(t *testing.T) {
	c := NewCache[*item]()
	for i := ID(1); i <= 5; i++ {
		c.Add(newItem(i, "x"))
	}
	if got := len(c.Snapshot()); got != 5 {
		t.Errorf("len(Snapshot()) = %d, want 5", got)
	}
}

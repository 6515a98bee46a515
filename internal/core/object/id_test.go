package object

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestIDGenerator_StrictlyIncreasing(t *testing.T) {
	mock := clock.NewMock()
	mock.Set(time.UnixMilli(1_700_000_000_000))
	g := NewIDGenerator(mock)

	prev := g.Next()
	for i := 0; i < 1000; i++ {
		if i%100 == 0 {
			mock.Add(time.Millisecond)
		}
		id := g.Next()
		if id <= prev {
			t.Fatalf("Next() = %v after %v, want strictly increasing", id, prev)
		}
		prev = id
	}
}

func TestIDGenerator_NeverZero(t *testing.T) {
	g := NewIDGenerator(clock.NewMock())
	for i := 0; i < 100; i++ {
		if g.Next() == 0 {
			t.Fatal("Next() returned 0")
		}
	}
}

func TestIDGenerator_CarriesTimestamp(t *testing.T) {
	mock := clock.NewMock()
	at := time.UnixMilli(1_700_000_123_456)
	mock.Set(at)
	g := NewIDGenerator(mock)

	id := g.Next()
	if got := uint64(id) >> 16; got != uint64(at.UnixMilli()) {
		t.Errorf("timestamp bits = %d, want %d", got, at.UnixMilli())
	}
}

func TestIDGenerator_Concurrent(t *testing.T) {
	g := NewIDGenerator(nil)
	var mu sync.Mutex
	seen := make(map[ID]bool)
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				id := g.Next()
				mu.Lock()
				if seen[id] {
					mu.Unlock()
					t.Errorf("duplicate id %v", id)
					return
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

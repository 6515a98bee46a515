package object

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Instance is a live object of a threaded class. Concrete instance types
// embed Thread, which supplies both methods.
type Instance interface {
	Entry
	Runtime() *Thread
}

// Thread is the runtime state of one threaded instance: its header, the
// mutex and condition variable used to suspend and resume it, and the
// goroutine that runs the class's Start entry point.
//
// A Thread is zero-value ready for Class.Create and must not be copied.
type Thread struct {
	Object

	mu    sync.Mutex
	cond  *sync.Cond
	woken bool
	state atomic.Int32
	clock clock.Clock

	ctx      context.Context
	cancel   context.CancelFunc
	stopWake func() bool
	done     chan struct{}

	// teardown serializes Destroy so a second caller returns only once
	// the first has finished.
	teardown sync.Mutex
}

// Runtime returns t. Embedding types inherit it to satisfy Instance.
func (t *Thread) Runtime() *Thread { return t }

// State returns the lifecycle state.
func (t *Thread) State() State { return State(t.state.Load()) }

// Context is cancelled when the instance is destroyed. Blocking calls made
// by the worker should observe it.
func (t *Thread) Context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

// Done is closed when the worker goroutine has returned.
func (t *Thread) Done() <-chan struct{} { return t.done }

// Join blocks until the worker goroutine has returned.
func (t *Thread) Join() {
	if t.done != nil {
		<-t.done
	}
}

// Exited reports whether the worker goroutine has returned.
func (t *Thread) Exited() bool {
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *Thread) init(id ID, size uintptr, clk clock.Clock) {
	t.id = id
	t.size = size
	t.clock = clk
	t.cond = sync.NewCond(&t.mu)
	t.woken = false
	t.state.Store(int32(StateCreated))
}

// spawn starts body on a new goroutine with a context derived from parent.
// Cancelling that context wakes any Sleep or Wait in progress.
func (t *Thread) spawn(parent context.Context, body func()) {
	t.ctx, t.cancel = context.WithCancel(parent)
	t.stopWake = context.AfterFunc(t.ctx, t.broadcast)
	t.done = make(chan struct{})
	t.setFlags(FlagThreaded)
	_ = t.transition(StateRunning)

	go func() {
		defer close(t.done)
		body()
	}()
}

// abort cancels the worker, waits for it to return and releases the
// wakeup hook, in the reverse order of spawn.
func (t *Thread) abort() {
	t.cancel()
	<-t.done
	t.stopWake()
	t.clearFlags(FlagThreaded)
}

// unwind tears down a worker that was never registered.
func (t *Thread) unwind() {
	_ = t.transition(StateStopped)
	t.abort()
	_ = t.transition(StateDestroyed)
}

func (t *Thread) broadcast() {
	t.mu.Lock()
	t.cond.Broadcast()
	t.mu.Unlock()
}

func (t *Thread) resume() {
	_ = t.transition(StateRunning)
}

// suspend moves the instance to SLEEPING. An instance that Destroy has
// already stopped blocks until its context is cancelled and reports that
// instead of a lifecycle error.
func (t *Thread) suspend() error {
	ctx := t.Context()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.transition(StateSleeping); err != nil {
		switch t.State() {
		case StateStopped, StateDestroyed:
			<-ctx.Done()
			return ctx.Err()
		}
		return err
	}
	return nil
}

// sleep blocks until a wakeup token is available or the instance is
// cancelled. A Wakeup issued before sleep is entered is not lost.
func (t *Thread) sleep() error {
	if err := t.suspend(); err != nil {
		return err
	}
	defer t.resume()

	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.woken {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		t.cond.Wait()
	}
	t.woken = false
	return nil
}

// wait is sleep bounded by d. It returns nil when woken, ErrWaitTimeout
// when the deadline passes first, and the context error on cancellation.
func (t *Thread) wait(d time.Duration) error {
	if err := t.suspend(); err != nil {
		return err
	}
	defer t.resume()

	deadline := t.clock.Now().Add(d)
	timer := t.clock.AfterFunc(d, t.broadcast)
	defer timer.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.woken {
		if err := t.ctx.Err(); err != nil {
			return err
		}
		if !t.clock.Now().Before(deadline) {
			return ErrWaitTimeout
		}
		t.cond.Wait()
	}
	t.woken = false
	return nil
}

func (t *Thread) wakeup() error {
	switch s := t.State(); s {
	case StateRunning, StateSleeping:
	default:
		return fmt.Errorf("%w: wakeup while %v", ErrInvalidTransition, s)
	}

	t.mu.Lock()
	t.woken = true
	t.cond.Signal()
	t.mu.Unlock()
	return nil
}

package object

import "fmt"

// State is the lifecycle position of a threaded instance.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateSleeping
	StateStopped
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// allowed lists the legal successors of each state. DESTROYED is terminal
// and is only reachable from STOPPED.
var allowed = map[State][]State{
	StateCreated:  {StateRunning, StateStopped},
	StateRunning:  {StateSleeping, StateStopped},
	StateSleeping: {StateRunning, StateStopped},
	StateStopped:  {StateDestroyed},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves t to the target state if the step is legal.
func (t *Thread) transition(to State) error {
	for {
		from := State(t.state.Load())
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, from, to)
		}
		if t.state.CompareAndSwap(int32(from), int32(to)) {
			return nil
		}
	}
}

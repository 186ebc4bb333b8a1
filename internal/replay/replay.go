// Package replay reconstructs entity state by folding an ordered event
// sequence into an initial value. The fold engine is stateless and shared
// across entity types; each entity type supplies its own transition.
package replay

import "shardlog/internal/domain"

// Transition produces the next state from the previous state and one event.
// It must be a pure function: no I/O, no mutation of the event, no reliance
// on anything but its two arguments. Dispatch on the event's Type tag with
// a closed switch so unknown types are handled explicitly.
type Transition[S any] func(S, domain.Event) S

// Replay applies events to initial strictly in the order given and returns
// the final state. The same initial state and event sequence always yield
// the same result; an empty sequence returns initial untouched.
func Replay[S any](initial S, events []domain.Event, fn Transition[S]) S {
	state := initial
	for _, e := range events {
		state = fn(state, e)
	}
	return state
}

// Package statemachine implements a small generic finite state machine.
//
// States and events are any comparable types, typically string-based enums.
// A Machine holds a transition table keyed by [from][event]. Each transition
// may carry guards, which select among candidate transitions, and actions,
// which run in order before the state changes and can veto it by returning
// an error. Observers are notified after every completed change.
//
// Force moves the machine unconditionally. It is meant for convergence
// transitions such as an externally triggered session expiry, where every
// caller must end up in the same terminal state regardless of ordering.
//
// # Usage
//
//	type State string
//	type Event string
//
//	m := statemachine.MustNew[State, Event]("idle",
//	    statemachine.WithTransition[State, Event]("idle", "running", "start"),
//	    statemachine.WithObserver(func(ctx context.Context, from, to State, ev Event) {
//	        log.Info("transition", "from", from, "to", to)
//	    }),
//	)
//
//	if _, err := m.Fire(ctx, "start"); err != nil {
//	    // statemachine.IsNoTransition(err) / statemachine.IsRejected(err)
//	}
package statemachine

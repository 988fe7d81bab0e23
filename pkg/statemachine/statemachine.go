package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Action executes side effects during a transition. Returning an error
// vetoes the transition and leaves the machine in its current state.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E) error

// Guard evaluates whether a transition is allowed under runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E) bool

// Observer is notified after every completed state change.
type Observer[S, E comparable] func(ctx context.Context, from, to S, event E)

// Transition defines a state change triggered by an event.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass
	Actions []Action[S, E] // Executed in order before the state changes
}

// Machine is a thread-safe in-memory finite state machine.
// Transitions are looked up as [from][event][]Transition; the first
// transition whose guards all pass wins.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	initial     S
	current     S
	transitions map[S]map[E][]Transition[S, E]
	observers   []Observer[S, E]
}

// New creates a machine in the given initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{
		initial:     initial,
		current:     initial,
		transitions: make(map[S]map[E][]Transition[S, E]),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics if an option fails to apply.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is currently in state s.
func (m *Machine[S, E]) Is(s S) bool {
	return m.Current() == s
}

// AddTransition registers a transition. Several transitions may share the
// same from/event pair to support guard-based branching.
func (m *Machine[S, E]) AddTransition(from, to S, event E, opts ...TransitionOption[S, E]) {
	cfg := &transitionConfig[S, E]{}
	for _, opt := range opts {
		opt(cfg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[E][]Transition[S, E])
	}
	m.transitions[from][event] = append(m.transitions[from][event], Transition[S, E]{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  cfg.guards,
		Actions: cfg.actions,
	})
}

// Observe registers an observer. Observers run after the lock is released,
// in registration order, so they may query the machine.
func (m *Machine[S, E]) Observe(o Observer[S, E]) {
	if o == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Fire applies event to the current state and returns the resulting state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (S, error) {
	m.mu.Lock()

	from := m.current
	t, err := m.find(ctx, from, event)
	if err != nil {
		m.mu.Unlock()
		return from, err
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event); err != nil {
			m.mu.Unlock()
			return from, fmt.Errorf("%w: %w", ErrActionFailed, err)
		}
	}

	m.current = t.To
	observers := m.observers
	m.mu.Unlock()

	m.notify(ctx, observers, from, t.To, event)
	return t.To, nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.find(ctx, m.current, event)
	return err == nil
}

// Force moves the machine to state to without consulting the transition
// table. Observers are notified only when the state actually changes, so
// repeated forcing of the same terminal state is a no-op.
func (m *Machine[S, E]) Force(ctx context.Context, to S, event E) bool {
	m.mu.Lock()
	from := m.current
	if from == to {
		m.mu.Unlock()
		return false
	}
	m.current = to
	observers := m.observers
	m.mu.Unlock()

	m.notify(ctx, observers, from, to, event)
	return true
}

// Reset returns the machine to its initial state without notifying observers.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func (m *Machine[S, E]) find(ctx context.Context, from S, event E) (*Transition[S, E], error) {
	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return nil, &NoTransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	for i, t := range candidates {
		passed := true
		for _, guard := range t.Guards {
			if !guard(ctx, from, event) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i], nil
		}
	}
	return nil, &RejectedError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
}

func (m *Machine[S, E]) notify(ctx context.Context, observers []Observer[S, E], from, to S, event E) {
	for _, o := range observers {
		o(ctx, from, to, event)
	}
}

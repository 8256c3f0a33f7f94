package statemachine

import (
	"context"
	"errors"
	"sync"
)

// Machine is the in-memory StateMachine implementation. Transitions are
// indexed as [fromState][event] with Any as a fallback source.
type Machine struct {
	mu           sync.RWMutex
	initialState State
	currentState State
	transitions  map[string]map[string][]Transition
	listeners    []Listener
}

func newMachine(initialState State) *Machine {
	return &Machine{
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[string]map[string][]Transition),
	}
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

func (m *Machine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byEvent, ok := m.transitions[from.Name()]
	if !ok {
		byEvent = make(map[string][]Transition)
		m.transitions[from.Name()] = byEvent
	}
	// Several transitions per from/event allow guard-based branching.
	byEvent[event.Name()] = append(byEvent[event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

func (m *Machine) AddListener(l Listener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	from := m.currentState
	t, err := m.match(ctx, from, event, data)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return errors.Join(ErrActionFailed, err)
		}
	}

	m.currentState = t.To
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, from, t.To, event, data)
	}
	return nil
}

func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.match(ctx, m.currentState, event, data)
	return err == nil
}

func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = m.initialState
	return nil
}

// match returns the first transition for event whose guards all pass.
// Transitions from the current state take precedence over Any.
// Callers must hold m.mu.
func (m *Machine) match(ctx context.Context, from State, event Event, data any) (*Transition, error) {
	candidates := m.transitions[from.Name()][event.Name()]
	if len(candidates) == 0 {
		candidates = m.transitions[Any.Name()][event.Name()]
	}
	if len(candidates) == 0 {
		return nil, &TransitionError{State: from.Name(), Event: event.Name(), Err: ErrNoTransitionAvailable}
	}

	for i := range candidates {
		if guardsPass(ctx, candidates[i].Guards, from, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, &TransitionError{State: from.Name(), Event: event.Name(), Err: ErrTransitionRejected}
}

func guardsPass(ctx context.Context, guards []Guard, from State, event Event, data any) bool {
	for _, g := range guards {
		if !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}

package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState      = errors.New("statemachine.invalid_state")
	ErrInvalidTransition = errors.New("statemachine.invalid_transition")
	ErrInvalidEvent      = errors.New("statemachine.invalid_event")

	// ErrNoTransitionAvailable means no transition is defined for the state/event pair.
	ErrNoTransitionAvailable = errors.New("statemachine.no_transition_available")
	// ErrTransitionRejected means transitions exist but every one was vetoed by a guard.
	ErrTransitionRejected = errors.New("statemachine.transition_rejected")
	// ErrActionFailed wraps the error of an action that aborted a transition.
	ErrActionFailed = errors.New("statemachine.action_failed")
)

// TransitionError reports why an event could not be fired in a state.
// It unwraps to ErrNoTransitionAvailable or ErrTransitionRejected.
type TransitionError struct {
	State string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: state %q, event %q", e.Err, e.State, e.Event)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

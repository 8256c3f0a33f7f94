// Package statemachine provides a small finite state machine with guards,
// actions, wildcard source states and post-commit listeners.
//
// States and events are anything with a Name method; StringState and
// StringEvent cover the common case. Transitions are looked up by the current
// state first and then by Any, so "from every state" transitions such as
// login and logout need a single registration.
//
//	const (
//		Idle    = statemachine.StringState("idle")
//		Running = statemachine.StringState("running")
//		Start   = statemachine.StringEvent("start")
//		Reset   = statemachine.StringEvent("reset")
//	)
//
//	m := statemachine.MustNew(Idle,
//		statemachine.WithTransition(Idle, Running, Start),
//		statemachine.WithTransition(statemachine.Any, Idle, Reset),
//		statemachine.WithListener(func(ctx context.Context, from, to statemachine.State, ev statemachine.Event, _ any) {
//			log.Printf("%s -> %s on %s", from.Name(), to.Name(), ev.Name())
//		}),
//	)
//
// # Ordering
//
// Fire evaluates guards, runs actions, commits the new state, releases the
// lock and then calls listeners in registration order. Listeners may read
// Current but callers that need transitions and listener side effects to be
// atomic with respect to each other must serialize Fire themselves.
//
// # Errors
//
// Fire returns a *TransitionError wrapping ErrNoTransitionAvailable or
// ErrTransitionRejected, or an error wrapping ErrActionFailed; test them with
// errors.Is.
package statemachine

// Package session manages the authentication state of a long-running client.
//
// A Manager has three states. It starts Unauthenticated; Start looks for a
// persisted credential and, if one exists, moves to Validating while a single
// validation request runs in the background. The result moves the session to
// Authenticated or, on rejection or network failure alike, back to
// Unauthenticated with the stored credential cleared. Login and Logout apply
// from any state and never touch the network.
//
//	m, err := session.New(store, v, session.WithObserver(heartbeats))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	m.Start(ctx)
//	state, _ := m.Wait(ctx)
//
// # Ordering
//
// All transitions are serialized. Observers registered with WithObserver run
// synchronously after each transition is committed and before the call that
// caused it returns, so a heartbeat scheduler observing the session never
// outlives the Authenticated state. Subscribe offers the same changes as an
// asynchronous stream for UI and logging consumers.
//
// Each validation carries a generation number. Login, Logout and Close bump
// the generation, so a result that arrives after any of them is discarded
// instead of overriding the newer state.
package session

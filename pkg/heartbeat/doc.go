// Package heartbeat keeps the remote authority informed that an
// authenticated client is alive.
//
// A Scheduler sends one heartbeat as soon as it starts and then one per
// interval (60s by default). It implements session.Observer, so registering
// it on a session.Manager binds the schedule to the Authenticated state:
// entering it starts (or restarts) the schedule, leaving it stops the
// schedule before the transition returns.
//
//	hb, _ := heartbeat.NewScheduler(client, heartbeat.WithInterval(time.Minute))
//	defer hb.Close()
//	m, _ := session.New(store, v, session.WithObserver(hb))
//
// Heartbeat failures, including 401 responses, are logged and counted in
// Stats; they never change the session state.
package heartbeat

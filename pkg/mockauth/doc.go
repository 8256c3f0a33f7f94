// Package mockauth is an in-memory stand-in for the remote authority: it
// serves the profile and heartbeat endpoints expected by pkg/backend, accepts
// a configurable set of credentials and records every heartbeat.
//
// Tests mount Handler on an httptest.Server; the `authsession mock-server`
// command serves it for local development.
//
//	auth := mockauth.New(mockauth.WithCredentials("good-token"))
//	srv := httptest.NewServer(auth.Handler())
//	defer srv.Close()
package mockauth

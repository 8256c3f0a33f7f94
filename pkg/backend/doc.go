// Package backend is the HTTP client for the remote authority a client
// session talks to.
//
// Two calls are exposed, both authenticated with the session credential as a
// bearer token (added by an x/oauth2 Transport over a static token source):
//
//   - CheckProfile: GET  <base>/api/auth/profile
//   - SendHeartbeat: POST <base>/api/analytics/heartbeat
//
// A 2xx status is success. Any other status yields *StatusError, which
// matches ErrUnauthorized via errors.Is for 401 and 403. Failures that never
// produced a status (DNS, refused connection, timeout, broken response) wrap
// ErrRequestFailed.
//
//	client, err := backend.New(backend.Config{BaseURL: "https://api.example.com"})
//	if err != nil {
//	    return err
//	}
//	if err := client.CheckProfile(ctx, token); errors.Is(err, backend.ErrUnauthorized) {
//	    // credential no longer accepted
//	}
package backend

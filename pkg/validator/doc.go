// Package validator performs the single authenticated round-trip that decides
// whether a stored credential is still accepted by the remote authority.
//
// Validate returns nil for Accepted (a 2xx answer), an error wrapping
// ErrRejected for any other status, and an error wrapping ErrNetwork when the
// request could not complete: transport failures, timeouts and cancellation.
// Classify turns such an error back into an Outcome.
//
//	v, _ := validator.New(client, validator.WithTimeout(10*time.Second))
//	switch validator.Classify(v.Validate(ctx, cred)) {
//	case validator.Accepted:
//	case validator.Rejected, validator.NetworkError:
//		// callers treat both as "not authenticated"
//	}
package validator

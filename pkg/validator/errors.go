package validator

import "errors"

var (
	// ErrRejected means the authority answered and refused the credential
	ErrRejected = errors.New("validator.rejected")

	// ErrNetwork means no trustworthy answer was obtained: transport failure,
	// timeout, or an unexpected status
	ErrNetwork = errors.New("validator.network_error")

	// ErrNilChecker is returned by New when no profile checker is supplied
	ErrNilChecker = errors.New("validator.nil_checker")
)

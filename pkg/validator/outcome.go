package validator

import (
	"errors"

	"github.com/dmitrymomot/authsession/pkg/backend"
)

// Outcome is the classification of a single validation round-trip.
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
	NetworkError
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case NetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by Validate (or by a backend call) to an
// Outcome. Any non-success HTTP status is Rejected; an error without a
// status means the request did not complete and is a NetworkError.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Accepted
	case errors.Is(err, ErrRejected), errors.Is(err, backend.ErrUnauthorized), answered(err):
		return Rejected
	default:
		return NetworkError
	}
}

// answered reports whether err carries a response status from the authority.
func answered(err error) bool {
	var se *backend.StatusError
	return errors.As(err, &se)
}

package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/authsession/pkg/logger"
	"github.com/dmitrymomot/authsession/pkg/statemachine"
)

// State is the authentication status of the client session.
type State string

const (
	// Unauthenticated means no accepted credential is held.
	Unauthenticated State = "unauthenticated"
	// Validating means a stored credential was found and is being checked.
	Validating State = "validating"
	// Authenticated means a credential is held and was accepted or just issued.
	Authenticated State = "authenticated"
)

// Name implements statemachine.State.
func (s State) Name() string { return string(s) }

func (s State) String() string { return string(s) }

// Transition triggers.
const (
	EventCredentialFound    = statemachine.StringEvent("credential_found")
	EventValidationAccepted = statemachine.StringEvent("validation_accepted")
	EventValidationFailed   = statemachine.StringEvent("validation_failed")
	EventLogin              = statemachine.StringEvent("login")
	EventLogout             = statemachine.StringEvent("logout")
)

// Change describes one committed state transition.
type Change struct {
	From  State
	To    State
	Event string
	// Credential held after the transition; empty when To is Unauthenticated.
	Credential string
	// Attempt is the validation generation current at the transition.
	Attempt uint64
	At      time.Time
}

// LogValue keeps the credential out of logs.
func (c Change) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("from", c.From.String()),
		slog.String("to", c.To.String()),
		slog.String("event", c.Event),
		slog.Uint64("attempt", c.Attempt),
	}
	if c.Credential != "" {
		attrs = append(attrs, logger.Credential(c.Credential))
	}
	return slog.GroupValue(attrs...)
}

package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// State records a session state under the key "state".
func State(name string) slog.Attr {
	return slog.String("state", name)
}

// Transition records a state change as "from" and "to" inside a "transition" group.
func Transition(from, to string) slog.Attr {
	return Group("transition", slog.String("from", from), slog.String("to", to))
}

// Attempt records a validation attempt id under the key "attempt".
func Attempt(id uint64) slog.Attr {
	return slog.Uint64("attempt", id)
}

// StatusCode records an HTTP status code under the key "status_code".
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Outcome records a validation or delivery outcome under the key "outcome".
func Outcome(name string) slog.Attr {
	return slog.String("outcome", name)
}

// Credential records a short, irreversible fingerprint of a credential under
// the key "credential". The credential itself is never written to logs.
// An empty credential yields an empty Attr.
func Credential(credential string) slog.Attr {
	if credential == "" {
		return slog.Attr{}
	}
	return slog.String("credential", Fingerprint(credential))
}

// Fingerprint returns the first 12 hex characters of the SHA-256 of s.
func Fingerprint(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:6])
}

package validator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/authsession/pkg/backend"
	"github.com/dmitrymomot/authsession/pkg/logger"
)

// ProfileChecker performs the authenticated profile request.
// *backend.Client satisfies it.
type ProfileChecker interface {
	CheckProfile(ctx context.Context, credential string) error
}

var _ ProfileChecker = (*backend.Client)(nil)

// Validator asks the remote authority whether a credential is still good.
// Each Validate call is exactly one round-trip; there are no retries.
type Validator struct {
	checker ProfileChecker
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithTimeout bounds each round-trip in addition to the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// New creates a Validator on top of checker.
func New(checker ProfileChecker, opts ...Option) (*Validator, error) {
	if checker == nil {
		return nil, ErrNilChecker
	}
	v := &Validator{
		checker: checker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With(logger.Component("validator"))
	return v, nil
}

// Validate returns nil when the credential is accepted, an error wrapping
// ErrRejected when the authority answers with any non-success status, and an
// error wrapping ErrNetwork when the request did not complete. An empty credential is rejected
// without a request.
func (v *Validator) Validate(ctx context.Context, credential string) error {
	if strings.TrimSpace(credential) == "" {
		return ErrRejected
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	start := time.Now()
	err := v.checker.CheckProfile(ctx, credential)
	err = classifyCheck(err)

	v.logger.DebugContext(ctx, "credential validated",
		logger.Credential(credential),
		logger.Outcome(Classify(err).String()),
		logger.Duration(time.Since(start)),
		logger.StatusCode(backend.StatusCodeOf(err)),
	)
	return err
}

func classifyCheck(err error) error {
	if err == nil {
		return nil
	}
	if answered(err) {
		return errors.Join(ErrRejected, err)
	}
	return errors.Join(ErrNetwork, err)
}

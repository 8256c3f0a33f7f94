package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/authsession/pkg/async"
	"github.com/dmitrymomot/authsession/pkg/broadcast"
	"github.com/dmitrymomot/authsession/pkg/credential"
	"github.com/dmitrymomot/authsession/pkg/logger"
	"github.com/dmitrymomot/authsession/pkg/statemachine"
	"github.com/dmitrymomot/authsession/pkg/validator"
)

// Validator decides whether a stored credential is still accepted.
// *validator.Validator satisfies it.
type Validator interface {
	Validate(ctx context.Context, credential string) error
}

var _ Validator = (*validator.Validator)(nil)

// transition is the payload carried through the state machine.
type transition struct {
	credential string
	attempt    uint64
}

// Manager owns the session state: it restores a persisted credential on
// Start, validates it once, and applies Login and Logout.
//
// Transitions are serialized. A validation result is applied only if no
// Login, Logout or Close happened since it was dispatched.
type Manager struct {
	store     credential.Store
	validator Validator
	observers []Observer
	changes   *broadcast.MemoryBroadcaster[Change]
	logger    *slog.Logger
	now       func() time.Time

	validationTimeout time.Duration
	subscriberBuffer  int

	// transMu serializes transitions and the bookkeeping around them.
	transMu          sync.Mutex
	fsm              statemachine.StateMachine
	started          bool
	closed           bool
	cancelValidation context.CancelFunc

	// mu guards the snapshot read by accessors.
	mu         sync.RWMutex
	state      State
	credential string
	attempt    uint64
	settled    chan struct{}
}

// New creates a Manager in the Unauthenticated state. Call Start to restore
// a persisted credential.
func New(store credential.Store, v Validator, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if v == nil {
		return nil, ErrNilValidator
	}

	cfg := DefaultConfig()
	m := &Manager{
		store:             store,
		validator:         v,
		logger:            slog.Default(),
		now:               time.Now,
		validationTimeout: cfg.ValidationTimeout,
		subscriberBuffer:  cfg.SubscriberBuffer,
		state:             Unauthenticated,
		settled:           closedChan(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("session"))
	m.changes = broadcast.NewMemoryBroadcaster[Change](m.subscriberBuffer, broadcast.WithReplayLast())

	fsm, err := statemachine.New(Unauthenticated,
		statemachine.WithTransition(Unauthenticated, Validating, EventCredentialFound),
		statemachine.WithTransition(Validating, Authenticated, EventValidationAccepted),
		statemachine.WithTransition(Validating, Unauthenticated, EventValidationFailed,
			statemachine.WithAction(m.clearStore)),
		statemachine.WithTransition(statemachine.Any, Authenticated, EventLogin,
			statemachine.WithAction(m.saveCredential)),
		statemachine.WithTransition(statemachine.Any, Unauthenticated, EventLogout,
			statemachine.WithAction(m.clearStore)),
		statemachine.WithListener(m.commit),
	)
	if err != nil {
		return nil, err
	}
	m.fsm = fsm
	return m, nil
}

// Start determines the initial state from the credential store. With no
// stored credential the session stays Unauthenticated; otherwise it moves to
// Validating and one validation is dispatched in the background.
//
// Start takes effect once. It is a no-op after Close, after a previous Start,
// and after Login or Logout, and then returns the current state.
func (m *Manager) Start(ctx context.Context) State {
	m.transMu.Lock()
	if m.started || m.closed {
		m.transMu.Unlock()
		return m.State()
	}
	m.started = true

	cred := m.loadCredential(ctx)
	if cred == "" {
		m.transMu.Unlock()
		m.logger.InfoContext(ctx, "no stored credential", logger.State(Unauthenticated.String()))
		return Unauthenticated
	}

	t := transition{credential: cred, attempt: m.nextAttempt()}
	if !m.fire(ctx, EventCredentialFound, t) {
		m.transMu.Unlock()
		return m.State()
	}

	vctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if m.validationTimeout > 0 {
		vctx, cancel = withTimeout(vctx, cancel, m.validationTimeout)
	}
	m.cancelValidation = cancel
	m.transMu.Unlock()

	// Dispatched outside transMu: the result callback may run on this
	// goroutine if validation completes immediately.
	// The attempt id is bound here; a recovered panic yields a zero value.
	async.Async(vctx, t.credential, func(ctx context.Context, cred string) (struct{}, error) {
		return struct{}{}, m.validator.Validate(ctx, cred)
	}).Then(func(_ struct{}, err error) {
		cancel()
		m.settle(context.WithoutCancel(vctx), t.attempt, err)
	})

	return Validating
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated reports whether the state is Authenticated.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// IsValidating reports whether a startup validation is pending.
func (m *Manager) IsValidating() bool {
	return m.State() == Validating
}

// Credential returns the credential held by the session, if any.
func (m *Manager) Credential() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential, m.credential != ""
}

// Login establishes an authenticated session from a freshly issued
// credential. No validation request is made. Any pending validation result
// is discarded. Persistence failures are logged, not returned.
func (m *Manager) Login(ctx context.Context, cred string) error {
	cred = strings.TrimSpace(cred)
	if cred == "" {
		return ErrEmptyCredential
	}

	m.transMu.Lock()
	defer m.transMu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.started = true
	m.invalidatePending()

	m.fire(ctx, EventLogin, transition{credential: cred, attempt: m.nextAttempt()})
	return nil
}

// Logout ends the session from any state and clears the credential store.
// Any pending validation result is discarded.
func (m *Manager) Logout(ctx context.Context) {
	m.transMu.Lock()
	defer m.transMu.Unlock()

	if m.closed {
		return
	}
	m.started = true
	m.invalidatePending()

	m.fire(ctx, EventLogout, transition{attempt: m.nextAttempt()})
}

// Wait blocks until no validation is pending or ctx is done, and returns the
// state at that point. Before Start it returns immediately.
func (m *Manager) Wait(ctx context.Context) (State, error) {
	m.mu.RLock()
	settled := m.settled
	m.mu.RUnlock()

	select {
	case <-settled:
		return m.State(), nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

// Subscribe returns a stream of committed transitions. The most recent
// change, if any, is delivered first. The subscription ends when ctx is
// cancelled, when the subscriber falls behind, or on Close.
func (m *Manager) Subscribe(ctx context.Context) broadcast.Subscriber[Change] {
	return m.changes.Subscribe(ctx)
}

// Close discards any pending validation and ends all subscriptions. The
// state and the store are left as they are. Close is idempotent.
func (m *Manager) Close() error {
	m.transMu.Lock()
	defer m.transMu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.invalidatePending()
	m.nextAttempt()

	m.mu.Lock()
	select {
	case <-m.settled:
	default:
		close(m.settled)
	}
	m.mu.Unlock()

	return m.changes.Close()
}

// settle applies a validation result if it is still current.
func (m *Manager) settle(ctx context.Context, id uint64, err error) {
	m.transMu.Lock()
	defer m.transMu.Unlock()

	outcome := validator.Classify(err)

	m.mu.RLock()
	current, state := m.attempt, m.state
	m.mu.RUnlock()

	if m.closed || id != current || state != Validating {
		m.logger.DebugContext(ctx, "stale validation result discarded",
			logger.Attempt(id),
			logger.Outcome(outcome.String()),
			slog.Uint64("current_attempt", current),
			logger.State(state.String()),
		)
		return
	}

	cred, _ := m.Credential()
	if outcome == validator.Accepted {
		m.fire(ctx, EventValidationAccepted, transition{credential: cred, attempt: id})
		return
	}

	m.logger.WarnContext(ctx, "stored credential not accepted",
		logger.Attempt(id),
		logger.Outcome(outcome.String()),
		logger.Error(err),
	)
	m.fire(ctx, EventValidationFailed, transition{attempt: id})
}

// fire runs one transition. The caller holds transMu.
func (m *Manager) fire(ctx context.Context, event statemachine.Event, t transition) bool {
	if err := m.fsm.Fire(ctx, event, t); err != nil {
		m.logger.ErrorContext(ctx, "session transition failed",
			logger.Event(event.Name()),
			logger.State(m.State().String()),
			logger.Error(err),
		)
		return false
	}
	return true
}

// commit publishes the new state, then notifies observers and subscribers.
// It runs as the state machine listener, inside fire.
func (m *Manager) commit(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) {
	t, _ := data.(transition)
	change := Change{
		From:       State(from.Name()),
		To:         State(to.Name()),
		Event:      event.Name(),
		Credential: t.credential,
		Attempt:    t.attempt,
		At:         m.now(),
	}

	var settled chan struct{}
	m.mu.Lock()
	m.state = change.To
	m.credential = change.Credential
	switch {
	case change.To == Validating && change.From != Validating:
		m.settled = make(chan struct{})
	case change.From == Validating && change.To != Validating:
		settled = m.settled
	}
	m.mu.Unlock()

	// Waiters are released only after observers have seen the change.
	if settled != nil {
		defer close(settled)
	}

	m.logger.InfoContext(ctx, "session state changed",
		logger.Transition(change.From.String(), change.To.String()),
		logger.Event(change.Event),
		logger.Attempt(change.Attempt),
	)

	for _, o := range m.observers {
		o.OnStateChange(ctx, change)
	}
	if err := m.changes.Broadcast(ctx, broadcast.Message[Change]{Data: change}); err != nil {
		m.logger.DebugContext(ctx, "change not broadcast", logger.Error(err))
	}
}

func (m *Manager) loadCredential(ctx context.Context) string {
	cred, err := m.store.Load(ctx)
	switch {
	case err == nil:
		return strings.TrimSpace(cred)
	case errors.Is(err, credential.ErrNotFound):
		return ""
	case errors.Is(err, credential.ErrCorrupted):
		m.logger.WarnContext(ctx, "stored credential is unreadable, clearing", logger.Error(err))
		if err := m.store.Clear(ctx); err != nil {
			m.logger.ErrorContext(ctx, "failed to clear credential store", logger.Error(err))
		}
		return ""
	default:
		m.logger.ErrorContext(ctx, "failed to load stored credential", logger.Error(err))
		return ""
	}
}

func (m *Manager) saveCredential(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, data any) error {
	t, _ := data.(transition)
	if err := m.store.Save(context.WithoutCancel(ctx), t.credential); err != nil {
		m.logger.ErrorContext(ctx, "failed to persist credential", logger.Error(err))
	}
	return nil
}

func (m *Manager) clearStore(ctx context.Context, _, _ statemachine.State, _ statemachine.Event, _ any) error {
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		m.logger.ErrorContext(ctx, "failed to clear credential store", logger.Error(err))
	}
	return nil
}

// nextAttempt bumps the validation generation. The caller holds transMu.
func (m *Manager) nextAttempt() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempt++
	return m.attempt
}

// invalidatePending cancels an in-flight validation request. The caller
// holds transMu; the generation bump that follows makes its result stale.
func (m *Manager) invalidatePending() {
	if m.cancelValidation != nil {
		m.cancelValidation()
		m.cancelValidation = nil
	}
}

func withTimeout(parent context.Context, cancelParent context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		cancel()
		cancelParent()
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

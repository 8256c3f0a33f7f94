package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authsession/pkg/backend"
	"github.com/dmitrymomot/authsession/pkg/credential"
	"github.com/dmitrymomot/authsession/pkg/logger"
	"github.com/dmitrymomot/authsession/pkg/mockauth"
	"github.com/dmitrymomot/authsession/pkg/session"
	"github.com/dmitrymomot/authsession/pkg/validator"
)

// gatedValidator blocks every Validate call until a result is pushed.
type gatedValidator struct {
	calls   atomic.Int32
	results chan error
}

func newGatedValidator() *gatedValidator {
	return &gatedValidator{results: make(chan error, 4)}
}

func (g *gatedValidator) Validate(ctx context.Context, _ string) error {
	g.calls.Add(1)
	select {
	case err := <-g.results:
		return err
	case <-ctx.Done():
		return errors.Join(validator.ErrNetwork, ctx.Err())
	}
}

type staticValidator struct {
	calls atomic.Int32
	err   error
}

func (s *staticValidator) Validate(context.Context, string) error {
	s.calls.Add(1)
	return s.err
}

type panickingValidator struct{}

func (panickingValidator) Validate(context.Context, string) error {
	panic("validator exploded")
}

// recorder captures observer notifications together with the state visible
// at notification time.
type recorder struct {
	mu      sync.Mutex
	changes []session.Change
	seen    []session.State
	m       *session.Manager
}

func (r *recorder) OnStateChange(_ context.Context, c session.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	if r.m != nil {
		r.seen = append(r.seen, r.m.State())
	}
}

func (r *recorder) states() []session.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.State, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.To)
	}
	return out
}

func newManager(t *testing.T, store credential.Store, v session.Validator, opts ...session.Option) (*session.Manager, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]session.Option{
		session.WithLogger(logger.Discard()),
		session.WithObserver(rec),
	}, opts...)
	m, err := session.New(store, v, opts...)
	require.NoError(t, err)
	rec.m = m
	t.Cleanup(func() { _ = m.Close() })
	return m, rec
}

func stored(t *testing.T, cred string) *credential.MemoryStore {
	t.Helper()
	s := credential.NewMemoryStore()
	if cred != "" {
		require.NoError(t, s.Save(context.Background(), cred))
	}
	return s
}

func loaded(t *testing.T, s credential.Store) (string, bool) {
	t.Helper()
	c, err := s.Load(context.Background())
	if errors.Is(err, credential.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return c, true
}

func waitSettled(t *testing.T, m *session.Manager) session.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := m.Wait(ctx)
	require.NoError(t, err)
	return state
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := session.New(nil, &staticValidator{})
	assert.ErrorIs(t, err, session.ErrNilStore)

	_, err = session.New(credential.NewMemoryStore(), nil)
	assert.ErrorIs(t, err, session.ErrNilValidator)

	m, err := session.New(credential.NewMemoryStore(), &staticValidator{})
	require.NoError(t, err)
	assert.Equal(t, session.Unauthenticated, m.State())
	_, ok := m.Credential()
	assert.False(t, ok)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("authenticates without validation", func(t *testing.T) {
		t.Parallel()
		v := &staticValidator{}
		store := stored(t, "")
		m, rec := newManager(t, store, v)

		require.NoError(t, m.Login(ctx, "fresh"))
		assert.Equal(t, session.Authenticated, m.State())
		assert.True(t, m.IsAuthenticated())
		assert.Zero(t, v.calls.Load())

		cred, ok := m.Credential()
		assert.True(t, ok)
		assert.Equal(t, "fresh", cred)

		got, ok := loaded(t, store)
		assert.True(t, ok)
		assert.Equal(t, "fresh", got)

		assert.Equal(t, []session.State{session.Authenticated}, rec.states())
		assert.Equal(t, "login", rec.changes[0].Event)
		assert.Equal(t, "fresh", rec.changes[0].Credential)
	})

	t.Run("empty credential", func(t *testing.T) {
		t.Parallel()
		m, rec := newManager(t, stored(t, ""), &staticValidator{})

		assert.ErrorIs(t, m.Login(ctx, ""), session.ErrEmptyCredential)
		assert.ErrorIs(t, m.Login(ctx, "   "), session.ErrEmptyCredential)
		assert.Equal(t, session.Unauthenticated, m.State())
		assert.Empty(t, rec.states())
	})

	t.Run("login replaces credential", func(t *testing.T) {
		t.Parallel()
		store := stored(t, "")
		m, _ := newManager(t, store, &staticValidator{})

		require.NoError(t, m.Login(ctx, "one"))
		require.NoError(t, m.Login(ctx, "two"))

		cred, _ := m.Credential()
		assert.Equal(t, "two", cred)
		got, _ := loaded(t, store)
		assert.Equal(t, "two", got)
	})

	t.Run("login after close", func(t *testing.T) {
		t.Parallel()
		m, _ := newManager(t, stored(t, ""), &staticValidator{})
		require.NoError(t, m.Close())
		assert.ErrorIs(t, m.Login(ctx, "x"), session.ErrClosed)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("from authenticated", func(t *testing.T) {
		t.Parallel()
		store := stored(t, "")
		m, rec := newManager(t, store, &staticValidator{})

		require.NoError(t, m.Login(ctx, "cred"))
		m.Logout(ctx)

		assert.Equal(t, session.Unauthenticated, m.State())
		_, ok := m.Credential()
		assert.False(t, ok)
		_, ok = loaded(t, store)
		assert.False(t, ok)
		assert.Equal(t, []session.State{session.Authenticated, session.Unauthenticated}, rec.states())
	})

	t.Run("from unauthenticated clears store", func(t *testing.T) {
		t.Parallel()
		store := stored(t, "leftover")
		m, _ := newManager(t, store, &staticValidator{})

		m.Logout(ctx)
		assert.Equal(t, session.Unauthenticated, m.State())
		_, ok := loaded(t, store)
		assert.False(t, ok)
	})
}

func TestStart_NoCredential(t *testing.T) {
	t.Parallel()

	v := &staticValidator{}
	m, rec := newManager(t, stored(t, ""), v)

	assert.Equal(t, session.Unauthenticated, m.Start(context.Background()))
	assert.Equal(t, session.Unauthenticated, waitSettled(t, m))
	assert.Zero(t, v.calls.Load())
	assert.Empty(t, rec.states())
}

func TestStart_Accepted(t *testing.T) {
	t.Parallel()

	v := newGatedValidator()
	store := stored(t, "saved")
	m, rec := newManager(t, store, v)

	assert.Equal(t, session.Validating, m.Start(context.Background()))
	assert.True(t, m.IsValidating())
	cred, ok := m.Credential()
	assert.True(t, ok)
	assert.Equal(t, "saved", cred)

	v.results <- nil
	assert.Equal(t, session.Authenticated, waitSettled(t, m))
	assert.Equal(t, int32(1), v.calls.Load())

	assert.Equal(t, []session.State{session.Validating, session.Authenticated}, rec.states())
	got, ok := loaded(t, store)
	assert.True(t, ok)
	assert.Equal(t, "saved", got)
}

func TestStart_Failed(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		err  error
	}{
		{"rejected", validator.ErrRejected},
		{"network error", errors.Join(validator.ErrNetwork, errors.New("connection refused"))},
		{"unclassified error", errors.New("weird")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := stored(t, "saved")
			m, rec := newManager(t, store, &staticValidator{err: tc.err})

			m.Start(context.Background())
			assert.Equal(t, session.Unauthenticated, waitSettled(t, m))
			assert.Equal(t, []session.State{session.Validating, session.Unauthenticated}, rec.states())

			_, ok := loaded(t, store)
			assert.False(t, ok, "store must be cleared")
			_, ok = m.Credential()
			assert.False(t, ok)
		})
	}
}

func TestStart_ValidatorPanicFailsClosed(t *testing.T) {
	t.Parallel()

	store := stored(t, "saved")
	m, rec := newManager(t, store, panickingValidator{})

	assert.Equal(t, session.Validating, m.Start(context.Background()))
	assert.Equal(t, session.Unauthenticated, waitSettled(t, m))
	assert.Equal(t, []session.State{session.Validating, session.Unauthenticated}, rec.states())

	_, ok := loaded(t, store)
	assert.False(t, ok, "store must be cleared")
}

func TestStart_Once(t *testing.T) {
	t.Parallel()

	v := &staticValidator{}
	m, _ := newManager(t, stored(t, "saved"), v)

	m.Start(context.Background())
	waitSettled(t, m)
	assert.Equal(t, session.Authenticated, m.Start(context.Background()))
	assert.Equal(t, int32(1), v.calls.Load())
}

func TestStart_AfterLoginIsNoop(t *testing.T) {
	t.Parallel()

	v := &staticValidator{}
	m, _ := newManager(t, stored(t, "old"), v)

	require.NoError(t, m.Login(context.Background(), "new"))
	assert.Equal(t, session.Authenticated, m.Start(context.Background()))
	assert.Zero(t, v.calls.Load())
	cred, _ := m.Credential()
	assert.Equal(t, "new", cred)
}

func TestStart_StoreErrors(t *testing.T) {
	t.Parallel()

	t.Run("corrupted value is cleared", func(t *testing.T) {
		t.Parallel()
		inner := credential.NewMemoryStore()
		require.NoError(t, inner.Save(context.Background(), "not-sealed"))
		key := make([]byte, 32)
		sealer := mustSealer(t, key)
		store := credential.NewEncryptedStore(inner, sealer)

		v := &staticValidator{}
		m, _ := newManager(t, store, v)
		assert.Equal(t, session.Unauthenticated, m.Start(context.Background()))
		assert.Zero(t, v.calls.Load())

		_, ok := loaded(t, inner)
		assert.False(t, ok)
	})

	t.Run("read failure is treated as absent", func(t *testing.T) {
		t.Parallel()
		v := &staticValidator{}
		m, _ := newManager(t, failingStore{}, v)
		assert.Equal(t, session.Unauthenticated, m.Start(context.Background()))
		assert.Zero(t, v.calls.Load())
	})
}

type failingStore struct{}

func (failingStore) Save(context.Context, string) error   { return errors.New("disk full") }
func (failingStore) Load(context.Context) (string, error) { return "", errors.New("io error") }
func (failingStore) Clear(context.Context) error          { return errors.New("io error") }

func TestPersistenceFailuresAreNotSurfaced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m, _ := newManager(t, failingStore{}, &staticValidator{})
	require.NoError(t, m.Login(ctx, "cred"))
	assert.Equal(t, session.Authenticated, m.State())
	m.Logout(ctx)
	assert.Equal(t, session.Unauthenticated, m.State())
}

func TestStaleValidationDiscarded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("logout during validation", func(t *testing.T) {
		t.Parallel()
		v := newGatedValidator()
		store := stored(t, "saved")
		m, rec := newManager(t, store, v)

		m.Start(ctx)
		require.Eventually(t, func() bool { return v.calls.Load() == 1 }, time.Second, time.Millisecond)

		m.Logout(ctx)
		assert.Equal(t, session.Unauthenticated, waitSettled(t, m))

		// A late acceptance must not resurrect the session.
		v.results <- nil
		time.Sleep(30 * time.Millisecond)

		assert.Equal(t, session.Unauthenticated, m.State())
		assert.Equal(t, []session.State{session.Validating, session.Unauthenticated}, rec.states())
		_, ok := loaded(t, store)
		assert.False(t, ok)
	})

	t.Run("login during validation", func(t *testing.T) {
		t.Parallel()
		v := newGatedValidator()
		store := stored(t, "saved")
		m, rec := newManager(t, store, v)

		m.Start(ctx)
		require.NoError(t, m.Login(ctx, "fresh"))
		assert.Equal(t, session.Authenticated, waitSettled(t, m))

		// A late rejection must neither log out nor clear the new credential.
		v.results <- validator.ErrRejected
		time.Sleep(30 * time.Millisecond)

		assert.Equal(t, session.Authenticated, m.State())
		assert.Equal(t, []session.State{session.Validating, session.Authenticated}, rec.states())
		got, ok := loaded(t, store)
		assert.True(t, ok)
		assert.Equal(t, "fresh", got)
	})

	t.Run("close during validation", func(t *testing.T) {
		t.Parallel()
		v := newGatedValidator()
		m, rec := newManager(t, stored(t, "saved"), v)

		m.Start(ctx)
		require.NoError(t, m.Close())
		_, err := m.Wait(ctx)
		require.NoError(t, err)

		v.results <- nil
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, session.Validating, m.State())
		assert.Equal(t, []session.State{session.Validating}, rec.states())
	})
}

func TestValidationTimeout(t *testing.T) {
	t.Parallel()

	v := newGatedValidator()
	store := stored(t, "saved")
	m, _ := newManager(t, store, v, session.WithValidationTimeout(20*time.Millisecond))

	m.Start(context.Background())
	assert.Equal(t, session.Unauthenticated, waitSettled(t, m))
	_, ok := loaded(t, store)
	assert.False(t, ok)
}

func TestStartContextCancellationDoesNotFailValidation(t *testing.T) {
	t.Parallel()

	v := newGatedValidator()
	m, _ := newManager(t, stored(t, "saved"), v)

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()

	v.results <- nil
	assert.Equal(t, session.Authenticated, waitSettled(t, m))
}

func TestObserversSeeCommittedState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	v := newGatedValidator()
	m, rec := newManager(t, stored(t, "saved"), v)

	m.Start(ctx)
	v.results <- nil
	waitSettled(t, m)
	m.Logout(ctx)
	require.NoError(t, m.Login(ctx, "again"))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []session.State{
		session.Validating,
		session.Authenticated,
		session.Unauthenticated,
		session.Authenticated,
	}, rec.seen)
	for i, c := range rec.changes {
		if i > 0 {
			assert.Equal(t, rec.changes[i-1].To, c.From)
		}
		assert.Greater(t, c.Attempt, uint64(0))
	}
}

func TestSubscribe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m, _ := newManager(t, stored(t, ""), &staticValidator{})
	sub := m.Subscribe(ctx)

	require.NoError(t, m.Login(ctx, "cred"))
	m.Logout(ctx)

	next := func() session.Change {
		select {
		case msg, ok := <-sub.Receive(ctx):
			require.True(t, ok)
			return msg.Data
		case <-time.After(time.Second):
			t.Fatal("no change received")
			return session.Change{}
		}
	}
	assert.Equal(t, session.Authenticated, next().To)
	assert.Equal(t, session.Unauthenticated, next().To)

	late := m.Subscribe(ctx)
	select {
	case msg := <-late.Receive(ctx):
		assert.Equal(t, session.Unauthenticated, msg.Data.To)
		assert.Equal(t, "logout", msg.Data.Event)
	case <-time.After(time.Second):
		t.Fatal("late subscriber did not get the latest change")
	}

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	_, ok := <-sub.Receive(ctx)
	assert.False(t, ok)
}

func TestWait_ContextDone(t *testing.T) {
	t.Parallel()

	v := newGatedValidator()
	m, _ := newManager(t, stored(t, "saved"), v)
	m.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	state, err := m.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, session.Validating, state)

	v.results <- nil
}

func TestConcurrentLoginLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m, rec := newManager(t, stored(t, "saved"), &staticValidator{})
	m.Start(ctx)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = m.Login(ctx, "cred")
			} else {
				m.Logout(ctx)
			}
		}()
	}
	wg.Wait()
	waitSettled(t, m)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := 1; i < len(rec.changes); i++ {
		assert.Equal(t, rec.changes[i-1].To, rec.changes[i].From, "transitions must be serialized")
	}
	last := rec.changes[len(rec.changes)-1]
	assert.Equal(t, last.To, m.State())
	_, ok := m.Credential()
	assert.Equal(t, last.To == session.Authenticated, ok)
}

func TestAgainstAuthority(t *testing.T) {
	t.Parallel()

	auth := mockauth.New(mockauth.WithCredentials("good"))
	srv := httptest.NewServer(auth.Handler())
	t.Cleanup(srv.Close)

	cfg := backend.DefaultConfig()
	cfg.BaseURL = srv.URL
	client, err := backend.New(cfg)
	require.NoError(t, err)
	v, err := validator.New(client, validator.WithLogger(logger.Discard()))
	require.NoError(t, err)

	t.Run("accepted", func(t *testing.T) {
		m, _ := newManager(t, stored(t, "good"), v)
		m.Start(context.Background())
		assert.Equal(t, session.Authenticated, waitSettled(t, m))
	})

	t.Run("rejected", func(t *testing.T) {
		store := stored(t, "revoked")
		m, _ := newManager(t, store, v)
		m.Start(context.Background())
		assert.Equal(t, session.Unauthenticated, waitSettled(t, m))
		_, ok := loaded(t, store)
		assert.False(t, ok)
	})

	t.Run("server error fails closed", func(t *testing.T) {
		auth.SetProfileStatus(http.StatusInternalServerError)
		t.Cleanup(func() { auth.SetProfileStatus(0) })

		m, _ := newManager(t, stored(t, "good"), v)
		m.Start(context.Background())
		assert.Equal(t, session.Unauthenticated, waitSettled(t, m))
	})
}

package mockauth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/authsession/pkg/backend"
	"github.com/dmitrymomot/authsession/pkg/logger"
	"github.com/dmitrymomot/authsession/pkg/requestid"
)

// Heartbeat is one liveness signal received by the Server.
type Heartbeat struct {
	Credential string
	ClientID   string
	RequestID  string
	SentAt     time.Time
	ReceivedAt time.Time
	Accepted   bool
}

// Server is an in-memory remote authority. It accepts the credentials it was
// told about and records every heartbeat.
type Server struct {
	mu              sync.Mutex
	valid           map[string]struct{}
	profileDelay    time.Duration
	profileStatus   int
	heartbeatStatus int
	heartbeats      []Heartbeat

	profileCalls atomic.Int64
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithCredentials pre-registers accepted credentials.
func WithCredentials(credentials ...string) Option {
	return func(s *Server) {
		for _, c := range credentials {
			s.valid[c] = struct{}{}
		}
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty Server.
func New(opts ...Option) *Server {
	s := &Server{
		valid:  make(map[string]struct{}),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow marks credentials as accepted.
func (s *Server) Allow(credentials ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range credentials {
		s.valid[c] = struct{}{}
	}
}

// Revoke stops accepting a credential.
func (s *Server) Revoke(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.valid, credential)
}

// SetProfileDelay makes the profile endpoint wait before answering.
func (s *Server) SetProfileDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileDelay = d
}

// SetProfileStatus forces the profile endpoint to answer with code.
// Zero restores credential-based answers.
func (s *Server) SetProfileStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileStatus = code
}

// SetHeartbeatStatus forces the heartbeat endpoint to answer with code.
// Zero restores credential-based answers.
func (s *Server) SetHeartbeatStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeatStatus = code
}

// ProfileCalls returns how many profile requests were received.
func (s *Server) ProfileCalls() int {
	return int(s.profileCalls.Load())
}

// Heartbeats returns a copy of every heartbeat received so far.
func (s *Server) Heartbeats() []Heartbeat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Heartbeat, len(s.heartbeats))
	copy(out, s.heartbeats)
	return out
}

// HeartbeatCount returns how many heartbeats were received.
func (s *Server) HeartbeatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heartbeats)
}

// Handler returns the chi router serving the authority endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get(backend.ProfilePath, s.profile)
	r.Post(backend.HeartbeatPath, s.heartbeat)

	return r
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	s.profileCalls.Add(1)
	credential := bearer(r)

	s.mu.Lock()
	delay := s.profileDelay
	forced := s.profileStatus
	_, ok := s.valid[credential]
	s.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-r.Context().Done():
			t.Stop()
			return
		case <-t.C:
		}
	}

	status := http.StatusUnauthorized
	if ok {
		status = http.StatusOK
	}
	if forced != 0 {
		status = forced
	}

	s.logger.DebugContext(r.Context(), "profile request",
		logger.Credential(credential),
		logger.StatusCode(status),
	)

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": logger.Fingerprint(credential)})
}

func (s *Server) heartbeat(w http.ResponseWriter, r *http.Request) {
	credential := bearer(r)

	var payload struct {
		ClientID string    `json:"client_id"`
		SentAt   time.Time `json:"sent_at"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	s.mu.Lock()
	_, ok := s.valid[credential]
	status := http.StatusUnauthorized
	if ok {
		status = http.StatusNoContent
	}
	if s.heartbeatStatus != 0 {
		status = s.heartbeatStatus
	}
	s.heartbeats = append(s.heartbeats, Heartbeat{
		Credential: credential,
		ClientID:   payload.ClientID,
		RequestID:  requestid.FromContext(r.Context()),
		SentAt:     payload.SentAt,
		ReceivedAt: time.Now(),
		Accepted:   status >= 200 && status < 300,
	})
	s.mu.Unlock()

	s.logger.DebugContext(r.Context(), "heartbeat received",
		logger.Credential(credential),
		logger.StatusCode(status),
		slog.String("client_id", payload.ClientID),
	)

	w.WriteHeader(status)
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

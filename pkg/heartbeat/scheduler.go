package heartbeat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/authsession/pkg/logger"
	"github.com/dmitrymomot/authsession/pkg/requestid"
	"github.com/dmitrymomot/authsession/pkg/session"
)

// Sender delivers one heartbeat. *backend.Client satisfies it.
type Sender interface {
	SendHeartbeat(ctx context.Context, credential string) error
}

// Stats counts heartbeats since the Scheduler was created.
type Stats struct {
	// Dispatched heartbeats, counted when the send is started.
	Dispatched uint64
	Sent       uint64
	Failed     uint64
}

// Scheduler sends a heartbeat immediately on Start and then once per
// interval, until Stop. At most one schedule is live at any time.
//
// Sends run on their own goroutines with a timeout so a slow request never
// delays the schedule. Failures are logged and counted, nothing else.
type Scheduler struct {
	sender      Sender
	interval    time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger
	hooks       []func(Result)

	mu       sync.Mutex
	cancel   context.CancelFunc
	loopDone chan struct{}
	closed   bool
	sends    sync.WaitGroup

	dispatched atomic.Uint64
	sent       atomic.Uint64
	failed     atomic.Uint64
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(sender Sender, opts ...Option) (*Scheduler, error) {
	if sender == nil {
		return nil, ErrNilSender
	}

	cfg := DefaultConfig()
	s := &Scheduler{
		sender:      sender,
		interval:    cfg.Interval,
		sendTimeout: cfg.SendTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("heartbeat"))
	return s, nil
}

// Start begins a schedule for credential, replacing any running one.
// It does nothing after Close.
func (s *Scheduler) Start(credential string) {
	s.start(context.Background(), credential)
}

func (s *Scheduler) start(ctx context.Context, credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || credential == "" {
		return
	}
	s.stopLocked()

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.cancel, s.loopDone = cancel, done

	s.logger.DebugContext(ctx, "heartbeat schedule started",
		logger.Credential(credential),
		logger.Duration(s.interval),
	)
	go s.loop(loopCtx, done, credential)
}

// Stop cancels the running schedule and waits for its loop to exit. No
// heartbeat is dispatched after Stop returns; sends already in flight may
// still complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.loopDone
	s.cancel, s.loopDone = nil, nil
	s.logger.Debug("heartbeat schedule stopped")
}

// Running reports whether a schedule is live.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stats returns the heartbeat counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Sent:       s.sent.Load(),
		Failed:     s.failed.Load(),
	}
}

// Close stops the schedule, waits for in-flight sends and disables Start.
// It is idempotent.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()

	s.sends.Wait()
	return nil
}

// OnStateChange implements session.Observer: entering Authenticated starts
// a schedule for the session credential, any other state stops it.
func (s *Scheduler) OnStateChange(ctx context.Context, c session.Change) {
	if c.To == session.Authenticated {
		s.start(ctx, c.Credential)
		return
	}
	s.Stop()
}

func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}, credential string) {
	defer close(done)

	if ctx.Err() != nil {
		return
	}
	s.dispatch(ctx, credential)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick and a cancellation may be ready together.
			if ctx.Err() != nil {
				return
			}
			s.dispatch(ctx, credential)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, credential string) {
	s.dispatched.Add(1)
	s.sends.Add(1)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
	// Each beat gets its own request id.
	sendCtx = requestid.WithContext(sendCtx, requestid.New())
	go func() {
		defer s.sends.Done()
		defer cancel()

		start := time.Now()
		err := s.sender.SendHeartbeat(sendCtx, credential)
		res := Result{Duration: time.Since(start), At: start}

		if err != nil {
			res.Err = errors.Join(ErrSendFailed, err)
			s.failed.Add(1)
			s.logger.WarnContext(sendCtx, "heartbeat failed",
				logger.Credential(credential),
				logger.Duration(res.Duration),
				logger.Error(err),
			)
		} else {
			s.sent.Add(1)
			s.logger.DebugContext(sendCtx, "heartbeat sent", logger.Duration(res.Duration))
		}

		for _, fn := range s.hooks {
			fn(res)
		}
	}()
}

package formsession

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/aqi-predictor/internal/domain/airquality"
	apperrors "github.com/yanqian/aqi-predictor/pkg/errors"
)

// Config bounds the number and lifetime of sessions.
type Config struct {
	IdleTTL     time.Duration
	MaxSessions int
}

// Session pairs a form with the submit gate that keeps a second submission
// from starting while one is in flight.
type Session struct {
	ID   string
	Form *airquality.Form

	submitting atomic.Bool
	lastSeen   atomic.Int64
}

// TryBeginSubmit claims the submit gate. It fails while the form is loading.
func (s *Session) TryBeginSubmit() bool {
	if s.Form.Loading() {
		return false
	}
	return s.submitting.CompareAndSwap(false, true)
}

// EndSubmit releases the gate claimed by TryBeginSubmit.
func (s *Session) EndSubmit() {
	s.submitting.Store(false)
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Registry owns the live form sessions.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	cfg       Config
	formCfg   airquality.FormConfig
	predictor airquality.Predictor
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg Config, formCfg airquality.FormConfig, predictor airquality.Predictor, logger *slog.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		formCfg:   formCfg,
		predictor: predictor,
		logger:    logger.With("component", "formsession.registry"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create starts a session with an empty form.
func (r *Registry) Create() (*Session, error) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.MaxSessions > 0 && len(r.sessions) >= r.cfg.MaxSessions {
		r.evictLocked(now)
		if len(r.sessions) >= r.cfg.MaxSessions {
			return nil, apperrors.Wrap("capacity", "too many open forms", nil)
		}
	}

	session := &Session{
		ID:   r.newID(),
		Form: airquality.NewForm(r.formCfg, r.predictor, r.logger),
	}
	session.touch(now)
	r.sessions[session.ID] = session
	r.logger.Debug("form session created", "session_id", session.ID)
	return session, nil
}

// Get looks a session up and marks it as recently used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrap("not_found", "form not found", nil)
	}
	session.touch(r.now())
	return session, nil
}

// Delete removes a session and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than the TTL. Loading sessions stay.
func (r *Registry) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictLocked(r.now())
}

func (r *Registry) evictLocked(now time.Time) int {
	if r.cfg.IdleTTL <= 0 {
		return 0
	}
	removed := 0
	for id, session := range r.sessions {
		if session.Form.Loading() || now.Sub(session.idleSince()) <= r.cfg.IdleTTL {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}

// Run evicts idle sessions periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.cfg.IdleTTL <= 0 {
		return
	}
	interval := r.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Evict(); removed > 0 {
				r.logger.Info("idle form sessions evicted", "count", removed)
			}
		}
	}
}

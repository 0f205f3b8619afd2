// Package session keeps per-browser screen state (accounts list snapshot,
// transfer form) in memory, keyed by a cookie.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/bank-demo-web/internal/metrics"
	"github.com/baharkarakas/bank-demo-web/internal/transfer"
	"github.com/baharkarakas/bank-demo-web/internal/views"
	"github.com/baharkarakas/bank-demo-web/internal/worker"
)

const CookieName = "bank_sid"

type Session struct {
	ID       string
	Accounts *views.AccountsView
	Transfer *transfer.Form

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Factory builds the screen state for a new session.
type Factory func(id string) *Session

type Store struct {
	ttl     time.Duration
	factory Factory
	pool    *worker.Pool
	log     *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(ttl time.Duration, factory Factory, pool *worker.Pool, log *slog.Logger) *Store {
	return &Store{
		ttl:      ttl,
		factory:  factory,
		pool:     pool,
		log:      log,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// Get returns the caller's session, creating one and setting the cookie when
// the request carries no live session id.
func (s *Store) Get(w http.ResponseWriter, r *http.Request) *Session {
	now := s.now()
	if c, err := r.Cookie(CookieName); err == nil {
		s.mu.Lock()
		sess, ok := s.sessions[c.Value]
		s.mu.Unlock()
		if ok {
			sess.touch(now)
			return sess
		}
	}

	id := uuid.NewString()
	sess := s.factory(id)
	sess.ID = id
	sess.touch(now)

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Debug("session created", "sid", id)
	return sess
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle longer than the TTL and hands their teardown to
// the worker pool. It returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	var expired []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.idleSince(now) > s.ttl {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	for _, sess := range expired {
		sess := sess
		s.pool.Submit(func() { sess.Transfer.Close() })
	}
	if len(expired) > 0 {
		s.log.Debug("sessions expired", "count", len(expired), "active", n)
	}
	return len(expired)
}

// Close tears down every session. Used on shutdown.
func (s *Store) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = map[string]*Session{}
	s.mu.Unlock()
	for _, sess := range all {
		sess := sess
		s.pool.Submit(func() { sess.Transfer.Close() })
	}
	metrics.ActiveSessions.Set(0)
}

// Janitor sweeps every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

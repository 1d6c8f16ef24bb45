package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/panelvault/coverid/internal/decision"
	"github.com/panelvault/coverid/internal/models"
)

// DefaultTTL is how long an untouched scan session is kept.
const DefaultTTL = 30 * time.Minute

var ErrSessionNotFound = errors.New("scan session not found")

// ScanSession is one scan moving through the decision state machine.
type ScanSession struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	OCRText   string
	Tokens    models.ExtractedTokens
	Query     string
	Reason    string
	Decision  *decision.Session

	mu sync.Mutex
}

// SessionView is a point-in-time copy of a session for clients.
type SessionView struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Tokens    models.ExtractedTokens `json:"tokens"`
	Query     string                 `json:"query,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	decision.View
}

func (s *ScanSession) view() SessionView {
	return SessionView{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Tokens:    s.Tokens,
		Query:     s.Query,
		Reason:    s.Reason,
		View:      s.Decision.View(),
	}
}

// SessionStore keeps scan sessions in memory until they expire.
type SessionStore struct {
	sessions map[string]*ScanSession
	mu       sync.RWMutex
	clock    clockwork.Clock
	ttl      time.Duration
}

// New creates a store. A nil clock uses the wall clock and a non-positive ttl
// uses DefaultTTL.
func New(clock clockwork.Clock, ttl time.Duration) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionStore{
		sessions: make(map[string]*ScanSession),
		clock:    clock,
		ttl:      ttl,
	}
}

// Create stores a new idle session under a fresh ID.
func (s *SessionStore) Create(policy decision.Policy) SessionView {
	now := s.clock.Now()
	session := &ScanSession{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Decision:  decision.NewSession(policy),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session.view()
}

func (s *SessionStore) lookup(id string) (*ScanSession, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(session) {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) expired(session *ScanSession) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.clock.Since(session.UpdatedAt) > s.ttl
}

// Get returns a copy of a live session.
func (s *SessionStore) Get(id string) (SessionView, bool) {
	session, ok := s.lookup(id)
	if !ok {
		return SessionView{}, false
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.view(), true
}

// Update runs fn with exclusive access to the session and refreshes its expiry.
// The returned view reflects the session after fn, even when fn fails.
func (s *SessionStore) Update(id string, fn func(*ScanSession) error) (SessionView, error) {
	session, ok := s.lookup(id)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	err := fn(session)
	session.UpdatedAt = s.clock.Now()
	return session.view(), err
}

// List returns live sessions, newest first.
func (s *SessionStore) List() []SessionView {
	s.mu.RLock()
	sessions := make([]*ScanSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		if s.expired(session) {
			continue
		}
		session.mu.Lock()
		views = append(views, session.view())
		session.mu.Unlock()
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PruneExpired drops expired sessions and returns how many were removed.
func (s *SessionStore) PruneExpired() int {
	s.mu.RLock()
	var stale []string
	for id, session := range s.sessions {
		if s.expired(session) {
			stale = append(stale, id)
		}
	}
	s.mu.RUnlock()

	for _, id := range stale {
		s.Delete(id)
	}
	return len(stale)
}

// RunJanitor prunes expired sessions every interval until ctx is done.
func (s *SessionStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.PruneExpired(); n > 0 {
				log.Debug().Int("pruned", n).Msg("expired scan sessions removed")
			}
		}
	}
}

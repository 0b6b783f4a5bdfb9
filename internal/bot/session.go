package bot

import (
	"sync"
	"time"
)

// State names a position in the conversation state machine.
type State string

const (
	StateIdle                   State = ""
	StateChoosingMarketplace    State = "choosing_marketplace"
	StateEnteringProduct        State = "entering_product"
	StateAnsweringQuestions     State = "answering_questions"
	StateResult                 State = "result"
	StateCompetitorMarketplace  State = "competitor_choosing_marketplace"
	StateEnteringCompetitorText State = "entering_competitor_text"
)

// Session is the ephemeral working memory of one user's conversation.
// It lives only in process memory; a restart drops in-flight conversations,
// which is acceptable because flows are short and re-enterable.
type Session struct {
	State       State
	Marketplace string
	ProductName string
	Details     string
	AIQuestions string
	LastResult  string
}

const sessionPruneThreshold = 1024

type sessionEntry struct {
	sess    Session
	touched time.Time
}

// SessionStore holds conversation sessions keyed by user id, with TTL
// eviction so abandoned flows do not accumulate.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[int64]*sessionEntry
	now      func() time.Time
}

// NewSessionStore builds a store evicting sessions idle longer than ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		sessions: make(map[int64]*sessionEntry),
		now:      time.Now,
	}
}

// Get returns a copy of the user's session, or a zero session when none
// exists or the stored one has expired.
func (s *SessionStore) Get(userID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[userID]
	if !ok || s.now().Sub(e.touched) > s.ttl {
		return Session{}
	}
	return e.sess
}

// Put stores the session and refreshes its TTL.
func (s *SessionStore) Put(userID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &sessionEntry{sess: sess, touched: s.now()}
	if len(s.sessions) > sessionPruneThreshold {
		s.pruneLocked()
	}
}

// Clear drops the user's session, returning the flow to idle.
func (s *SessionStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *SessionStore) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.sessions {
		if e.touched.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// userLocks serializes event handling per user. The transport already
// delivers one user's events in order, but that is an environmental
// assumption; the keyed lock makes the single-writer invariant explicit.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*lockEntry)}
}

// Lock acquires the user's mutex and returns its release func. Entries are
// reference-counted and removed when the last holder releases, so the map
// stays bounded by concurrent users.
func (l *userLocks) Lock(userID int64) func() {
	l.mu.Lock()
	e, ok := l.locks[userID]
	if !ok {
		e = &lockEntry{}
		l.locks[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}

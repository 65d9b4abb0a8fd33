package onboarding

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Answer holds one collected answer: Value for text/select questions,
// Values for multiselect questions.
type Answer struct {
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Session accumulates a user's answers across steps. Never persisted: a
// session is discarded once the final step completes and the profile is
// finalized.
type Session struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Role      string            `json:"role"`
	StepIndex int               `json:"step_index"`
	Answers   map[string]Answer `json:"answers"`
	CreatedAt time.Time         `json:"created_at"`
}

// SessionStore is a thread-safe in-memory session store with TTL expiry
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
}

// NewSessionStore creates a session store; abandoned sessions expire after
// the given TTL.
func NewSessionStore(ttl time.Duration) *SessionStore {
	s := &SessionStore{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
	}
	go s.cleanup()
	return s
}

// Get retrieves a session. Returns false if unknown or expired.
func (s *SessionStore) Get(id uuid.UUID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || time.Since(sess.CreatedAt) > s.ttl {
		return nil, false
	}
	return sess, true
}

// Put stores a session
func (s *SessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Delete removes a session
func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) cleanup() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		for id, sess := range s.sessions {
			if time.Since(sess.CreatedAt) > s.ttl {
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}

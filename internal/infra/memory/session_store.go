package memory

import (
	"context"
	"sync"

	"edubot/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions are stored as deep copies so callers never share mutable state
// with the store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*app.Session),
	}
}

func (s *SessionStore) Load(_ context.Context, userID int64) (*app.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return session.Clone(), nil
}

func (s *SessionStore) Save(_ context.Context, userID int64, session *app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = session.Clone()
	return nil
}

func (s *SessionStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

package agent

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoSessionKey    = errors.New("session id not found in context")
)

type sessionKeyContext struct{}

// WithSessionID routes calls that only carry a context, such as adk runs, to a session.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, id)
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKeyContext{}).(string)
	return id, ok && id != ""
}

// SessionStore keeps sessions in a namespaced cache.
type SessionStore struct {
	mu        sync.Mutex
	core      Cache[*Session]
	namespace string
}

func NewSessionStore(core Cache[*Session]) *SessionStore {
	return &SessionStore{core: core, namespace: "briefbuddy:session"}
}

func (s *SessionStore) key(id string) string {
	return s.namespace + ":" + id
}

func (s *SessionStore) Create(ctx context.Context) (*Session, error) {
	session := NewSession()
	if err := s.core.Set(ctx, s.key(session.ID), session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	session, ok, err := s.core.Get(ctx, s.key(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate returns the session called id, creating it under that id when absent.
func (s *SessionStore) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return s.Create(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok, err := s.core.Get(ctx, s.key(id))
	if err != nil {
		return nil, err
	}
	if ok {
		return session, nil
	}
	session = newSessionWithID(id)
	if err := s.core.Set(ctx, s.key(id), session); err != nil {
		return nil, err
	}
	return session, nil
}

// FromContext resolves the session named by WithSessionID, creating it if needed.
func (s *SessionStore) FromContext(ctx context.Context) (*Session, error) {
	id, ok := SessionIDFromContext(ctx)
	if !ok {
		return nil, ErrNoSessionKey
	}
	return s.GetOrCreate(ctx, id)
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	exists, err := s.core.Exists(ctx, s.key(id))
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	return s.core.Del(ctx, s.key(id))
}

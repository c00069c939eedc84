package store

import (
	"context"
	"sync"

	"github.com/tsmith4014/ccp-quizbot/internal/domain/quizsession"
)

// MemoryStore keeps sessions in a mutex-guarded map. Used in tests and for
// ephemeral single-process deployments; state is lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*quizsession.Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*quizsession.Session)}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*quizsession.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, userID string, s *quizsession.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = s.Clone()
	return nil
}

func (m *MemoryStore) Update(_ context.Context, userID string, fn UpdateFunc) (*quizsession.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}

	updated := s.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	if updated.Finished() {
		delete(m.sessions, userID)
	} else {
		m.sessions[userID] = updated
	}
	return updated.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

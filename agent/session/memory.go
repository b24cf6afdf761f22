package session

import (
	"context"
	"strings"
	"sync"

	contractx "github.com/voxgate/voxgate/agent/contract"
)

// MemoryStore is an in-process Store used by tests and by the demo binary
// when no Redis is configured. TTL expiry is not simulated.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	active   map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		active:   make(map[string]struct{}),
	}
}

func (m *MemoryStore) Load(_ context.Context, conversationID string) (*Session, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, contractx.ErrInvalidConversation
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[conversationID]
	if !ok {
		return nil, contractx.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Activate(_ context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return contractx.ErrInvalidConversation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[conversationID] = struct{}{}
	return nil
}

func (m *MemoryStore) Deactivate(_ context.Context, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return contractx.ErrInvalidConversation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, conversationID)
	return nil
}

func (m *MemoryStore) ListActive(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	return ids, nil
}

package persistence

import (
	"context"
	"sync"

	"github.com/waste3d/cfproxyhub/internal/domain"
)

type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[domain.SessionToken]domain.Session
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[domain.SessionToken]domain.Session)}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.Token] = *session
	return nil
}

// FindByToken returns nil, nil for unknown tokens.
func (r *MemorySessionRepository) FindByToken(ctx context.Context, token domain.SessionToken) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, token domain.SessionToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

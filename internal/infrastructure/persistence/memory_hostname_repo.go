package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/waste3d/cfproxyhub/internal/domain"
)

// MemoryHostnameRepository keeps records in insertion order per tunnel. It is
// used when no database is configured.
type MemoryHostnameRepository struct {
	mu      sync.RWMutex
	records map[domain.TunnelScope][]domain.HostnameRecord
}

func NewMemoryHostnameRepository() *MemoryHostnameRepository {
	return &MemoryHostnameRepository{records: make(map[domain.TunnelScope][]domain.HostnameRecord)}
}

func (r *MemoryHostnameRepository) List(ctx context.Context, scope domain.TunnelScope) ([]domain.HostnameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.records[scope]
	out := make([]domain.HostnameRecord, len(list))
	copy(out, list)
	return out, nil
}

func (r *MemoryHostnameRepository) Insert(ctx context.Context, scope domain.TunnelScope, record domain.HostnameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if indexOf(r.records[scope], record.Hostname) >= 0 {
		return domain.ErrHostnameTaken
	}
	r.records[scope] = append(r.records[scope], record)
	return nil
}

func (r *MemoryHostnameRepository) Replace(ctx context.Context, scope domain.TunnelScope, target string, record domain.HostnameRecord) (domain.HostnameRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.records[scope]
	i := indexOf(list, target)
	if i < 0 {
		return domain.HostnameRecord{}, fmt.Errorf("%w: hostname %s not found in tunnel %s", domain.ErrHostnameNotFound, target, scope.TunnelID)
	}
	if record.Hostname != target && indexOf(list, record.Hostname) >= 0 {
		return domain.HostnameRecord{}, domain.ErrHostnameTaken
	}

	record.CreatedAt = list[i].CreatedAt
	list[i] = record
	return record, nil
}

func (r *MemoryHostnameRepository) Delete(ctx context.Context, scope domain.TunnelScope, hostname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.records[scope]
	i := indexOf(list, hostname)
	if i < 0 {
		return fmt.Errorf("%w: hostname %s not found in tunnel %s", domain.ErrHostnameNotFound, hostname, scope.TunnelID)
	}
	r.records[scope] = append(list[:i:i], list[i+1:]...)
	return nil
}

func indexOf(list []domain.HostnameRecord, hostname string) int {
	for i, rec := range list {
		if rec.Hostname == hostname {
			return i
		}
	}
	return -1
}

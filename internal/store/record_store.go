// Package store keeps the client-side copy of a tunnel's hostname records.
package store

import (
	"sync"

	"github.com/waste3d/cfproxyhub/internal/domain"
)

type ViewState int

const (
	Loading ViewState = iota
	Empty
	Populated
)

func (v ViewState) String() string {
	switch v {
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	}
	return "loading"
}

// RecordStore mirrors the last fetched record list of one tunnel. It is only
// ever replaced as a whole, never patched from local edits.
type RecordStore struct {
	mu      sync.RWMutex
	scope   domain.TunnelScope
	records []domain.HostnameRecord
	view    ViewState
	loaded  bool
}

func NewRecordStore(scope domain.TunnelScope) *RecordStore {
	return &RecordStore{scope: scope, view: Loading}
}

func (s *RecordStore) Scope() domain.TunnelScope {
	return s.scope
}

func (s *RecordStore) BeginLoad() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = Loading
}

// Replace swaps in a freshly fetched list. The last call wins.
func (s *RecordStore) Replace(records []domain.HostnameRecord) {
	cp := make([]domain.HostnameRecord, len(records))
	copy(cp, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = cp
	s.loaded = true
	if len(cp) == 0 {
		s.view = Empty
	} else {
		s.view = Populated
	}
}

// Fail marks a failed fetch. The last known records stay available for
// uniqueness checks while the view shows Empty.
func (s *RecordStore) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = Empty
}

func (s *RecordStore) Records() []domain.HostnameRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]domain.HostnameRecord, len(s.records))
	copy(cp, s.records)
	return cp
}

func (s *RecordStore) Hostnames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.Hostname)
	}
	return names
}

func (s *RecordStore) Contains(hostname string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.Hostname == hostname {
			return true
		}
	}
	return false
}

func (s *RecordStore) Find(hostname string) (domain.HostnameRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.Hostname == hostname {
			return r, true
		}
	}
	return domain.HostnameRecord{}, false
}

func (s *RecordStore) View() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Loaded reports whether any fetch has succeeded yet.
func (s *RecordStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

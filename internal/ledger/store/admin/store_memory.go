package admin

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"

	"custody/pkg/domain"
	"custody/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	members map[domain.Address]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[domain.Address]struct{})}
}

func (s *InMemory) Add(_ context.Context, admin domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[admin]; ok {
		return fmt.Errorf("admin %s: %w", admin.Hex(), sentinel.ErrConflict)
	}
	s.members[admin] = struct{}{}
	return nil
}

func (s *InMemory) Remove(_ context.Context, admin domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[admin]; !ok {
		return fmt.Errorf("admin %s: %w", admin.Hex(), sentinel.ErrNotFound)
	}
	delete(s.members, admin)
	return nil
}

func (s *InMemory) Contains(_ context.Context, admin domain.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[admin]
	return ok, nil
}

// List returns members in byte order.
func (s *InMemory) List(_ context.Context) ([]domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Address, 0, len(s.members))
	for a := range s.members {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.Address) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return out, nil
}

package settings

import (
	"context"
	"sync"

	"custody/internal/ledger/models"
	"custody/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	settings *models.Settings
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Load(_ context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return models.Settings{}, sentinel.ErrNotFound
	}
	return *s.settings, nil
}

func (s *InMemory) Save(_ context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

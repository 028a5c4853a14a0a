package account

import (
	"context"
	"sync"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
)

// InMemory keeps custody records in a map. Records are copied on the way in
// and out so callers never share balances with the store.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[domain.Address]*models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[domain.Address]*models.Account)}
}

// Get returns the record for owner, or the zero record when none exists.
func (s *InMemory) Get(_ context.Context, owner domain.Address) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[owner]; ok {
		return a.Clone(), nil
	}
	return models.NewAccount(owner), nil
}

func (s *InMemory) Save(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Owner] = account.Clone()
	return nil
}

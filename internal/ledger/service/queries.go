package service

import (
	"context"
	"math/big"
	"time"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

const (
	defaultRecentAuditLimit = 50
	maxRecentAuditLimit     = 500
)

// WithAuditTrail enables the audit trail queries.
func WithAuditTrail(trail ports.AuditTrail) Option {
	return func(s *Service) {
		s.auditTrail = trail
	}
}

// Account returns a snapshot of owner's record; unknown owners get the zero
// record.
func (s *Service) Account(ctx context.Context, owner domain.Address) (*models.Account, error) {
	acct, err := s.loadAccount(ctx, owner)
	if err != nil {
		return nil, err
	}
	return acct.Clone(), nil
}

func (s *Service) GetUnlockedBalance(ctx context.Context, owner domain.Address) (*big.Int, error) {
	return s.balance(ctx, owner, func(a *models.Account) *big.Int { return a.Unlocked })
}

func (s *Service) GetWaitedUnlockedBalance(ctx context.Context, owner domain.Address) (*big.Int, error) {
	return s.balance(ctx, owner, func(a *models.Account) *big.Int { return a.WaitedUnlocked })
}

func (s *Service) GetVestedBalance(ctx context.Context, owner domain.Address) (*big.Int, error) {
	return s.balance(ctx, owner, func(a *models.Account) *big.Int { return a.Vested })
}

// GetLockedBalance is always zero; the category is reserved.
func (s *Service) GetLockedBalance(ctx context.Context, owner domain.Address) (*big.Int, error) {
	return s.balance(ctx, owner, func(a *models.Account) *big.Int { return a.Locked })
}

// GetCliffAndDuration returns the parameters of owner's latest vested deposit.
func (s *Service) GetCliffAndDuration(ctx context.Context, owner domain.Address) (cliff, duration time.Duration, err error) {
	acct, err := s.loadAccount(ctx, owner)
	if err != nil {
		return 0, 0, err
	}
	return acct.Cliff, acct.Duration, nil
}

func (s *Service) balance(ctx context.Context, owner domain.Address, pick func(*models.Account) *big.Int) (*big.Int, error) {
	acct, err := s.loadAccount(ctx, owner)
	if err != nil {
		return nil, err
	}
	return domain.CopyAmount(pick(acct)), nil
}

// AuditTrail returns the events whose subject is principal, oldest first.
func (s *Service) AuditTrail(ctx context.Context, principal domain.Address) ([]audit.Event, error) {
	if s.auditTrail == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "audit trail is not enabled")
	}
	events, err := s.auditTrail.ListBySubject(ctx, principal.Hex())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}

// RecentAudit returns the most recent events across all subjects, newest
// first. limit is clamped to a sane range.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	if s.auditTrail == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "audit trail is not enabled")
	}
	if limit <= 0 {
		limit = defaultRecentAuditLimit
	}
	limit = min(limit, maxRecentAuditLimit)
	events, err := s.auditTrail.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}

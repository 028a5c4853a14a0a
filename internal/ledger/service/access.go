package service

import (
	"context"
	"errors"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
	"custody/pkg/platform/sentinel"
)

// AddAdmin grants admin rights to principal.
func (s *Service) AddAdmin(ctx context.Context, principal domain.Address) (err error) {
	ctx, done := s.observe(ctx, "add_admin")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if domain.IsZero(principal) {
		return models.Fail(models.ErrInvalidAddress)
	}
	member, err := s.admins.Contains(ctx, principal)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin membership")
	}
	if member {
		return models.Fail(models.ErrAlreadyAdmin)
	}

	err = s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		if err := s.admins.Add(ctx, principal); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return models.Fail(models.ErrAlreadyAdmin)
			}
			return err
		}
		u.onAbort(func(ctx context.Context) error { return s.admins.Remove(ctx, principal) })
		u.record(event(ctx, audit.EventAdminAdded, principal, nil, nil))
		return nil
	})
	if err != nil {
		return wrapInternal(err, "failed to add admin")
	}
	ports.LogAudit(ctx, s.logger, audit.EventAdminAdded, "admin", principal.Hex())
	return nil
}

// RemoveAdmin revokes admin rights. The last admin may remove itself, which
// leaves the ledger without admins.
func (s *Service) RemoveAdmin(ctx context.Context, principal domain.Address) (err error) {
	ctx, done := s.observe(ctx, "remove_admin")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	member, err := s.admins.Contains(ctx, principal)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin membership")
	}
	if !member {
		return models.Fail(models.ErrNotAdmin)
	}

	err = s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		if err := s.admins.Remove(ctx, principal); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.Fail(models.ErrNotAdmin)
			}
			return err
		}
		u.onAbort(func(ctx context.Context) error { return s.admins.Add(ctx, principal) })
		u.record(event(ctx, audit.EventAdminRemoved, principal, nil, nil))
		return nil
	})
	if err != nil {
		return wrapInternal(err, "failed to remove admin")
	}
	ports.LogAudit(ctx, s.logger, audit.EventAdminRemoved, "admin", principal.Hex())
	return nil
}

// IsAdmin reports admin membership. The null address is never a member.
func (s *Service) IsAdmin(ctx context.Context, principal domain.Address) (bool, error) {
	ok, err := s.admins.Contains(ctx, principal)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin membership")
	}
	return ok, nil
}

// AdminStatus is IsAdmin under the name external tooling queries.
func (s *Service) AdminStatus(ctx context.Context, principal domain.Address) (bool, error) {
	return s.IsAdmin(ctx, principal)
}

// ListAdmins returns the current admin set.
func (s *Service) ListAdmins(ctx context.Context) ([]domain.Address, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list admins")
	}
	return admins, nil
}

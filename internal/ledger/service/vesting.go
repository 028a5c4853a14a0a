package service

import (
	"context"
	"math/big"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/domain"
	"custody/pkg/platform/audit"
)

// CreateVesting resolves the caller's vesting schedule on the configured
// registry, creating it when absent. Balances are not touched. Any caller may
// do this for their own record.
func (s *Service) CreateVesting(ctx context.Context) (handle domain.Address, err error) {
	ctx, done := s.observe(ctx, "create_vesting")
	defer func() { done(err) }()

	caller, err := callerFrom(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.loadAccount(ctx, caller)
	if err != nil {
		return domain.ZeroAddress, err
	}
	handle, err = s.resolveVesting(ctx, acct)
	if err != nil {
		return domain.ZeroAddress, err
	}

	err = s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		u.record(event(ctx, audit.EventVestingCreated, caller, nil, map[string]string{"handle": handle.Hex()}))
		return nil
	})
	if err != nil {
		return domain.ZeroAddress, wrapInternal(err, "failed to record vesting creation")
	}
	ports.LogAudit(ctx, s.logger, audit.EventVestingCreated, "owner", caller.Hex(), "handle", handle.Hex())
	return handle, nil
}

// CreateVestingAndStake resolves the calling admin's vesting schedule and
// moves their whole vested balance into it. The vested balance is zeroed only
// when approval and stake both succeed; otherwise the approval is revoked and
// the ledger is left unchanged.
func (s *Service) CreateVestingAndStake(ctx context.Context) (handle domain.Address, amount *big.Int, err error) {
	ctx, done := s.observe(ctx, "create_vesting_and_stake")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}

	prev, err := s.loadAccount(ctx, caller)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}
	handle, err = s.resolveVesting(ctx, prev)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}

	amount = domain.CopyAmount(prev.Vested)
	next := prev.Clone()
	next.Vested.SetInt64(0)

	err = s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		if err := s.saveAccount(ctx, u, prev, next); err != nil {
			return err
		}
		if err := s.stake(ctx, handle, amount); err != nil {
			return err
		}
		u.settle()
		u.record(event(ctx, audit.EventTokenStaked, caller, amount, map[string]string{"handle": handle.Hex()}))
		return nil
	})
	if err != nil {
		return domain.ZeroAddress, nil, wrapInternal(err, "failed to record stake")
	}

	s.metrics.AddAmount("stake", amount)
	ports.LogAudit(ctx, s.logger, audit.EventTokenStaked,
		"owner", caller.Hex(),
		"handle", handle.Hex(),
		"amount", amount.String(),
	)
	return handle, amount, nil
}

// resolveVesting gets or creates the schedule matching acct's parameters on
// the configured registry.
func (s *Service) resolveVesting(ctx context.Context, acct *models.Account) (domain.Address, error) {
	if !acct.VestingParamsSet() {
		return domain.ZeroAddress, models.Fail(models.ErrVestingParamsNotSet)
	}
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	handle, err := s.registry.GetOrCreateVesting(ctx, settings.VestingRegistry, acct.Owner, acct.Cliff, acct.Duration)
	if err != nil {
		return domain.ZeroAddress, models.FailWith(models.ErrVestingHandoffFailed, err)
	}
	if domain.IsZero(handle) {
		return domain.ZeroAddress, models.FailMsg(models.ErrVestingHandoffFailed, "vesting registry returned a null handle")
	}
	return handle, nil
}

// stake approves handle for amount and asks it to pull the funds. A failed
// stake revokes the approval.
func (s *Service) stake(ctx context.Context, handle domain.Address, amount *big.Int) error {
	if err := s.token.Approve(ctx, handle, amount); err != nil {
		s.metrics.IncHandoffFailure()
		return models.FailWith(models.ErrVestingHandoffFailed, err)
	}
	if err := s.registry.Stake(ctx, handle, amount); err != nil {
		s.metrics.IncHandoffFailure()
		if revokeErr := s.token.Approve(context.WithoutCancel(ctx), handle, new(big.Int)); revokeErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to revoke vesting approval after failed stake",
				"handle", handle.Hex(),
				"error", revokeErr,
			)
		}
		return models.FailWith(models.ErrVestingHandoffFailed, err)
	}
	return nil
}

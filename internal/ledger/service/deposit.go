package service

import (
	"context"
	"math/big"
	"strconv"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/domain"
	"custody/pkg/platform/audit"
)

// DepositVested pulls deposit.Amount from the calling admin and credits it to
// beneficiary, split between the upfront category chosen by the unlock type
// and the vested balance. The beneficiary's cliff and duration are
// overwritten.
func (s *Service) DepositVested(ctx context.Context, beneficiary domain.Address, deposit models.VestedDeposit) (err error) {
	ctx, done := s.observe(ctx, "deposit_vested")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if err := deposit.Validate(); err != nil {
		return err
	}
	if domain.IsZero(beneficiary) {
		return models.Fail(models.ErrInvalidAddress)
	}

	prev, err := s.loadAccount(ctx, beneficiary)
	if err != nil {
		return err
	}
	next := deposit.Apply(prev)

	attrs := map[string]string{
		"cliff_units":    strconv.FormatUint(deposit.CliffUnits, 10),
		"duration_units": strconv.FormatUint(deposit.DurationUnits, 10),
		"basis_points":   strconv.FormatUint(uint64(deposit.BasisPoints), 10),
		"unlock_type":    deposit.UnlockType.String(),
	}
	if err := s.credit(ctx, caller, prev, next, deposit.Amount, audit.EventVestedDeposited, attrs); err != nil {
		return err
	}
	s.metrics.AddAmount("deposit_vested", deposit.Amount)
	ports.LogAudit(ctx, s.logger, audit.EventVestedDeposited,
		"beneficiary", beneficiary.Hex(),
		"amount", deposit.Amount.String(),
		"basis_points", deposit.BasisPoints,
		"unlock_type", deposit.UnlockType.String(),
	)
	return nil
}

// DepositWaitedUnlocked pulls deposit.Amount from the calling admin and
// credits beneficiary's unlocked balance with the upfront share and the
// waited-unlocked balance with the rest.
func (s *Service) DepositWaitedUnlocked(ctx context.Context, beneficiary domain.Address, deposit models.WaitedUnlockedDeposit) (err error) {
	ctx, done := s.observe(ctx, "deposit_waited_unlocked")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if err := deposit.Validate(); err != nil {
		return err
	}
	if domain.IsZero(beneficiary) {
		return models.Fail(models.ErrInvalidAddress)
	}

	prev, err := s.loadAccount(ctx, beneficiary)
	if err != nil {
		return err
	}
	next := deposit.Apply(prev)

	attrs := map[string]string{
		"basis_points": strconv.FormatUint(uint64(deposit.BasisPoints), 10),
	}
	if err := s.credit(ctx, caller, prev, next, deposit.Amount, audit.EventWaitedUnlockedDeposited, attrs); err != nil {
		return err
	}
	s.metrics.AddAmount("deposit_waited", deposit.Amount)
	ports.LogAudit(ctx, s.logger, audit.EventWaitedUnlockedDeposited,
		"beneficiary", beneficiary.Hex(),
		"amount", deposit.Amount.String(),
		"basis_points", deposit.BasisPoints,
	)
	return nil
}

// credit pulls amount from the depositor, then records next. When recording
// fails the pulled funds are sent back.
func (s *Service) credit(ctx context.Context, depositor domain.Address, prev, next *models.Account, amount *big.Int, action audit.AuditEvent, attrs map[string]string) error {
	if err := s.token.TransferIn(ctx, depositor, amount); err != nil {
		return models.FailWith(models.ErrTransferFailed, err)
	}

	err := s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		if err := s.saveAccount(ctx, u, prev, next); err != nil {
			return err
		}
		u.record(event(ctx, action, next.Owner, amount, attrs))
		return nil
	})
	if err == nil {
		return nil
	}

	s.refund(ctx, depositor, amount, err)
	return wrapInternal(err, "failed to record deposit")
}

func (s *Service) refund(ctx context.Context, depositor domain.Address, amount *big.Int, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := s.token.TransferOut(ctx, depositor, amount); err != nil {
		s.metrics.IncRefund("failed")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "deposit refund failed, custody holds unrecorded funds",
				"depositor", depositor.Hex(),
				"amount", amount.String(),
				"cause", cause,
				"error", err,
			)
		}
		return
	}
	s.metrics.IncRefund("ok")
	if s.logger != nil {
		s.logger.WarnContext(ctx, "deposit refunded after failed recording",
			"depositor", depositor.Hex(),
			"amount", amount.String(),
			"cause", cause,
		)
	}
}

package service

import (
	"context"
	"math/big"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/domain"
	"custody/pkg/platform/audit"
	"custody/pkg/requestcontext"
)

// WithdrawWaitedUnlockedBalance releases the caller's whole waited-unlocked
// balance once the global wait threshold has passed. A zero receiver sends
// the funds to the caller. An empty balance still succeeds and is audited.
// It returns the destination and the amount sent.
func (s *Service) WithdrawWaitedUnlockedBalance(ctx context.Context, receiver domain.Address) (dest domain.Address, amount *big.Int, err error) {
	ctx, done := s.observe(ctx, "withdraw_waited_unlocked")
	defer func() { done(err) }()

	caller, err := callerFrom(ctx)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}
	if !settings.WaitElapsed(requestcontext.Now(ctx)) {
		return domain.ZeroAddress, nil, models.Fail(models.ErrWaitNotElapsed)
	}

	prev, err := s.loadAccount(ctx, caller)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}
	amount = domain.CopyAmount(prev.WaitedUnlocked)
	next := prev.Clone()
	next.WaitedUnlocked.SetInt64(0)

	dest = caller
	if !domain.IsZero(receiver) {
		dest = receiver
	}

	err = s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		if err := s.saveAccount(ctx, u, prev, next); err != nil {
			return err
		}
		if err := s.token.TransferOut(ctx, dest, amount); err != nil {
			return models.FailWith(models.ErrTransferFailed, err)
		}
		u.settle()
		u.record(event(ctx, audit.EventWithdrawnWaitedUnlockedBalance, dest, amount,
			map[string]string{"owner": caller.Hex()}))
		return nil
	})
	if err != nil {
		return domain.ZeroAddress, nil, wrapInternal(err, "failed to withdraw waited unlocked balance")
	}

	s.metrics.AddAmount("withdraw", amount)
	ports.LogAudit(ctx, s.logger, audit.EventWithdrawnWaitedUnlockedBalance,
		"owner", caller.Hex(),
		"receiver", dest.Hex(),
		"amount", amount.String(),
	)
	return dest, amount, nil
}

package service

import (
	"context"
	"strconv"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/domain"
	"custody/pkg/platform/audit"
)

// ChangeWaitedTS moves the global wait threshold. It may move backwards.
func (s *Service) ChangeWaitedTS(ctx context.Context, waitedTS uint64) (err error) {
	ctx, done := s.observe(ctx, "change_waited_ts")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if waitedTS == 0 {
		return models.Fail(models.ErrZeroThreshold)
	}

	prev, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}
	next := prev
	next.WaitedTS = waitedTS

	err = s.saveSettings(ctx, prev, next, audit.EventWaitedTSUpdated, caller,
		map[string]string{"waited_ts": strconv.FormatUint(waitedTS, 10)})
	if err != nil {
		return wrapInternal(err, "failed to update wait threshold")
	}
	ports.LogAudit(ctx, s.logger, audit.EventWaitedTSUpdated, "waited_ts", waitedTS)
	return nil
}

// ChangeVestingRegistry points the vesting bridge at a new registry. Existing
// vesting handles are not migrated.
func (s *Service) ChangeVestingRegistry(ctx context.Context, registry domain.Address) (err error) {
	ctx, done := s.observe(ctx, "change_vesting_registry")
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	caller, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}
	if domain.IsZero(registry) {
		return models.FailMsg(models.ErrInvalidAddress, models.MsgInvalidVestingRegistry)
	}

	prev, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}
	next := prev
	next.VestingRegistry = registry

	err = s.saveSettings(ctx, prev, next, audit.EventVestingRegistryUpdated, caller,
		map[string]string{"vesting_registry": registry.Hex()})
	if err != nil {
		return wrapInternal(err, "failed to update vesting registry")
	}
	ports.LogAudit(ctx, s.logger, audit.EventVestingRegistryUpdated, "vesting_registry", registry.Hex())
	return nil
}

// saveSettings persists next and records action. Settings events have no
// principal subject, so they are indexed under the acting admin.
func (s *Service) saveSettings(ctx context.Context, prev, next models.Settings, action audit.AuditEvent, caller domain.Address, attrs map[string]string) error {
	return s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		if err := s.settings.Save(ctx, next); err != nil {
			return err
		}
		u.onAbort(func(ctx context.Context) error { return s.settings.Save(ctx, prev) })
		u.record(event(ctx, action, caller, nil, attrs))
		return nil
	})
}

// Settings returns the current configuration.
func (s *Service) Settings(ctx context.Context) (models.Settings, error) {
	return s.loadSettings(ctx)
}

func (s *Service) GetWaitedTS(ctx context.Context) (uint64, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.WaitedTS, nil
}

func (s *Service) GetToken(ctx context.Context) (domain.Address, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	return settings.Token, nil
}

// GetVestingDetails returns the vesting registry identifier.
func (s *Service) GetVestingDetails(ctx context.Context) (domain.Address, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	return settings.VestingRegistry, nil
}

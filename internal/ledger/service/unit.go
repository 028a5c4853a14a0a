package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
	"custody/pkg/requestcontext"
)

const replayAttempts = 3

// unit collects what one operation changes. Audit events are held back until
// every step, including the irreversible token call, has succeeded. Undo steps
// restore stores that a failed runner does not roll back. Redo steps replay
// the writes when funds already moved but the unit did not commit.
type unit struct {
	undo      []func(ctx context.Context) error
	redo      []func(ctx context.Context) error
	events    []audit.Event
	published int
	settled   bool
}

func (u *unit) onAbort(step func(ctx context.Context) error) {
	u.undo = append(u.undo, step)
}

func (u *unit) onReplay(step func(ctx context.Context) error) {
	u.redo = append(u.redo, step)
}

func (u *unit) record(e audit.Event) {
	u.events = append(u.events, e)
}

// settle marks the point after which tokens have left custody. From here the
// unit must be recorded, never undone.
func (u *unit) settle() {
	u.settled = true
}

func (u *unit) abort(ctx context.Context, logger *slog.Logger) {
	for i := len(u.undo) - 1; i >= 0; i-- {
		if err := u.undo[i](ctx); err != nil && logger != nil {
			logger.ErrorContext(ctx, "failed to restore ledger state after aborted operation", "error", err)
		}
	}
}

// event builds an audit event attributed to the caller in ctx.
func event(ctx context.Context, action audit.AuditEvent, subject domain.Address, amount *big.Int, attrs map[string]string) audit.Event {
	e := audit.Event{
		Action:     string(action),
		Timestamp:  requestcontext.Now(ctx),
		ActorID:    requestcontext.Caller(ctx).Hex(),
		Subject:    subject.Hex(),
		Attributes: attrs,
		RequestID:  requestcontext.RequestID(ctx),
	}
	if amount != nil {
		e.Amount = domain.FormatAmount(amount)
	}
	return e
}

// publish emits the events of u not yet published. A nil publisher disables
// the trail.
func (s *Service) publish(ctx context.Context, u *unit) error {
	if s.auditPublisher == nil {
		u.published = len(u.events)
		return nil
	}
	for ; u.published < len(u.events); u.published++ {
		if err := s.auditPublisher.Emit(ctx, u.events[u.published]); err != nil {
			return err
		}
	}
	return nil
}

// saveAccount writes next, registering the restore of prev and the replay of
// next.
func (s *Service) saveAccount(ctx context.Context, u *unit, prev, next *models.Account) error {
	if err := s.accounts.Save(ctx, next); err != nil {
		return err
	}
	u.onAbort(func(ctx context.Context) error { return s.accounts.Save(ctx, prev) })
	u.onReplay(func(ctx context.Context) error { return s.accounts.Save(ctx, next) })
	return nil
}

// runInTx runs fn as one unit of work and publishes its events last, inside
// the same transaction. A failure before the unit settled is undone; a
// failure after it settled is replayed.
func (s *Service) runInTx(ctx context.Context, fn func(ctx context.Context, u *unit) error) error {
	u := &unit{}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := fn(ctx, u); err != nil {
			return err
		}
		return s.publish(ctx, u)
	})
	if err == nil {
		return nil
	}
	if u.settled {
		return s.replay(ctx, u, err)
	}
	if !s.rollsBack {
		u.abort(context.WithoutCancel(ctx), s.logger)
	}
	return err
}

// replay records a unit whose tokens already moved but whose bookkeeping was
// lost, so the ledger cannot hand out the same balance twice.
func (s *Service) replay(ctx context.Context, u *unit, cause error) error {
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 0; attempt < replayAttempts; attempt++ {
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if s.rollsBack {
				u.published = 0
			}
			for _, step := range u.redo {
				if err := step(ctx); err != nil {
					return err
				}
			}
			return s.publish(ctx, u)
		})
		if err == nil {
			break
		}
	}

	if err != nil {
		s.metrics.IncReconciliation("failed")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "tokens moved but ledger state could not be recorded",
				"cause", cause,
				"error", err,
			)
		}
		return dErrors.Wrap(errors.Join(cause, err), dErrors.CodeInternal, "ledger state out of sync with token")
	}

	s.metrics.IncReconciliation("ok")
	if s.logger != nil {
		s.logger.WarnContext(ctx, "ledger state replayed after failed commit", "cause", cause)
	}
	return nil
}

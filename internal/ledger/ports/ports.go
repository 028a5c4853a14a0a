// Package ports defines the interfaces the ledger service consumes: its own
// stores and the external collaborators (token, vesting registry, audit).
package ports

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
	"custody/pkg/platform/audit"
	"custody/pkg/requestcontext"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks AuditPublisher,AuditTrail,AccountStore,AdminStore,SettingsStore,Token,VestingRegistry

// AuditPublisher emits audit events for every mutating operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditTrail answers audit trail queries.
type AuditTrail interface {
	ListBySubject(ctx context.Context, subject string) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AccountStore persists per-beneficiary custody records.
type AccountStore interface {
	// Get returns the record for owner, or the zero record when none exists.
	Get(ctx context.Context, owner domain.Address) (*models.Account, error)

	// Save upserts the record.
	Save(ctx context.Context, account *models.Account) error
}

// AdminStore persists the admin set.
type AdminStore interface {
	// Add inserts a member. Returns sentinel.ErrConflict if already present.
	Add(ctx context.Context, admin domain.Address) error

	// Remove deletes a member. Returns sentinel.ErrNotFound if absent.
	Remove(ctx context.Context, admin domain.Address) error

	// Contains reports membership.
	Contains(ctx context.Context, admin domain.Address) (bool, error)

	// List returns all members.
	List(ctx context.Context) ([]domain.Address, error)
}

// SettingsStore persists the global configuration singleton.
type SettingsStore interface {
	// Load returns sentinel.ErrNotFound before the first Save.
	Load(ctx context.Context) (models.Settings, error)

	Save(ctx context.Context, settings models.Settings) error
}

// Token moves the managed token in and out of custody.
type Token interface {
	// TransferIn pulls amount from a depositor into custody.
	TransferIn(ctx context.Context, from domain.Address, amount *big.Int) error

	// TransferOut sends amount from custody to a receiver.
	TransferOut(ctx context.Context, to domain.Address, amount *big.Int) error

	// Approve lets spender pull up to amount from custody. Zero revokes.
	Approve(ctx context.Context, spender domain.Address, amount *big.Int) error
}

// VestingRegistry creates vesting schedules and stakes funds into them.
type VestingRegistry interface {
	// GetOrCreateVesting returns the schedule handle for owner on the given
	// registry, creating it when absent.
	GetOrCreateVesting(ctx context.Context, registry, owner domain.Address, cliff, duration time.Duration) (domain.Address, error)

	// Stake makes the handle pull amount from custody using the approval
	// granted beforehand.
	Stake(ctx context.Context, handle domain.Address, amount *big.Int) error
}

// LogAudit is a shared helper for logging audit events across ledger services.
// It logs to the structured logger only; persisted events go through the
// publisher inside the operation's unit of work.
func LogAudit(ctx context.Context, logger *slog.Logger, event audit.AuditEvent, attrs ...any) {
	if logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", string(event), "log_type", "audit")
	logger.InfoContext(ctx, string(event), args...)
}

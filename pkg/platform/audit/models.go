package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers movements of custodied funds.
	// These require tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers changes to who may act and what the ledger trusts:
	// admin membership, the wait threshold, the vesting registry.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers bookkeeping that moves no funds.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// ActorID is the principal that invoked the operation. The zero address
	// marks events emitted during ledger construction.
	ActorID string
	// Subject is the principal the operation acted on (beneficiary, receiver,
	// admin being added). Events are indexed by it.
	Subject string
	// Amount is the token amount moved, in base units, when one applies.
	Amount string
	// Attributes carries operation-specific values such as basis points or
	// the resulting vesting handle.
	Attributes map[string]string
	RequestID  string
}

type AuditEvent string

const (
	// Access control
	EventAdminAdded   AuditEvent = "admin_added"
	EventAdminRemoved AuditEvent = "admin_removed"

	// Configuration
	EventWaitedTSUpdated        AuditEvent = "waited_ts_updated"
	EventVestingRegistryUpdated AuditEvent = "vesting_registry_updated"

	// Deposits and withdrawals
	EventVestedDeposited                AuditEvent = "vested_deposited"
	EventWaitedUnlockedDeposited        AuditEvent = "waited_unlocked_deposited"
	EventWithdrawnWaitedUnlockedBalance AuditEvent = "withdrawn_waited_unlocked_balance"

	// Vesting bridge
	EventVestingCreated AuditEvent = "vesting_created"
	EventTokenStaked    AuditEvent = "token_staked"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventVestedDeposited:                CategoryCompliance,
	EventWaitedUnlockedDeposited:        CategoryCompliance,
	EventWithdrawnWaitedUnlockedBalance: CategoryCompliance,
	EventTokenStaked:                    CategoryCompliance,

	EventAdminAdded:             CategorySecurity,
	EventAdminRemoved:           CategorySecurity,
	EventWaitedTSUpdated:        CategorySecurity,
	EventVestingRegistryUpdated: CategorySecurity,

	EventVestingCreated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events and answers trail queries.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Normalize fills the ID, timestamp and category when they are unset.
func Normalize(event Event, now time.Time) Event {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}
	if event.Category == "" {
		event.Category = AuditEvent(event.Action).Category()
	}
	return event
}

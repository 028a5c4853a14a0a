package handler

import (
	"math/big"
	"time"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
	"custody/pkg/platform/audit"
)

// AdminStatusResponse answers GET /admins/{principal}.
type AdminStatusResponse struct {
	Principal string `json:"principal"`
	IsAdmin   bool   `json:"is_admin"`
}

// AdminListResponse answers GET /admins.
type AdminListResponse struct {
	Admins []string `json:"admins"`
}

// SettingsResponse answers GET /config.
type SettingsResponse struct {
	WaitedTS        uint64 `json:"waited_ts"`
	Token           string `json:"token"`
	VestingRegistry string `json:"vesting_registry"`
}

func FromSettings(s models.Settings) *SettingsResponse {
	return &SettingsResponse{
		WaitedTS:        s.WaitedTS,
		Token:           s.Token.Hex(),
		VestingRegistry: s.VestingRegistry.Hex(),
	}
}

// AccountResponse answers GET /accounts/{address}. Amounts are base-10
// strings; cliff and duration are reported in intervals.
type AccountResponse struct {
	Owner          string `json:"owner"`
	Unlocked       string `json:"unlocked"`
	WaitedUnlocked string `json:"waited_unlocked"`
	Vested         string `json:"vested"`
	Locked         string `json:"locked"`
	CliffUnits     uint64 `json:"cliff_units"`
	DurationUnits  uint64 `json:"duration_units"`
}

func FromAccount(a *models.Account) *AccountResponse {
	return &AccountResponse{
		Owner:          a.Owner.Hex(),
		Unlocked:       domain.FormatAmount(a.Unlocked),
		WaitedUnlocked: domain.FormatAmount(a.WaitedUnlocked),
		Vested:         domain.FormatAmount(a.Vested),
		Locked:         domain.FormatAmount(a.Locked),
		CliffUnits:     models.DurationToUnits(a.Cliff),
		DurationUnits:  models.DurationToUnits(a.Duration),
	}
}

// WithdrawResponse answers POST /withdrawals/waited-unlocked.
type WithdrawResponse struct {
	Receiver string `json:"receiver"`
	Amount   string `json:"amount"`
}

// VestingResponse answers POST /vesting and POST /vesting/stake. Amount is
// only set for stakes.
type VestingResponse struct {
	Handle string `json:"handle"`
	Amount string `json:"amount,omitempty"`
}

func newVestingResponse(handle domain.Address, amount *big.Int) *VestingResponse {
	resp := &VestingResponse{Handle: handle.Hex()}
	if amount != nil {
		resp.Amount = amount.String()
	}
	return resp
}

// AuditEventResponse is one entry of an audit listing.
type AuditEventResponse struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	Category   string            `json:"category"`
	Actor      string            `json:"actor"`
	Subject    string            `json:"subject"`
	Amount     string            `json:"amount,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// AuditListResponse answers the audit endpoints.
type AuditListResponse struct {
	Events []AuditEventResponse `json:"events"`
}

func FromAuditEvents(events []audit.Event) *AuditListResponse {
	resp := &AuditListResponse{Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, AuditEventResponse{
			ID:         e.ID.String(),
			Action:     e.Action,
			Category:   string(e.Category),
			Actor:      e.ActorID,
			Subject:    e.Subject,
			Amount:     e.Amount,
			Attributes: e.Attributes,
			Timestamp:  e.Timestamp,
		})
	}
	return resp
}

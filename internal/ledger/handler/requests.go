package handler

import (
	"math/big"
	"strings"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// AddAdminRequest is the body of POST /admins.
type AddAdminRequest struct {
	Principal string `json:"principal"`

	parsedPrincipal domain.Address
}

func (r *AddAdminRequest) Normalize() {
	r.Principal = strings.TrimSpace(r.Principal)
}

func (r *AddAdminRequest) Validate() error {
	if r.Principal == "" {
		return dErrors.New(dErrors.CodeValidation, "principal is required")
	}
	// The zero address reaches the service so it reports the ledger's own
	// invalid-address error.
	principal, err := domain.ParseOptionalAddress(r.Principal)
	if err != nil {
		return err
	}
	r.parsedPrincipal = principal
	return nil
}

// ChangeWaitedTSRequest is the body of PUT /config/waited-ts.
type ChangeWaitedTSRequest struct {
	WaitedTS uint64 `json:"waited_ts"`
}

// ChangeVestingRegistryRequest is the body of PUT /config/vesting-registry.
type ChangeVestingRegistryRequest struct {
	Registry string `json:"registry"`

	parsedRegistry domain.Address
}

func (r *ChangeVestingRegistryRequest) Normalize() {
	r.Registry = strings.TrimSpace(r.Registry)
}

func (r *ChangeVestingRegistryRequest) Validate() error {
	registry, err := domain.ParseOptionalAddress(r.Registry)
	if err != nil {
		return err
	}
	r.parsedRegistry = registry
	return nil
}

// VestedDepositRequest is the body of POST /deposits/vested.
type VestedDepositRequest struct {
	Beneficiary   string `json:"beneficiary"`
	Amount        string `json:"amount"`
	CliffUnits    uint64 `json:"cliff_units"`
	DurationUnits uint64 `json:"duration_units"`
	BasisPoints   uint32 `json:"basis_points"`
	UnlockType    uint64 `json:"unlock_type"`

	parsedBeneficiary domain.Address
	parsedAmount      *big.Int
}

func (r *VestedDepositRequest) Normalize() {
	r.Beneficiary = strings.TrimSpace(r.Beneficiary)
	r.Amount = strings.TrimSpace(r.Amount)
}

func (r *VestedDepositRequest) Validate() error {
	beneficiary, amount, err := parseDepositTarget(r.Beneficiary, r.Amount)
	if err != nil {
		return err
	}
	r.parsedBeneficiary = beneficiary
	r.parsedAmount = amount
	return nil
}

// Deposit returns the validated deposit. Parameter checks beyond parsing are
// left to the ledger.
func (r *VestedDepositRequest) Deposit() models.VestedDeposit {
	return models.VestedDeposit{
		Amount:        r.parsedAmount,
		CliffUnits:    r.CliffUnits,
		DurationUnits: r.DurationUnits,
		BasisPoints:   r.BasisPoints,
		UnlockType:    unlockType(r.UnlockType),
	}
}

// unlockType maps the wire selector onto the ledger's. Any unrecognised value
// keeps the whole deposit vested.
func unlockType(v uint64) models.UnlockType {
	switch v {
	case uint64(models.UnlockImmediate):
		return models.UnlockImmediate
	case uint64(models.UnlockWaited):
		return models.UnlockWaited
	default:
		return models.UnlockVestedOnly
	}
}

// WaitedUnlockedDepositRequest is the body of POST /deposits/waited-unlocked.
type WaitedUnlockedDepositRequest struct {
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"`
	BasisPoints uint32 `json:"basis_points"`

	parsedBeneficiary domain.Address
	parsedAmount      *big.Int
}

func (r *WaitedUnlockedDepositRequest) Normalize() {
	r.Beneficiary = strings.TrimSpace(r.Beneficiary)
	r.Amount = strings.TrimSpace(r.Amount)
}

func (r *WaitedUnlockedDepositRequest) Validate() error {
	beneficiary, amount, err := parseDepositTarget(r.Beneficiary, r.Amount)
	if err != nil {
		return err
	}
	r.parsedBeneficiary = beneficiary
	r.parsedAmount = amount
	return nil
}

func (r *WaitedUnlockedDepositRequest) Deposit() models.WaitedUnlockedDeposit {
	return models.WaitedUnlockedDeposit{
		Amount:      r.parsedAmount,
		BasisPoints: r.BasisPoints,
	}
}

// WithdrawRequest is the body of POST /withdrawals/waited-unlocked. An empty
// receiver withdraws to the caller.
type WithdrawRequest struct {
	Receiver string `json:"receiver"`

	parsedReceiver domain.Address
}

func (r *WithdrawRequest) Normalize() {
	r.Receiver = strings.TrimSpace(r.Receiver)
}

func (r *WithdrawRequest) Validate() error {
	receiver, err := domain.ParseOptionalAddress(r.Receiver)
	if err != nil {
		return err
	}
	r.parsedReceiver = receiver
	return nil
}

func parseDepositTarget(beneficiary, amount string) (domain.Address, *big.Int, error) {
	if beneficiary == "" {
		return domain.ZeroAddress, nil, dErrors.New(dErrors.CodeValidation, "beneficiary is required")
	}
	addr, err := domain.ParseOptionalAddress(beneficiary)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}
	value, err := domain.ParseAmount(amount)
	if err != nil {
		return domain.ZeroAddress, nil, err
	}
	return addr, value, nil
}

package models

import (
	"math/big"
	"time"

	"custody/pkg/domain"
)

// Account is one beneficiary's custody record. Records are created lazily on
// first access and never destroyed; an all-zero record is indistinguishable
// from an absent one.
type Account struct {
	Owner          domain.Address
	Unlocked       *big.Int
	WaitedUnlocked *big.Int
	Vested         *big.Int
	// Locked is reserved and always zero.
	Locked *big.Int
	// Cliff and Duration are overwritten by each vested deposit.
	Cliff    time.Duration
	Duration time.Duration
}

// NewAccount returns the zero record for owner.
func NewAccount(owner domain.Address) *Account {
	return &Account{
		Owner:          owner,
		Unlocked:       new(big.Int),
		WaitedUnlocked: new(big.Int),
		Vested:         new(big.Int),
		Locked:         new(big.Int),
	}
}

// Clone returns a deep copy so callers can compute a new state without
// touching the stored one.
func (a *Account) Clone() *Account {
	return &Account{
		Owner:          a.Owner,
		Unlocked:       domain.CopyAmount(a.Unlocked),
		WaitedUnlocked: domain.CopyAmount(a.WaitedUnlocked),
		Vested:         domain.CopyAmount(a.Vested),
		Locked:         domain.CopyAmount(a.Locked),
		Cliff:          a.Cliff,
		Duration:       a.Duration,
	}
}

// Total is the sum of the four category balances.
func (a *Account) Total() *big.Int {
	t := domain.CopyAmount(a.Unlocked)
	t.Add(t, domain.CopyAmount(a.WaitedUnlocked))
	t.Add(t, domain.CopyAmount(a.Vested))
	t.Add(t, domain.CopyAmount(a.Locked))
	return t
}

// IsEmpty reports whether every balance and parameter is zero.
func (a *Account) IsEmpty() bool {
	return a.Total().Sign() == 0 && a.Cliff == 0 && a.Duration == 0
}

// VestingParamsSet reports whether both cliff and duration are non-zero.
func (a *Account) VestingParamsSet() bool {
	return a.Cliff != 0 && a.Duration != 0
}

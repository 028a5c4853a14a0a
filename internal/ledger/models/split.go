package models

import (
	"math"
	"math/big"
	"time"
)

const (
	// Interval is the unit for cliff and duration counts.
	Interval = 4 * 7 * 24 * time.Hour

	// BasisPointDenominator is the fixed-point scale for upfront shares.
	BasisPointDenominator = 10000

	// MaxIntervals bounds duration counts; durations must be strictly below it.
	MaxIntervals = 37
)

var bpDenominator = big.NewInt(BasisPointDenominator)

// UnlockType selects where the upfront share of a vested deposit lands.
type UnlockType uint8

const (
	UnlockVestedOnly UnlockType = 0
	UnlockImmediate  UnlockType = 1
	UnlockWaited     UnlockType = 2
)

// String returns the string representation.
func (t UnlockType) String() string {
	switch t {
	case UnlockImmediate:
		return "immediate"
	case UnlockWaited:
		return "waited"
	default:
		return "vested"
	}
}

// Split divides amount into floor(amount*bp/10000) and the remainder.
// upfront + remainder == amount for every non-negative amount.
func Split(amount *big.Int, basisPoints uint32) (upfront, remainder *big.Int) {
	upfront = new(big.Int).Mul(amount, big.NewInt(int64(basisPoints)))
	upfront.Quo(upfront, bpDenominator)
	remainder = new(big.Int).Sub(amount, upfront)
	return upfront, remainder
}

// VestedDeposit is one admin deposit into a beneficiary's vesting categories.
type VestedDeposit struct {
	Amount        *big.Int
	CliffUnits    uint64
	DurationUnits uint64
	BasisPoints   uint32
	UnlockType    UnlockType
}

// Validate checks the deposit parameters. The checks run in the order the
// ledger reports them: duration, duration bound, basis points.
func (d VestedDeposit) Validate() error {
	if d.DurationUnits == 0 {
		return Fail(ErrZeroDuration)
	}
	if d.DurationUnits >= MaxIntervals {
		return Fail(ErrDurationTooLong)
	}
	if d.BasisPoints >= BasisPointDenominator {
		return Fail(ErrBasisPointTooLarge)
	}
	if d.Amount == nil || d.Amount.Sign() < 0 {
		return Fail(ErrInvalidAmount)
	}
	if _, ok := UnitsToDuration(d.CliffUnits); !ok {
		return Fail(ErrCliffTooLong)
	}
	return nil
}

// Apply returns the account state after the deposit. acct is not modified.
func (d VestedDeposit) Apply(acct *Account) *Account {
	next := acct.Clone()
	upfront, remainder := Split(d.Amount, d.BasisPoints)

	switch d.UnlockType {
	case UnlockImmediate:
		next.Unlocked.Add(next.Unlocked, upfront)
		next.Vested.Add(next.Vested, remainder)
	case UnlockWaited:
		next.WaitedUnlocked.Add(next.WaitedUnlocked, upfront)
		next.Vested.Add(next.Vested, remainder)
	default:
		next.Vested.Add(next.Vested, d.Amount)
	}

	next.Cliff, _ = UnitsToDuration(d.CliffUnits)
	next.Duration, _ = UnitsToDuration(d.DurationUnits)
	return next
}

// WaitedUnlockedDeposit is one admin deposit split between the unlocked and
// waited-unlocked categories.
type WaitedUnlockedDeposit struct {
	Amount      *big.Int
	BasisPoints uint32
}

func (d WaitedUnlockedDeposit) Validate() error {
	if d.BasisPoints >= BasisPointDenominator {
		return Fail(ErrBasisPointTooLarge)
	}
	if d.Amount == nil || d.Amount.Sign() < 0 {
		return Fail(ErrInvalidAmount)
	}
	return nil
}

// Apply returns the account state after the deposit. acct is not modified.
func (d WaitedUnlockedDeposit) Apply(acct *Account) *Account {
	next := acct.Clone()
	upfront, remainder := Split(d.Amount, d.BasisPoints)
	next.Unlocked.Add(next.Unlocked, upfront)
	next.WaitedUnlocked.Add(next.WaitedUnlocked, remainder)
	return next
}

// UnitsToDuration converts an interval count to a duration, reporting false
// when the result does not fit.
func UnitsToDuration(units uint64) (time.Duration, bool) {
	if units > uint64(math.MaxInt64/int64(Interval)) {
		return 0, false
	}
	return time.Duration(units) * Interval, true
}

// DurationToUnits is the inverse of UnitsToDuration.
func DurationToUnits(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / Interval)
}

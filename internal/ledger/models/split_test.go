package models

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custody/pkg/domain-errors"
)

var beneficiary = common.HexToAddress("0x00000000000000000000000000000000000000b2")

func amt(v int64) *big.Int { return big.NewInt(v) }

// TestSplit_Law validates that the upfront share is floor(amount*bp/10000)
// and that nothing is created or lost by splitting.
//
// Justification: the split is pure arithmetic shared by both deposit kinds.
func TestSplit_Law(t *testing.T) {
	cases := []struct {
		amount  int64
		bp      uint32
		upfront int64
	}{
		{1000, 100, 10},
		{1000, 10, 1},
		{1000, 1, 0},
		{1000, 0, 0},
		{1000, 9999, 999},
		{9999, 3333, 3332},
		{0, 5000, 0},
	}
	for _, tc := range cases {
		upfront, remainder := Split(amt(tc.amount), tc.bp)
		assert.Equal(t, tc.upfront, upfront.Int64(), "amount=%d bp=%d", tc.amount, tc.bp)
		sum := new(big.Int).Add(upfront, remainder)
		assert.Equal(t, tc.amount, sum.Int64(), "upfront + remainder must equal amount")
	}

	t.Run("large amounts do not overflow", func(t *testing.T) {
		huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
		upfront, remainder := Split(huge, 9999)
		sum := new(big.Int).Add(upfront, remainder)
		assert.Equal(t, 0, huge.Cmp(sum))
	})
}

func TestVestedDeposit_Apply(t *testing.T) {
	base := NewAccount(beneficiary)

	t.Run("immediate unlock type credits unlocked", func(t *testing.T) {
		d := VestedDeposit{Amount: amt(1000), CliffUnits: 1, DurationUnits: 20, BasisPoints: 100, UnlockType: UnlockImmediate}
		require.NoError(t, d.Validate())
		next := d.Apply(base)

		assert.Equal(t, int64(10), next.Unlocked.Int64())
		assert.Equal(t, int64(990), next.Vested.Int64())
		assert.Zero(t, next.WaitedUnlocked.Sign())
		assert.Equal(t, Interval, next.Cliff)
		assert.Equal(t, 20*Interval, next.Duration)
	})

	t.Run("waited unlock type credits waited unlocked", func(t *testing.T) {
		d := VestedDeposit{Amount: amt(1000), CliffUnits: 1, DurationUnits: 20, BasisPoints: 100, UnlockType: UnlockWaited}
		next := d.Apply(base)

		assert.Equal(t, int64(10), next.WaitedUnlocked.Int64())
		assert.Equal(t, int64(990), next.Vested.Int64())
		assert.Zero(t, next.Unlocked.Sign())
	})

	t.Run("any other unlock type vests the full amount", func(t *testing.T) {
		for _, ut := range []UnlockType{0, 3, 255} {
			d := VestedDeposit{Amount: amt(1000), CliffUnits: 1, DurationUnits: 20, BasisPoints: 100, UnlockType: ut}
			next := d.Apply(base)

			assert.Equal(t, int64(1000), next.Vested.Int64())
			assert.Zero(t, next.Unlocked.Sign())
			assert.Zero(t, next.WaitedUnlocked.Sign())
		}
	})

	t.Run("does not mutate the input account", func(t *testing.T) {
		d := VestedDeposit{Amount: amt(1000), DurationUnits: 1, BasisPoints: 100, UnlockType: UnlockImmediate}
		_ = d.Apply(base)
		assert.True(t, base.IsEmpty())
	})

	t.Run("cliff and duration are overwritten by each deposit", func(t *testing.T) {
		first := VestedDeposit{Amount: amt(100), CliffUnits: 3, DurationUnits: 30, UnlockType: UnlockVestedOnly}.Apply(base)
		second := VestedDeposit{Amount: amt(100), CliffUnits: 1, DurationUnits: 2, UnlockType: UnlockVestedOnly}.Apply(first)

		assert.Equal(t, Interval, second.Cliff)
		assert.Equal(t, 2*Interval, second.Duration)
		assert.Equal(t, int64(200), second.Vested.Int64())
	})

	t.Run("locked balance stays zero", func(t *testing.T) {
		next := VestedDeposit{Amount: amt(1000), DurationUnits: 1, BasisPoints: 5000, UnlockType: UnlockWaited}.Apply(base)
		assert.Zero(t, next.Locked.Sign())
	})
}

func TestVestedDeposit_Validate(t *testing.T) {
	valid := VestedDeposit{Amount: amt(1000), CliffUnits: 1, DurationUnits: 30, BasisPoints: 100, UnlockType: UnlockImmediate}

	tests := []struct {
		name   string
		mutate func(d *VestedDeposit)
		kind   error
	}{
		{"zero duration", func(d *VestedDeposit) { d.DurationUnits = 0 }, ErrZeroDuration},
		{"duration at the bound", func(d *VestedDeposit) { d.DurationUnits = MaxIntervals }, ErrDurationTooLong},
		{"duration far beyond the bound", func(d *VestedDeposit) { d.DurationUnits = 50 }, ErrDurationTooLong},
		{"basis points at the denominator", func(d *VestedDeposit) { d.BasisPoints = 10000 }, ErrBasisPointTooLarge},
		{"basis points above the denominator", func(d *VestedDeposit) { d.BasisPoints = 10001 }, ErrBasisPointTooLarge},
		{"negative amount", func(d *VestedDeposit) { d.Amount = amt(-1) }, ErrInvalidAmount},
		{"cliff overflows a duration", func(d *VestedDeposit) { d.CliffUnits = 1 << 40 }, ErrCliffTooLong},
		{"zero duration reported before basis points", func(d *VestedDeposit) {
			d.DurationUnits = 0
			d.BasisPoints = 10000
		}, ErrZeroDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}

	t.Run("largest allowed duration passes", func(t *testing.T) {
		d := valid
		d.DurationUnits = MaxIntervals - 1
		require.NoError(t, d.Validate())
	})

	t.Run("zero cliff passes", func(t *testing.T) {
		d := valid
		d.CliffUnits = 0
		require.NoError(t, d.Validate())
	})
}

func TestWaitedUnlockedDeposit(t *testing.T) {
	t.Run("splits between unlocked and waited", func(t *testing.T) {
		d := WaitedUnlockedDeposit{Amount: amt(1000), BasisPoints: 10}
		require.NoError(t, d.Validate())
		next := d.Apply(NewAccount(beneficiary))

		assert.Equal(t, int64(1), next.Unlocked.Int64())
		assert.Equal(t, int64(999), next.WaitedUnlocked.Int64())
		assert.Zero(t, next.Vested.Sign())
	})

	t.Run("upfront rounds down to zero", func(t *testing.T) {
		next := WaitedUnlockedDeposit{Amount: amt(1000), BasisPoints: 1}.Apply(NewAccount(beneficiary))
		assert.Zero(t, next.Unlocked.Sign())
		assert.Equal(t, int64(1000), next.WaitedUnlocked.Int64())
	})

	t.Run("rejects basis points at the denominator", func(t *testing.T) {
		err := WaitedUnlockedDeposit{Amount: amt(1000), BasisPoints: 10000}.Validate()
		require.ErrorIs(t, err, ErrBasisPointTooLarge)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "basis point has to be less than 10000", err.Error())
	})
}

func TestUnitsToDuration(t *testing.T) {
	d, ok := UnitsToDuration(3)
	require.True(t, ok)
	assert.Equal(t, 3*4*7*24*time.Hour, d)
	assert.Equal(t, uint64(3), DurationToUnits(d))

	_, ok = UnitsToDuration(^uint64(0))
	assert.False(t, ok)
}

package handler

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// DepositRequestSuite tests parsing of deposit bodies.
type DepositRequestSuite struct {
	suite.Suite
}

func TestDepositRequestSuite(t *testing.T) {
	suite.Run(t, new(DepositRequestSuite))
}

func (s *DepositRequestSuite) TestVestedDeposit() {
	s.Run("valid request parses amount and beneficiary", func() {
		req := &VestedDepositRequest{
			Beneficiary:   "  " + userAddr.Hex() + " ",
			Amount:        " 340282366920938463463374607431768211456 ",
			CliffUnits:    2,
			DurationUnits: 4,
			BasisPoints:   1000,
			UnlockType:    2,
		}
		req.Normalize()
		s.Require().NoError(req.Validate())

		deposit := req.Deposit()
		s.Equal(userAddr, req.parsedBeneficiary)
		s.Equal("340282366920938463463374607431768211456", deposit.Amount.String())
		s.Equal(models.UnlockWaited, deposit.UnlockType)
		s.Equal(uint64(4), deposit.DurationUnits)
	})

	s.Run("unrecognised unlock types keep the deposit vested", func() {
		for _, v := range []uint64{0, 3, 256, 257, 258, 1<<64 - 1} {
			req := &VestedDepositRequest{Beneficiary: userAddr.Hex(), Amount: "10", UnlockType: v}
			s.Require().NoError(req.Validate())
			s.Equal(models.UnlockVestedOnly, req.Deposit().UnlockType, "unlock_type %d", v)
		}
	})

	s.Run("missing beneficiary", func() {
		req := &VestedDepositRequest{Amount: "1"}
		err := req.Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("negative amount", func() {
		req := &VestedDepositRequest{Beneficiary: userAddr.Hex(), Amount: "-1"}
		err := req.Validate()
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing amount", func() {
		req := &VestedDepositRequest{Beneficiary: userAddr.Hex()}
		s.Error(req.Validate())
	})
}

func (s *DepositRequestSuite) TestWithdraw() {
	s.Run("empty receiver means caller", func() {
		req := &WithdrawRequest{Receiver: "   "}
		req.Normalize()
		s.Require().NoError(req.Validate())
		s.True(domain.IsZero(req.parsedReceiver))
	})

	s.Run("malformed receiver", func() {
		req := &WithdrawRequest{Receiver: "0x123"}
		s.True(dErrors.HasCode(req.Validate(), dErrors.CodeInvalidInput))
	})
}

package token

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

var (
	custodyAddr = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	depositor   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	receiver    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type LedgerSuite struct {
	suite.Suite
	ledger  *Ledger
	custody *Custody
	ctx     context.Context
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = NewLedger()
	s.custody = NewCustody(s.ledger, custodyAddr)
	s.ctx = context.Background()
	s.Require().NoError(s.ledger.Mint(depositor, big.NewInt(1000)))
}

func (s *LedgerSuite) TestTransferIn() {
	s.Run("requires an approval", func() {
		err := s.custody.TransferIn(s.ctx, depositor, big.NewInt(100))
		s.Require().ErrorIs(err, ErrInsufficientAllowance)
		s.Equal(int64(1000), s.ledger.BalanceOf(depositor).Int64(), "failed transfer must not move funds")
	})

	s.Run("pulls approved funds and consumes the allowance", func() {
		s.Require().NoError(s.ledger.Approve(depositor, custodyAddr, big.NewInt(300)))
		s.Require().NoError(s.custody.TransferIn(s.ctx, depositor, big.NewInt(100)))

		s.Equal(int64(900), s.ledger.BalanceOf(depositor).Int64())
		s.Equal(int64(100), s.ledger.BalanceOf(custodyAddr).Int64())
		s.Equal(int64(200), s.ledger.Allowance(depositor, custodyAddr).Int64())
	})

	s.Run("insufficient balance leaves the allowance untouched", func() {
		s.Require().NoError(s.ledger.Approve(depositor, custodyAddr, big.NewInt(5000)))
		err := s.custody.TransferIn(s.ctx, depositor, big.NewInt(5000))
		s.Require().ErrorIs(err, ErrInsufficientBalance)
		s.Equal(int64(5000), s.ledger.Allowance(depositor, custodyAddr).Int64())
	})
}

func (s *LedgerSuite) TestTransferOut() {
	s.Require().NoError(s.ledger.Mint(custodyAddr, big.NewInt(50)))

	s.Require().NoError(s.custody.TransferOut(s.ctx, receiver, big.NewInt(50)))
	s.Equal(int64(50), s.ledger.BalanceOf(receiver).Int64())

	s.Run("zero transfer succeeds", func() {
		s.Require().NoError(s.custody.TransferOut(s.ctx, receiver, big.NewInt(0)))
	})

	s.Run("overdraft fails", func() {
		s.Require().ErrorIs(s.custody.TransferOut(s.ctx, receiver, big.NewInt(1)), ErrInsufficientBalance)
	})
}

func (s *LedgerSuite) TestApproveOverwrites() {
	s.Require().NoError(s.custody.Approve(s.ctx, receiver, big.NewInt(10)))
	s.Require().NoError(s.custody.Approve(s.ctx, receiver, big.NewInt(0)))
	s.Zero(s.ledger.Allowance(custodyAddr, receiver).Sign())

	s.Require().ErrorIs(s.custody.Approve(s.ctx, receiver, big.NewInt(-1)), ErrNegativeAmount)
}

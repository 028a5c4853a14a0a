//go:build integration

package settings_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"custody/internal/ledger/models"
	"custody/internal/ledger/store/settings"
	"custody/pkg/platform/sentinel"
	"custody/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *settings.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = settings.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "ledger_settings"))
}

func (s *PostgresStoreSuite) TestSingleton() {
	ctx := context.Background()

	s.Run("empty table is not found", func() {
		_, err := s.store.Load(ctx)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("save and load", func() {
		want := models.Settings{
			WaitedTS:        1_700_000_000,
			Token:           common.HexToAddress("0x0000000000000000000000000000000000000070"),
			VestingRegistry: common.HexToAddress("0x0000000000000000000000000000000000000071"),
		}
		s.Require().NoError(s.store.Save(ctx, want))

		got, err := s.store.Load(ctx)
		s.Require().NoError(err)
		s.Equal(want, got)
	})

	s.Run("second save replaces the row", func() {
		got, err := s.store.Load(ctx)
		s.Require().NoError(err)
		got.WaitedTS = 1_800_000_000
		s.Require().NoError(s.store.Save(ctx, got))

		reloaded, err := s.store.Load(ctx)
		s.Require().NoError(err)
		s.Equal(uint64(1_800_000_000), reloaded.WaitedTS)

		var rows int
		s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT count(*) FROM ledger_settings`).Scan(&rows))
		s.Equal(1, rows)
	})
}

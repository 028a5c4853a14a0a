package settings

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custody/internal/ledger/models"
	"custody/pkg/platform/sentinel"
)

var sample = models.Settings{
	WaitedTS:        1_700_000_000,
	Token:           common.HexToAddress("0x0000000000000000000000000000000000000070"),
	VestingRegistry: common.HexToAddress("0x0000000000000000000000000000000000000071"),
}

func TestInMemory(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, s.Save(ctx, sample))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestPostgres(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	s := NewPostgres(db)

	t.Run("missing row is not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM ledger_settings`).WillReturnError(sql.ErrNoRows)
		_, err := s.Load(context.Background())
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save upserts the singleton row", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO ledger_settings`).
			WithArgs(int64(sample.WaitedTS), sample.Token.Hex(), sample.VestingRegistry.Hex(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, s.Save(context.Background(), sample))
	})

	t.Run("load decodes addresses", func(t *testing.T) {
		mock.ExpectQuery(`FROM ledger_settings`).
			WillReturnRows(sqlmock.NewRows([]string{"waited_ts", "token", "vesting_registry"}).
				AddRow(int64(sample.WaitedTS), sample.Token.Hex(), sample.VestingRegistry.Hex()))
		got, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sample, got)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

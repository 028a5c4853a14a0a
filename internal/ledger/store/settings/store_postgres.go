package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"custody/internal/ledger/models"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore keeps the configuration singleton as the single row of
// ledger_settings (id = 1).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) (models.Settings, error) {
	var (
		waitedTS          int64
		token, registryID string
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT waited_ts, token, vesting_registry
		FROM ledger_settings
		WHERE id = 1
	`).Scan(&waitedTS, &token, &registryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, sentinel.ErrNotFound
		}
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return models.Settings{
		WaitedTS:        uint64(waitedTS),
		Token:           common.HexToAddress(token),
		VestingRegistry: common.HexToAddress(registryID),
	}, nil
}

func (s *PostgresStore) Save(ctx context.Context, settings models.Settings) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO ledger_settings (id, waited_ts, token, vesting_registry, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			waited_ts = EXCLUDED.waited_ts,
			token = EXCLUDED.token,
			vesting_registry = EXCLUDED.vesting_registry,
			updated_at = EXCLUDED.updated_at
	`, int64(settings.WaitedTS), settings.Token.Hex(), settings.VestingRegistry.Hex(), time.Now())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

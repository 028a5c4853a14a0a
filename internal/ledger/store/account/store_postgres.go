package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"custody/internal/ledger/models"
	"custody/pkg/domain"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore persists custody records in ledger_accounts. Balances are
// NUMERIC(78,0) columns exchanged as decimal text.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns the record for owner, or the zero record when none exists.
func (s *PostgresStore) Get(ctx context.Context, owner domain.Address) (*models.Account, error) {
	query := `
		SELECT unlocked::text, waited_unlocked::text, vested::text, locked::text,
			   cliff_seconds, duration_seconds
		FROM ledger_accounts
		WHERE owner = $1
	`
	var (
		unlocked, waited, vested, locked string
		cliffSec, durationSec            int64
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, owner.Hex()).
		Scan(&unlocked, &waited, &vested, &locked, &cliffSec, &durationSec)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.NewAccount(owner), nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	a := models.NewAccount(owner)
	for _, f := range []struct {
		dst *big.Int
		raw string
	}{
		{a.Unlocked, unlocked},
		{a.WaitedUnlocked, waited},
		{a.Vested, vested},
		{a.Locked, locked},
	} {
		if _, ok := f.dst.SetString(f.raw, 10); !ok {
			return nil, fmt.Errorf("decode account balance %q", f.raw)
		}
	}
	a.Cliff = time.Duration(cliffSec) * time.Second
	a.Duration = time.Duration(durationSec) * time.Second
	return a, nil
}

// Save upserts the record.
func (s *PostgresStore) Save(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO ledger_accounts (
			owner, unlocked, waited_unlocked, vested, locked,
			cliff_seconds, duration_seconds, updated_at
		)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6, $7, $8)
		ON CONFLICT (owner) DO UPDATE SET
			unlocked = EXCLUDED.unlocked,
			waited_unlocked = EXCLUDED.waited_unlocked,
			vested = EXCLUDED.vested,
			locked = EXCLUDED.locked,
			cliff_seconds = EXCLUDED.cliff_seconds,
			duration_seconds = EXCLUDED.duration_seconds,
			updated_at = EXCLUDED.updated_at
	`
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, query,
		a.Owner.Hex(),
		domain.FormatAmount(a.Unlocked),
		domain.FormatAmount(a.WaitedUnlocked),
		domain.FormatAmount(a.Vested),
		domain.FormatAmount(a.Locked),
		int64(a.Cliff/time.Second),
		int64(a.Duration/time.Second),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

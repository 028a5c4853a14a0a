package admin

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"custody/pkg/domain"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
)

// PostgresStore persists the admin set in ledger_admins.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts a member. The conflict clause turns a duplicate into zero
// affected rows, reported as sentinel.ErrConflict.
func (s *PostgresStore) Add(ctx context.Context, admin domain.Address) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO ledger_admins (address, added_at)
		VALUES ($1, $2)
		ON CONFLICT (address) DO NOTHING
	`, admin.Hex(), time.Now())
	if err != nil {
		return fmt.Errorf("add admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("add admin: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("admin %s: %w", admin.Hex(), sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, admin domain.Address) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM ledger_admins WHERE address = $1`, admin.Hex())
	if err != nil {
		return fmt.Errorf("remove admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove admin: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("admin %s: %w", admin.Hex(), sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Contains(ctx context.Context, admin domain.Address) (bool, error) {
	var exists bool
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_admins WHERE address = $1)`, admin.Hex()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return exists, nil
}

// List returns members ordered by address.
func (s *PostgresStore) List(ctx context.Context) ([]domain.Address, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT address FROM ledger_admins ORDER BY lower(address)`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []domain.Address
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		out = append(out, common.HexToAddress(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return out, nil
}

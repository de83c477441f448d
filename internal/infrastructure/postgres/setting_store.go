package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingStore implements setting.Store on the settings table.
type SettingStore struct {
	pool *pgxpool.Pool
}

func NewSettingStore(pool *pgxpool.Pool) *SettingStore {
	return &SettingStore{pool: pool}
}

func (s *SettingStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := conn(ctx, s.pool).QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *SettingStore) SetValue(ctx context.Context, key, value string) error {
	_, err := conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=EXCLUDED.updated_at
	`, key, value)
	return err
}

// Lock takes a transaction-scoped advisory lock on key. It is released when
// the surrounding transaction ends.
func (s *SettingStore) Lock(ctx context.Context, key string) error {
	if !inTx(ctx) {
		return errors.New("setting lock " + key + " requires a transaction")
	}
	_, err := conn(ctx, s.pool).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

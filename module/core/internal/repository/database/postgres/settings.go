package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/nandanugg/geofence-map/module/core/internal/repository/database"
)

var _ database.SettingsRepository = (*SettingsRepo)(nil)

type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Load(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM app_settings ORDER BY key`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	results := map[string]json.RawMessage{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		results[key] = json.RawMessage(value)
	}
	return results, rows.Err()
}

func (r *SettingsRepo) Save(ctx context.Context, key string, value json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, []byte(value),
	)
	return err
}

// EnsureSchema creates the settings table when it does not exist yet.
func (r *SettingsRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, createSettingsTable)
	return err
}

const createSettingsTable = `CREATE TABLE IF NOT EXISTS app_settings (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

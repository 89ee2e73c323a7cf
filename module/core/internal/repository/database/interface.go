package database

import (
	"context"
	"encoding/json"
)

// SettingsRepository stores user settings as raw JSON values keyed by setting name.
type SettingsRepository interface {
	Load(ctx context.Context) (map[string]json.RawMessage, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
}

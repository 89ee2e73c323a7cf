package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nandanugg/geofence-map/module/core/domain"
)

const SnapshotKey = "geofence-map:viewmodel"

type client interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// SnapshotMirror keeps the latest view model in redis for readers outside this process.
type SnapshotMirror struct {
	client client
	ttl    time.Duration
}

func NewSnapshotMirror(c *goredis.Client, ttl time.Duration) *SnapshotMirror {
	return &SnapshotMirror{client: c, ttl: ttl}
}

type snapshotDocument struct {
	Seq       uint64           `json:"seq"`
	ViewModel domain.ViewModel `json:"view_model"`
}

func (m *SnapshotMirror) SaveSnapshot(ctx context.Context, seq uint64, vm domain.ViewModel) error {
	body, err := json.Marshal(snapshotDocument{Seq: seq, ViewModel: vm})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := m.client.Set(ctx, SnapshotKey, body, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", SnapshotKey, err)
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/adetunjii/esusu-engine/internal/domain"
)

// ViewCache holds short-lived waiting-room snapshots in Redis. Every
// successful group mutation invalidates the snapshot, so a stale read lives
// at most one TTL. Cache failures are never surfaced; the store is the
// source of truth.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewCache(client *redis.Client) *ViewCache {
	return &ViewCache{
		client: client,
		ttl:    30 * time.Second,
	}
}

func waitingRoomKey(groupID uuid.UUID) string {
	return fmt.Sprintf("esusu:waiting-room:%s", groupID)
}

func (c *ViewCache) GetWaitingRoom(ctx context.Context, groupID uuid.UUID) (*domain.WaitingRoomView, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, waitingRoomKey(groupID)).Bytes()
	if err != nil {
		return nil, false
	}

	var view domain.WaitingRoomView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, false
	}

	return &view, true
}

func (c *ViewCache) SetWaitingRoom(ctx context.Context, view *domain.WaitingRoomView) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, waitingRoomKey(view.GroupID), data, c.ttl).Err(); err != nil {
		slog.Debug("view cache set failed", "group_id", view.GroupID, "error", err)
	}
}

func (c *ViewCache) Invalidate(ctx context.Context, groupID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, waitingRoomKey(groupID)).Err(); err != nil {
		slog.Debug("view cache invalidation failed", "group_id", groupID, "error", err)
	}
}

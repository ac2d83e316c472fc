// Package collab holds the real-time co-editing pieces: advisory draft locks
// and the fire-and-forget event broadcast channel.
package collab

import (
	"context"
	"encoding/json"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/redisStore"
)

const channelPrefix = "rfe:events:"

// RedisBroadcaster publishes events over Redis pub/sub. Delivery is at most
// once with no ordering guarantee beyond publish order on the channel;
// clients must tolerate missed or reordered messages.
type RedisBroadcaster struct {
	store *redisStore.Store
}

func NewRedisBroadcaster(store *redisStore.Store) *RedisBroadcaster {
	return &RedisBroadcaster{store: store}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, topic string, message any) error {
	if b == nil || b.store == nil {
		return nil
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return b.store.Publish(ctx, channelPrefix+topic, payload)
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/logging"
)

// RedisPublisher is a bus handler that republishes match events to a Redis
// channel so every server instance can feed its own WebSocket hub.
type RedisPublisher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisPublisher(rdb redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Handle(ctx context.Context, e Event) error {
	me, ok := e.Payload.(MatchEvent)
	if !ok {
		return nil
	}
	b, err := json.Marshal(me)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Relay reads match events from the Redis channel and hands them to the
// local hub.
type Relay struct {
	rdb     redis.UniversalClient
	channel string
	hub     *Hub
}

func NewRelay(rdb redis.UniversalClient, channel string, hub *Hub) *Relay {
	return &Relay{rdb: rdb, channel: channel, hub: hub}
}

// Run blocks until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	logging.Info("event relay starting", logging.Fields{constants.LogFieldKey: r.channel})
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				logging.Info("event relay stopped", nil)
				return
			}
			logging.Warn("event relay receive failed", err, nil)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		var me MatchEvent
		if err := json.Unmarshal([]byte(msg.Payload), &me); err != nil {
			logging.Warn("event relay dropped malformed payload", err, nil)
			continue
		}
		r.hub.Broadcast(me.MatchID, []byte(msg.Payload))
	}
}

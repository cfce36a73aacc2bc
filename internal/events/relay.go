// README: Forwards bus events to a Redis channel so other instances see fare and booking changes.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taxihub/internal/logging"
)

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type RedisRelay struct {
	client  publisher
	channel string
	log     *zap.Logger
}

func NewRedisRelay(client publisher, channel string, log *zap.Logger) *RedisRelay {
	return &RedisRelay{client: client, channel: channel, log: logging.OrNop(log)}
}

// Attach subscribes the relay to every topic on bus.
func (r *RedisRelay) Attach(bus *Bus) func() {
	return bus.SubscribeAll(r.forward)
}

func (r *RedisRelay) forward(ctx context.Context, e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		r.log.Warn("relay marshal failed", zap.String("topic", string(e.Topic)), zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		r.log.Warn("relay publish failed", zap.String("topic", string(e.Topic)), zap.Error(err))
	}
}

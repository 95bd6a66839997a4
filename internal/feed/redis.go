package feed

import (
	"context"
	"log/slog"

	"github.com/mind-engage/examdesk/internal/cache"
)

// DefaultRedisChannel carries collection names of changed collections.
const DefaultRedisChannel = "examdesk:changes"

// RedisRelay spreads change notifications across instances. Every instance
// publishes its writes to a Redis channel and refreshes its local broker
// from whatever arrives on it, its own messages included.
type RedisRelay struct {
	redis   *cache.RedisClient
	channel string
	local   Notifier
	log     *slog.Logger
}

func NewRedisRelay(rc *cache.RedisClient, channel string, local Notifier, log *slog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisRelay{redis: rc, channel: channel, local: local, log: log.With("component", "feed.redis")}
}

// Changed publishes the change. If Redis is unreachable the local broker is
// still refreshed so this instance stays current.
func (r *RedisRelay) Changed(ctx context.Context, collection string) {
	if err := r.redis.Publish(ctx, r.channel, collection); err != nil {
		r.log.Warn("publish change", "collection", collection, "err", err)
		r.local.Changed(ctx, collection)
	}
}

// Run forwards notifications from Redis to the local broker until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.redis.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.local.Changed(ctx, msg.Payload)
		}
	}
}

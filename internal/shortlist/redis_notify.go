package shortlist

import (
	"context"
	"encoding/json"
	"fmt"

	"talent-shortlist/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes change events on a Redis channel so that other
// processes sharing the store can refresh.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	return nil
}

// RedisWatcher relays events published by other processes to a local Notifier.
// Events carrying the watcher's own origin are skipped; they were already
// delivered locally.
type RedisWatcher struct {
	client  redis.UniversalClient
	channel string
	origin  string
	log     logger.Logger
}

func NewRedisWatcher(client redis.UniversalClient, channel, origin string, log logger.Logger) *RedisWatcher {
	return &RedisWatcher{client: client, channel: channel, origin: origin, log: log}
}

// Run blocks until ctx is cancelled or the subscription is closed.
func (w *RedisWatcher) Run(ctx context.Context, sink Notifier) error {
	pubsub := w.client.Subscribe(ctx, w.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", w.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				w.log.Warn("Discarding malformed change event", map[string]interface{}{
					"channel": w.channel,
					"error":   err.Error(),
				})
				continue
			}
			if event.Origin != "" && event.Origin == w.origin {
				continue
			}
			if err := sink.Notify(ctx, event); err != nil {
				w.log.Warn("Failed to relay change event", map[string]interface{}{
					"entryId": event.EntryID,
					"error":   err.Error(),
				})
			}
		}
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/task-workflow/internal/model"
)

// RedisNotifier publishes an Event to a pub/sub channel whenever a task
// reaches DONE.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Name() string { return "redis-notifier" }

func (n *RedisNotifier) Handle(ctx context.Context, rec model.Transition) error {
	if rec.To != model.StatusDone {
		return nil
	}

	payload, err := json.Marshal(completedEvent(rec))
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", n.channel, err)
	}
	return nil
}

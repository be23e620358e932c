package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Channel receives every appointment event as JSON.
	Channel = "appointments:events"

	dedupeTTL = 30 * 24 * time.Hour
)

// RedisPublisher hands appointment events to the notification dispatcher
// over Redis pub/sub. Each (appointment, event type) pair is published at
// most once.
type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	if client == nil {
		panic("notify: redis client required")
	}
	return &RedisPublisher{client: client, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt model.AppointmentEvent) error {
	fresh, err := p.client.SetNX(ctx, dedupeKey(evt), evt.ID.String(), dedupeTTL).Result()
	if err != nil {
		return fmt.Errorf("notify: dedupe: %w", err)
	}
	if !fresh {
		p.logger.Debug("Duplicate appointment event suppressed",
			zap.Int64("appointment_id", evt.AppointmentID),
			zap.String("type", string(evt.Type)),
		)
		return nil
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		// let a later attempt publish again
		p.client.Del(ctx, dedupeKey(evt))
		return fmt.Errorf("notify: publish: %w", err)
	}

	return nil
}

func dedupeKey(evt model.AppointmentEvent) string {
	return fmt.Sprintf("appointments:event:%d:%s", evt.AppointmentID, evt.Type)
}

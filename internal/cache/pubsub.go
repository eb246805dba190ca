package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/equilibrium-amm/internal/models"
)

// Publisher fans committed pool events out over Redis pub/sub.
type Publisher struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewPublisher(client *redis.Client, log *logrus.Logger) *Publisher {
	if log == nil {
		log = logrus.New()
	}
	return &Publisher{client: client, log: log}
}

// PublishEvent sends the event to the firehose channel plus the
// per-pool and per-kind channels, so subscribers can pick their slice.
func (p *Publisher) PublishEvent(ctx context.Context, event *models.PoolEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channels := []string{
		"pools:events",
		fmt.Sprintf("pools:events:pool:%s", event.Pool),
		fmt.Sprintf("pools:events:kind:%s", event.Kind),
	}

	pipe := p.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe delivers events from one channel to the handler until the
// context is cancelled or the connection drops. Undecodable payloads
// are logged and skipped.
func (p *Publisher) Subscribe(ctx context.Context, channel string, handler func(*models.PoolEvent)) error {
	sub := p.client.Subscribe(ctx, channel)
	defer sub.Close()

	p.log.WithField("channel", channel).Info("Subscribed to pool events")

	for msg := range sub.Channel() {
		var event models.PoolEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			p.log.WithError(err).Warn("Skipping undecodable pool event")
			continue
		}
		handler(&event)
	}
	return nil
}

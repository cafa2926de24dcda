// Package relay moves trade events between processes over Redis pub/sub.
package relay

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
)

type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher forwards every streamed event to a Redis channel.
type Publisher struct {
	client  publishClient
	channel string
	logger  log.FieldLogger
}

func NewPublisher(client *redis.Client, channel string) *Publisher {
	return newPublisher(client, channel)
}

func newPublisher(client publishClient, channel string) *Publisher {
	if channel == "" {
		channel = shared.RedisChannel
	}
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  log.WithField("component", "relay-publisher"),
	}
}

func (p *Publisher) OnTrade(ctx context.Context, ev shared.TradeEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.WithError(err).Errorf("Error marshalling event %+v", ev)
		return
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.WithError(err).Error("Redis Publish error")
	}
}

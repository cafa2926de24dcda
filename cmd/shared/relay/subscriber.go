package relay

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

// Subscriber is a feed reading the events a Publisher relays.
type Subscriber struct {
	client  *redis.Client
	channel string
	logger  log.FieldLogger
}

func NewSubscriber(client *redis.Client, channel string) *Subscriber {
	if channel == "" {
		channel = shared.RedisChannel
	}
	return &Subscriber{
		client:  client,
		channel: channel,
		logger:  log.WithField("component", "relay-subscriber"),
	}
}

func (s *Subscriber) Run(ctx context.Context, sink dispatch.Sink) error {
	if err := sink.Transition(ctx, dispatch.Connecting); err != nil {
		return err
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrapf(err, "ping redis at %s", s.client.Options().Addr)
	}
	if err := sink.Transition(ctx, dispatch.Authenticated); err != nil {
		return err
	}

	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()
	// the first reply confirms the subscription
	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrapf(err, "subscribe to %s", s.channel)
	}
	s.logger.Infof("Subscribed to %s", s.channel)
	for _, next := range []dispatch.State{dispatch.Subscribed, dispatch.Streaming} {
		if err := sink.Transition(ctx, next); err != nil {
			return err
		}
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Stopping subscription: %s", s.channel)
			sink.Close(ctx)
			return nil

		case msg, ok := <-ch:
			if !ok {
				sink.Close(ctx)
				return nil
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				s.logger.WithError(err).Warn("Skipping the data")
				continue
			}
			sink.Deliver(ctx, ev)
		}
	}
}

func decodeEvent(payload string) (shared.TradeEvent, error) {
	var ev shared.TradeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, errors.Wrap(err, "failed to unmarshal to TradeEvent")
	}
	return ev, nil
}

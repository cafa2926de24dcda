package main

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/alpaca"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
	"github.com/kaanureyen/emabot/cmd/shared/tracing"
)

// withTimeout runs a cleanup step after shutdown began, bounded by shared.TimeoutBeforeReturn.
func withTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shared.TimeoutBeforeReturn)
	defer cancel()
	return fn(ctx)
}

func newSubmitter(cfg *shared.Config) (dispatch.OrderSubmitter, error) {
	var orders dispatch.OrderSubmitter
	switch cfg.Mode {
	case shared.ModeLive:
		if err := cfg.RequireAlpaca(); err != nil {
			return nil, errors.Wrap(err, "live mode")
		}
		orders = alpaca.NewOrders(cfg.Credentials.AlpacaKeyID, cfg.Credentials.AlpacaSecret, cfg.Order.BaseURL)
	default:
		orders = &dispatch.DryRunSubmitter{}
	}
	if cfg.Tracing {
		orders = tracing.WrapSubmitter(orders)
	}
	return orders, nil
}

func newRecorder(ctx context.Context, cfg *shared.Config) (dispatch.Recorder, func(), error) {
	client, err := shared.MongoConnect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() {
		if err := withTimeout(client.Disconnect); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}

	collection, err := shared.MongoTradeCollection(ctx, client, cfg.Mongo.Database)
	if err != nil {
		disconnect()
		return nil, nil, err
	}
	return shared.NewMongoRecorder(collection), disconnect, nil
}

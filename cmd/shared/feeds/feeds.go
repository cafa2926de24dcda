// Package feeds builds the configured market data feed.
package feeds

import (
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/alpaca"
	"github.com/kaanureyen/emabot/cmd/shared/binance"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
	"github.com/kaanureyen/emabot/cmd/shared/relay"
)

// New returns the feed of cfg.Feed.Source and a function releasing its resources.
func New(cfg *shared.Config) (dispatch.Feed, func(), error) {
	switch cfg.Feed.Source {
	case shared.FeedAlpaca:
		if err := cfg.RequireAlpaca(); err != nil {
			return nil, nil, errors.Wrap(err, "alpaca feed")
		}
		c := cfg.Credentials
		return alpaca.NewStream(cfg.Feed.URL, c.AlpacaKeyID, c.AlpacaSecret, cfg.Symbols), func() {}, nil

	case shared.FeedBinance:
		return binance.NewFeed(cfg.Symbols, cfg.Feed.URL), func() {}, nil

	case shared.FeedRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
		return relay.NewSubscriber(rdb, cfg.Redis.Channel), func() { _ = rdb.Close() }, nil
	}
	return nil, nil, errors.Errorf("unknown feed source %q", cfg.Feed.Source)
}

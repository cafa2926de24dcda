package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
	"github.com/kaanureyen/emabot/cmd/shared/feeds"
	"github.com/kaanureyen/emabot/cmd/shared/notify"
	"github.com/kaanureyen/emabot/cmd/shared/relay"
)

const moduleName = "fetcher"

func init() {
	shared.AddConfigFlag(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:   moduleName,
	Short: "relays live trades to redis",
	Long:  "Streams trades from alpaca or binance and publishes them to a redis channel for signal_gen",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		if cfg.Feed.Source == shared.FeedRedis {
			return errors.New("fetcher publishes to redis, feed.source must be alpaca or binance")
		}

		shutdownOrchestrator := shared.InitCommon(moduleName, cfg.Log) // set logger, start http health endpoint, start shutdownOrchestrator

		if err := dispatch.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return err
		}

		notifier, flushNotifier, err := notify.FromConfig(cfg)
		if err != nil {
			return err
		}
		defer flushNotifier()

		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
		defer rdb.Close()
		publisher := relay.NewPublisher(rdb, cfg.Redis.Channel)

		feed, closeFeed, err := feeds.New(cfg)
		if err != nil {
			return err
		}
		defer closeFeed()

		log.Infof("Relaying %s trades of %v to %s on %s", cfg.Feed.Source, cfg.Symbols, cfg.Redis.Channel, cfg.Redis.Address)

		var runErr error
		shutdownOrchestrator.Go("feed", func(ctx context.Context) {
			defer shutdownOrchestrator.Shutdown()
			runErr = dispatch.Run(ctx, feed, func() *dispatch.Session {
				return dispatch.NewSession(publisher, notifier)
			}, dispatch.RunOptions{
				Reconnect:     cfg.Feed.Reconnect,
				MaxReconnects: cfg.Feed.MaxReconnects,
			})
		})

		<-shutdownOrchestrator.Done
		log.Info("Exiting...")
		return runErr
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("fetcher failed")
	}
}

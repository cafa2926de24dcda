package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
	"github.com/kaanureyen/emabot/cmd/shared/ema"
	"github.com/kaanureyen/emabot/cmd/shared/feeds"
	"github.com/kaanureyen/emabot/cmd/shared/notify"
	"github.com/kaanureyen/emabot/cmd/shared/tracing"
)

const moduleName = "signal_gen"

func init() {
	shared.AddConfigFlag(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:   moduleName,
	Short: "EMA crossing signal engine",
	Long:  "Streams trades, keeps a per-symbol EMA and places a market order whenever the price crosses it",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfigFromFlags(cmd)
		if err != nil {
			return err
		}

		shutdownOrchestrator := shared.InitCommon(moduleName, cfg.Log) // set logger, start http health endpoint, start shutdownOrchestrator
		ctx := shutdownOrchestrator.Context()

		if err := dispatch.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return err
		}

		if cfg.Tracing {
			shutdownTracing, err := tracing.Init(moduleName, os.Stdout)
			if err != nil {
				return err
			}
			defer func() {
				if err := withTimeout(shutdownTracing); err != nil {
					log.WithError(err).Warn("Failed to flush traces")
				}
			}()
		}

		tracker, err := ema.NewTracker(cfg.Ema.Period)
		if err != nil {
			return err
		}

		orders, err := newSubmitter(cfg)
		if err != nil {
			return err
		}

		notifier, flushNotifier, err := notify.FromConfig(cfg)
		if err != nil {
			return err
		}
		defer flushNotifier()

		var options []dispatch.Option
		if cfg.Mongo.Enabled {
			recorder, disconnect, err := newRecorder(ctx, cfg)
			if err != nil {
				return err
			}
			defer disconnect()
			options = append(options, dispatch.WithRecorder(recorder))
		}

		dispatcher := dispatch.New(dispatch.Config{Symbols: cfg.Symbols, Qty: cfg.Order.Qty}, tracker, orders, options...)

		feed, closeFeed, err := feeds.New(cfg)
		if err != nil {
			return err
		}
		defer closeFeed()

		log.Infof("Mode %s, feed %s, symbols %v, EMA period %d", cfg.Mode, cfg.Feed.Source, cfg.Symbols, cfg.Ema.Period)

		var runErr error
		shutdownOrchestrator.Go("feed", func(ctx context.Context) {
			defer shutdownOrchestrator.Shutdown() // the engine ends with its feed
			runErr = dispatch.Run(ctx, feed, func() *dispatch.Session {
				return dispatch.NewSession(dispatcher, notifier)
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
		log.WithError(err).Fatal("signal_gen failed")
	}
}

package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kaanureyen/emabot/cmd/shared"
)

const moduleName = "simulator"

func init() {
	shared.AddConfigFlag(rootCmd)
	rootCmd.Flags().Int("last", 999999, "number of most recent signals to replay")
	rootCmd.Flags().Float64("cash", 1000, "starting cash of every symbol's wallet")
}

var rootCmd = &cobra.Command{
	Use:   moduleName,
	Short: "replays recorded signals against a paper wallet",
	Long:  "Loads the recorded BUY/SELL signals from MongoDB and reports what an all-in wallet per symbol would hold",

	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		last, err := cmd.Flags().GetInt("last")
		if err != nil {
			return err
		}
		cash, err := cmd.Flags().GetFloat64("cash")
		if err != nil {
			return err
		}
		if cash <= 0 {
			return errors.Errorf("cash must be positive, got %v", cash)
		}

		shutdownOrchestrator := shared.InitCommon(moduleName, cfg.Log) // set logger, start http health endpoint, start shutdownOrchestrator
		defer shutdownOrchestrator.Shutdown()
		ctx := shutdownOrchestrator.Context()

		// connect to MongoDB
		client, err := shared.MongoConnect(ctx, cfg.Mongo.URI)
		if err != nil {
			return err
		}
		defer client.Disconnect(ctx)

		collection, err := shared.MongoTradeCollection(ctx, client, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		signals, err := shared.LoadLastSignals(ctx, collection, last)
		if err != nil {
			return err
		}

		for _, r := range Simulate(signals, cash) {
			log.Infof("%s: %d trades, wallet %+v, value %.2f at last price %.2f",
				r.Symbol, r.Trades, r.Wallet, r.Wallet.Value(r.LastPrice), r.LastPrice)
		}
		log.Info("Exiting...")
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("simulator failed")
	}
}

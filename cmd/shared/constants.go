package shared

import (
	"os"
	"time"
)

const (
	// common
	HealthEndpointFirstPort = 8080
	HealthEndpointLastPort  = 8100
	// signal_gen
	DefaultEmaPeriod = 9
	DefaultOrderQty  = 1
	ModeDryRun       = "DRY_RUN"
	ModeLive         = "LIVE"
	// feeds
	FeedAlpaca          = "alpaca"
	FeedBinance         = "binance"
	FeedRedis           = "redis"
	AlpacaStreamURL     = "wss://stream.data.alpaca.markets/v2/iex"
	AlpacaPaperURL      = "https://paper-api.alpaca.markets"
	RedisChannel        = "alpaca:trades"
	TimeBeforeReconnect = 5 * time.Second
	TimeoutBeforeReturn = 5 * time.Second // waiting for a stream to close after asking it to
	// storage
	MongoDatabase         = "emabot"
	MongoSignalCollection = "signals"
)

// DefaultSymbols is the subscription set used when the config names none.
var DefaultSymbols = []string{"AAPL", "MSFT", "GOOG"}

// not a constant but only known in runtime.
var (
	RedisAddress = func() string { // detect whether running under docker in runtime
		if IsRunningInDocker() {
			return "redis:6379"
		}
		return "localhost:6379"
	}()
	MongoUri = func() string { // detect whether running under docker in runtime
		if IsRunningInDocker() {
			return "mongodb://mongodb:27017"
		}
		return "mongodb://localhost:27017"
	}()
)

func IsRunningInDocker() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}

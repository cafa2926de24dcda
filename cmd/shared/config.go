package shared

import (
	"os"
	"strconv"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode    string   `yaml:"mode"`
	Symbols []string `yaml:"symbols"`
	Ema     struct {
		Period int `yaml:"period"`
	} `yaml:"ema"`
	Order struct {
		Qty     int    `yaml:"qty"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"order"`
	Feed    FeedConfig   `yaml:"feed"`
	Redis   RedisConfig  `yaml:"redis"`
	Mongo   MongoConfig  `yaml:"mongo"`
	Notify  NotifyConfig `yaml:"notify"`
	Log     LogConfig    `yaml:"log"`
	Tracing bool         `yaml:"tracing"`

	Credentials Credentials `yaml:"-"`
}

type FeedConfig struct {
	Source        string `yaml:"source"` // alpaca, binance or redis
	URL           string `yaml:"url"`    // the source default when empty
	Reconnect     bool   `yaml:"reconnect"`
	MaxReconnects uint64 `yaml:"max_reconnects"`
}

type RedisConfig struct {
	Address string `yaml:"address"`
	Channel string `yaml:"channel"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type NotifyConfig struct {
	Telegram bool `yaml:"telegram"`
	Slack    bool `yaml:"slack"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // prefixed, text or json
}

// Credentials never live in the config file.
type Credentials struct {
	AlpacaKeyID    string `env:"APCA_API_KEY_ID"`
	AlpacaSecret   string `env:"APCA_API_SECRET_KEY"`
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`
	SlackToken     string `env:"SLACK_TOKEN"`
	SlackChannel   string `env:"SLACK_CHANNEL"`
}

func (c Credentials) TelegramChat() (int64, error) {
	return strconv.ParseInt(c.TelegramChatID, 10, 64)
}

func DefaultConfig() Config {
	var c Config
	c.Mode = ModeDryRun
	c.Symbols = append([]string(nil), DefaultSymbols...)
	c.Ema.Period = DefaultEmaPeriod
	c.Order.Qty = DefaultOrderQty
	c.Order.BaseURL = AlpacaPaperURL
	c.Feed.Source = FeedAlpaca
	c.Feed.MaxReconnects = 10
	c.Redis.Address = RedisAddress
	c.Redis.Channel = RedisChannel
	c.Mongo.URI = MongoUri
	c.Mongo.Database = MongoDatabase
	c.Log.Level = "info"
	c.Log.Format = "prefixed"
	return c
}

func (c *Config) Validate() error {
	if c.Mode != ModeDryRun && c.Mode != ModeLive {
		return errors.Errorf("invalid mode '%s': must be '%s' or '%s'", c.Mode, ModeDryRun, ModeLive)
	}
	switch c.Feed.Source {
	case FeedAlpaca, FeedBinance, FeedRedis:
	default:
		return errors.Errorf("invalid feed.source '%s': must be '%s', '%s' or '%s'", c.Feed.Source, FeedAlpaca, FeedBinance, FeedRedis)
	}
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	for _, s := range c.Symbols {
		if s == "" {
			return errors.New("symbols cannot contain an empty symbol")
		}
	}
	if c.Ema.Period <= 0 {
		return errors.Errorf("ema.period must be positive, got %d", c.Ema.Period)
	}
	if c.Order.Qty <= 0 {
		return errors.Errorf("order.qty must be positive, got %d", c.Order.Qty)
	}
	return nil
}

// RequireAlpaca reports missing Alpaca credentials.
func (c *Config) RequireAlpaca() error {
	if c.Credentials.AlpacaKeyID == "" || c.Credentials.AlpacaSecret == "" {
		return errors.New("APCA_API_KEY_ID and APCA_API_SECRET_KEY must be set")
	}
	return nil
}

// LoadConfig reads .env, then the yaml file at path over the defaults, then the credentials from the environment.
// An empty path means defaults only.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, errors.Wrap(err, "decode yaml")
		}
	}

	if err := env.Set(&c.Credentials); err != nil {
		return nil, errors.Wrap(err, "read credentials from environment")
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &c, nil
}

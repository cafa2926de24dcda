package shared

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ModeDryRun, c.Mode)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, c.Symbols)
	assert.Equal(t, 9, c.Ema.Period)
	assert.Equal(t, 1, c.Order.Qty)
	assert.Equal(t, FeedAlpaca, c.Feed.Source)
	assert.Empty(t, c.Feed.URL, "each feed falls back to its own endpoint")
	assert.False(t, c.Feed.Reconnect)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: LIVE
symbols: [TSLA]
ema:
  period: 3
order:
  qty: 5
feed:
  source: redis
  url: redis://cache:6379
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ModeLive, c.Mode)
	assert.Equal(t, []string{"TSLA"}, c.Symbols)
	assert.Equal(t, 3, c.Ema.Period)
	assert.Equal(t, 5, c.Order.Qty)
	assert.Equal(t, FeedRedis, c.Feed.Source)
	assert.Equal(t, "redis://cache:6379", c.Feed.URL)
	assert.Equal(t, RedisChannel, c.Redis.Channel)
}

func TestLoadConfig_Credentials(t *testing.T) {
	t.Setenv("APCA_API_KEY_ID", "key")
	t.Setenv("APCA_API_SECRET_KEY", "secret")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")

	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.NoError(t, c.RequireAlpaca())

	chat, err := c.Credentials.TelegramChat()
	require.NoError(t, err)
	assert.Equal(t, int64(-1001), chat)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad mode", func(c *Config) { c.Mode = "PAPER" }, "invalid mode 'PAPER'"},
		{"bad feed", func(c *Config) { c.Feed.Source = "kafka" }, "invalid feed.source 'kafka'"},
		{"no symbols", func(c *Config) { c.Symbols = nil }, "symbols"},
		{"empty symbol", func(c *Config) { c.Symbols = []string{"AAPL", ""} }, "symbol"},
		{"zero period", func(c *Config) { c.Ema.Period = 0 }, "ema.period must be positive, got 0"},
		{"negative qty", func(c *Config) { c.Order.Qty = -1 }, "order.qty must be positive, got -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var traced interface{ StackTrace() errors.StackTrace }
			assert.True(t, errors.As(err, &traced), "validation errors carry a stack trace")
		})
	}

	c := DefaultConfig()
	assert.NoError(t, c.Validate())
}

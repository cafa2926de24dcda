package notify

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

const slackQueueSize = 16

// FromConfig always logs, and also sends to Telegram and Slack when enabled.
// The returned function flushes pending Slack messages.
func FromConfig(cfg *shared.Config) (dispatch.Notifier, func(), error) {
	notifiers := Multi{NewLog()}
	flush := func() {}

	if cfg.Notify.Telegram {
		chat, err := cfg.Credentials.TelegramChat()
		if err != nil {
			return nil, nil, errors.Wrap(err, "TELEGRAM_CHAT_ID")
		}
		telegram, err := NewTelegram(cfg.Credentials.TelegramToken, chat)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, telegram)
	}

	if cfg.Notify.Slack {
		if cfg.Credentials.SlackToken == "" || cfg.Credentials.SlackChannel == "" {
			return nil, nil, errors.New("SLACK_TOKEN and SLACK_CHANNEL must be set")
		}
		slack := NewAsync(NewSlack(cfg.Credentials.SlackToken, cfg.Credentials.SlackChannel), slackQueueSize)
		notifiers = append(notifiers, slack)
		flush = func() {
			ctx, cancel := context.WithTimeout(context.Background(), shared.TimeoutBeforeReturn)
			defer cancel()
			if err := slack.Close(ctx); err != nil {
				log.WithError(err).Warn("Pending slack notifications dropped")
			}
		}
	}

	return notifiers, flush, nil
}

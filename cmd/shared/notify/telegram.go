// Package notify sends feed connection messages to humans.
package notify

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	tb "gopkg.in/tucnak/telebot.v2"
)

// one message per second, as the bot API allows per chat
var telegramRate = rate.Limit(1)

type telegramSender interface {
	Send(to tb.Recipient, what interface{}, options ...interface{}) (*tb.Message, error)
}

type Telegram struct {
	bot     telegramSender
	chat    *tb.Chat
	limiter *rate.Limiter
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tb.NewBot(tb.Settings{Token: token})
	if err != nil {
		return nil, errors.Wrap(err, "create telegram bot")
	}
	return newTelegram(bot, chatID), nil
}

func newTelegram(bot telegramSender, chatID int64) *Telegram {
	return &Telegram{
		bot:     bot,
		chat:    &tb.Chat{ID: chatID},
		limiter: rate.NewLimiter(telegramRate, 1),
	}
}

func (t *Telegram) Notify(ctx context.Context, message string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "telegram rate limit")
	}
	if _, err := t.bot.Send(t.chat, message); err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}
	return nil
}

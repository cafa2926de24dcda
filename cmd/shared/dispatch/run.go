package dispatch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
)

var errFeedClosed = errors.New("feed connection closed")

type RunOptions struct {
	Reconnect     bool
	MaxReconnects uint64
	// InitialInterval of the reconnect backoff, shared.TimeBeforeReconnect when zero
	InitialInterval time.Duration
}

// Run drives feed with a session from newSession. Without Reconnect it returns after the first
// session ends: nil when it closed or ctx was cancelled, the feed error otherwise.
// With Reconnect, ended sessions are replaced with exponential backoff until ctx is done
// or MaxReconnects consecutive sessions ended without reaching Streaming.
func Run(ctx context.Context, feed Feed, newSession func() *Session, opts RunOptions) error {
	if !opts.Reconnect {
		_, err := runSession(ctx, feed, newSession())
		return ignoreCancel(ctx, err)
	}

	exp := backoff.NewExponentialBackOff()
	exp.MaxElapsedTime = 0
	if opts.InitialInterval > 0 {
		exp.InitialInterval = opts.InitialInterval
	} else {
		exp.InitialInterval = shared.TimeBeforeReconnect
	}

	var b backoff.BackOff = exp
	if opts.MaxReconnects > 0 {
		b = backoff.WithMaxRetries(b, opts.MaxReconnects)
	}

	err := backoff.RetryNotify(func() error {
		session := newSession()
		streamed, err := runSession(ctx, feed, session)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if streamed {
			b.Reset() // interval and retry count
		}
		if err == nil {
			return errFeedClosed
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, d time.Duration) {
		log.WithError(err).Warnf("Feed stopped, reconnecting in %s", d)
	})
	return ignoreCancel(ctx, err)
}

func runSession(ctx context.Context, feed Feed, session *Session) (bool, error) {
	err := feed.Run(ctx, session)
	// feeds normally end their session themselves, these are no-ops then
	if err != nil && ctx.Err() == nil {
		session.Fail(ctx, err)
	} else {
		session.Close(ctx)
	}
	if err == nil {
		err = session.Err()
	}
	return session.Streamed(), err
}

func ignoreCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

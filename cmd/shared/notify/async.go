package notify

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

var ErrQueueFull = errors.New("notification queue is full")

const asyncSendTimeout = 30 * time.Second

// Async hands messages to a background worker so a slow notifier never blocks the caller.
type Async struct {
	next   dispatch.Notifier
	queue  chan string
	logger log.FieldLogger

	once sync.Once
	done chan struct{}
}

func NewAsync(next dispatch.Notifier, size int) *Async {
	if size <= 0 {
		size = 1
	}
	a := &Async{
		next:   next,
		queue:  make(chan string, size),
		logger: log.WithField("component", "notify-async"),
		done:   make(chan struct{}),
	}
	go a.work()
	return a
}

func (a *Async) Notify(_ context.Context, message string) error {
	select {
	case a.queue <- message:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for the queued ones until ctx is done.
// Notify must not be called after Close.
func (a *Async) Close(ctx context.Context) error {
	a.once.Do(func() { close(a.queue) })
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) work() {
	defer close(a.done)
	for message := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), asyncSendTimeout)
		if err := a.next.Notify(ctx, message); err != nil {
			a.logger.WithError(err).Errorf("Failed to send notification %q", message)
		}
		cancel()
	}
}

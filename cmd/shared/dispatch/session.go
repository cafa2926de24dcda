package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Authenticated
	Subscribed
	Streaming
	Closed
	Errored
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Authenticated:
		return "Authenticated"
	case Subscribed:
		return "Subscribed"
	case Streaming:
		return "Streaming"
	case Closed:
		return "Closed"
	case Errored:
		return "Errored"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == Closed || s == Errored
}

var ErrInvalidTransition = errors.New("invalid feed state transition")

const (
	MessageStreaming = "Connected successfully. Streaming real-time data live."
	MessageClosed    = "Feed connection closed."
	messageErrored   = "Feed error: %v"

	notifyTimeout = 10 * time.Second
)

// forward edges of the connection handshake; Closed and Errored are reachable from any live state
var handshake = map[State]State{
	Disconnected:  Connecting,
	Connecting:    Authenticated,
	Authenticated: Subscribed,
	Subscribed:    Streaming,
}

func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to.Terminal() {
		return true
	}
	next, ok := handshake[from]
	return ok && next == to
}

// Session is the lifecycle of one feed connection. Trades reach the ingester only while Streaming.
type Session struct {
	ingester Ingester
	notifier Notifier
	logger   log.FieldLogger

	mu       sync.Mutex
	state    State
	streamed bool
	err      error
	done     chan struct{}
}

func NewSession(ingester Ingester, notifier Notifier) *Session {
	return &Session{
		ingester: ingester,
		notifier: notifier,
		logger:   log.WithField("component", "session"),
		done:     make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Streamed reports whether the session ever reached Streaming.
func (s *Session) Streamed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamed
}

// Done is closed when the session reaches Closed or Errored.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err is the cause of an Errored session.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Transition(ctx context.Context, next State) error {
	return s.transition(ctx, next, nil)
}

func (s *Session) Fail(ctx context.Context, err error) {
	if err == nil {
		err = errors.New("unknown feed error")
	}
	if e := s.transition(ctx, Errored, err); e != nil {
		s.logger.WithError(err).Debug("Ignoring feed error after the session ended")
	}
}

func (s *Session) Close(ctx context.Context) {
	if err := s.transition(ctx, Closed, nil); err != nil {
		s.logger.Debug("Session already ended")
	}
}

func (s *Session) Deliver(ctx context.Context, ev shared.TradeEvent) {
	if s.State() != Streaming {
		tradesDropped.Inc()
		return
	}
	s.ingester.OnTrade(ctx, ev)
}

func (s *Session) transition(ctx context.Context, next State, cause error) error {
	s.mu.Lock()
	prev := s.state
	if !canTransition(prev, next) {
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", prev, next)
	}
	s.state = next
	if next == Streaming {
		s.streamed = true
	}
	if next == Errored {
		s.err = cause
	}
	if next.Terminal() {
		close(s.done)
	}
	s.mu.Unlock()

	feedState.Set(float64(next))
	s.logger.Infof("Feed state %s -> %s", prev, next)

	switch next {
	case Streaming:
		s.notify(ctx, MessageStreaming)
	case Closed:
		s.notify(ctx, MessageClosed)
	case Errored:
		s.logger.WithError(cause).Error("Feed error")
		s.notify(ctx, fmt.Sprintf(messageErrored, cause))
	}
	return nil
}

// notify outlives a cancelled ctx so shutdown still reports the closed feed.
func (s *Session) notify(ctx context.Context, message string) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, message); err != nil {
		s.logger.WithError(err).Errorf("Failed to send notification %q", message)
	}
}

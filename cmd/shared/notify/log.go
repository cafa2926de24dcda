package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Log writes messages to the process log only.
type Log struct {
	logger log.FieldLogger
}

func NewLog() *Log {
	return &Log{logger: log.WithField("component", "notify")}
}

func (l *Log) Notify(_ context.Context, message string) error {
	l.logger.Info(message)
	return nil
}

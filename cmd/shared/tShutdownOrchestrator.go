package shared

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// ShutdownOrchestrator cancels a root context on SIGINT/SIGTERM and closes Done
// once every worker started with Go has returned.
type ShutdownOrchestrator struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	Done   chan struct{}
}

func (s *ShutdownOrchestrator) Start() {
	s.init()

	osCloseSignal := make(chan os.Signal, 1)
	signal.Notify(osCloseSignal, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(osCloseSignal)
		select {
		case sig := <-osCloseSignal:
			log.Infof("Received int/term signal, will quit: %v", sig)
			s.Shutdown()
		case <-s.ctx.Done():
		}
	}()
}

func (s *ShutdownOrchestrator) init() {
	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
		s.Done = make(chan struct{})
	}
}

// Context is cancelled when shutdown begins.
func (s *ShutdownOrchestrator) Context() context.Context {
	s.init()
	return s.ctx
}

// Go runs fn in its own goroutine; Done waits for it to return.
func (s *ShutdownOrchestrator) Go(name string, fn func(ctx context.Context)) {
	s.init()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
		log.Debugf("Worker %s stopped", name)
	}()
}

func (s *ShutdownOrchestrator) Shutdown() {
	s.init()
	s.once.Do(func() {
		s.cancel()
		go func() {
			s.wg.Wait()
			close(s.Done)
		}()
	})
}

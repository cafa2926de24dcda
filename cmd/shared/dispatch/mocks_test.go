package dispatch

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/kaanureyen/emabot/cmd/shared"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, req OrderRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, signal shared.TradeSignal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}

type collectingIngester struct {
	mu     sync.Mutex
	events []shared.TradeEvent
}

func (c *collectingIngester) OnTrade(_ context.Context, ev shared.TradeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectingIngester) Events() []shared.TradeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]shared.TradeEvent(nil), c.events...)
}

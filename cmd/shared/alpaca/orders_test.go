package alpaca

import (
	"context"
	"testing"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kaanureyen/emabot/cmd/shared/crossing"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

type mockPlacer struct {
	mock.Mock
}

func (m *mockPlacer) PlaceOrder(req alpacaapi.PlaceOrderRequest) (*alpacaapi.Order, error) {
	args := m.Called(req)
	order, _ := args.Get(0).(*alpacaapi.Order)
	return order, args.Error(1)
}

func marketOrder(symbol string, side crossing.Action) dispatch.OrderRequest {
	return dispatch.OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Qty:         1,
		Type:        dispatch.OrderTypeMarket,
		TimeInForce: dispatch.TimeInForceGTC,
	}
}

func TestOrders_Submit(t *testing.T) {
	placer := &mockPlacer{}
	placer.On("PlaceOrder", mock.MatchedBy(func(req alpacaapi.PlaceOrderRequest) bool {
		return req.Symbol == "AAPL" &&
			req.Side == alpacaapi.Buy &&
			req.Type == alpacaapi.Market &&
			req.TimeInForce == alpacaapi.GTC &&
			req.Qty != nil && req.Qty.IntPart() == 1
	})).Return(&alpacaapi.Order{ID: "order-1"}, nil).Once()
	placer.On("PlaceOrder", mock.MatchedBy(func(req alpacaapi.PlaceOrderRequest) bool {
		return req.Symbol == "MSFT" && req.Side == alpacaapi.Sell
	})).Return(nil, errors.New("insufficient qty")).Once()

	orders := &Orders{client: placer}

	id, err := orders.Submit(context.Background(), marketOrder("AAPL", crossing.Buy))
	require.NoError(t, err)
	assert.Equal(t, "order-1", id)

	_, err = orders.Submit(context.Background(), marketOrder("MSFT", crossing.Sell))
	assert.EqualError(t, err, "place sell order for MSFT: insufficient qty")

	placer.AssertExpectations(t)
}

func TestOrders_SubmitRejectsNone(t *testing.T) {
	placer := &mockPlacer{}
	orders := &Orders{client: placer}

	_, err := orders.Submit(context.Background(), marketOrder("AAPL", crossing.None))
	assert.Error(t, err)
	placer.AssertNotCalled(t, "PlaceOrder", mock.Anything)
}

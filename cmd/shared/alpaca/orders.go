package alpaca

import (
	"context"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/crossing"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

type orderPlacer interface {
	PlaceOrder(req alpacaapi.PlaceOrderRequest) (*alpacaapi.Order, error)
}

// Orders submits market orders through the Alpaca trading API.
type Orders struct {
	client orderPlacer
}

func NewOrders(key, secret, baseURL string) *Orders {
	if baseURL == "" {
		baseURL = shared.AlpacaPaperURL
	}
	return &Orders{
		client: alpacaapi.NewClient(alpacaapi.ClientOpts{
			APIKey:    key,
			APISecret: secret,
			BaseURL:   baseURL,
		}),
	}
}

func (o *Orders) Submit(ctx context.Context, req dispatch.OrderRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var side alpacaapi.Side
	switch req.Side {
	case crossing.Buy:
		side = alpacaapi.Buy
	case crossing.Sell:
		side = alpacaapi.Sell
	default:
		return "", errors.Errorf("no order side for action %s", req.Side)
	}

	qty := decimal.NewFromInt(int64(req.Qty))
	order, err := o.client.PlaceOrder(alpacaapi.PlaceOrderRequest{
		Symbol:      req.Symbol,
		Qty:         &qty,
		Side:        side,
		Type:        alpacaapi.OrderType(req.Type),
		TimeInForce: alpacaapi.TimeInForce(req.TimeInForce),
	})
	if err != nil {
		return "", errors.Wrapf(err, "place %s order for %s", req.Side.Side(), req.Symbol)
	}
	return order.ID, nil
}

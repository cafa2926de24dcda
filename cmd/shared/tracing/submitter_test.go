package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kaanureyen/emabot/cmd/shared/crossing"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

type submitFunc func(ctx context.Context, req dispatch.OrderRequest) (string, error)

func (f submitFunc) Submit(ctx context.Context, req dispatch.OrderRequest) (string, error) {
	return f(ctx, req)
}

func recordingSubmitter(next dispatch.OrderSubmitter) (*Submitter, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return &Submitter{next: next, tracer: provider.Tracer("test")}, recorder
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestSubmitter_Success(t *testing.T) {
	s, recorder := recordingSubmitter(&dispatch.DryRunSubmitter{})
	req := dispatch.OrderRequest{Symbol: "AAPL", Side: crossing.Buy, Qty: 2, Type: dispatch.OrderTypeMarket, TimeInForce: dispatch.TimeInForceGTC}

	id, err := s.Submit(context.Background(), req)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "order.submit", spans[0].Name())
	a := attrs(spans[0])
	assert.Equal(t, "AAPL", a["order.symbol"].AsString())
	assert.Equal(t, "buy", a["order.side"].AsString())
	assert.Equal(t, int64(2), a["order.qty"].AsInt64())
	assert.Equal(t, id, a["order.id"].AsString())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestSubmitter_Error(t *testing.T) {
	s, recorder := recordingSubmitter(submitFunc(func(ctx context.Context, req dispatch.OrderRequest) (string, error) {
		return "", errors.New("forbidden")
	}))

	_, err := s.Submit(context.Background(), dispatch.OrderRequest{Symbol: "MSFT", Side: crossing.Sell, Qty: 1})
	assert.EqualError(t, err, "forbidden")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "forbidden", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init("emabot-test", &buf)
	require.NoError(t, err)

	_, err = WrapSubmitter(&dispatch.DryRunSubmitter{}).Submit(context.Background(),
		dispatch.OrderRequest{Symbol: "GOOG", Side: crossing.Buy, Qty: 1})
	require.NoError(t, err)

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "order.submit")
	assert.Contains(t, buf.String(), "emabot-test")
}

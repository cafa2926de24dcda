package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

// Submitter records a span around every order submission of next.
type Submitter struct {
	next   dispatch.OrderSubmitter
	tracer trace.Tracer
}

func WrapSubmitter(next dispatch.OrderSubmitter) *Submitter {
	return &Submitter{next: next, tracer: otel.Tracer(instrumentation)}
}

func (s *Submitter) Submit(ctx context.Context, req dispatch.OrderRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "order.submit", trace.WithAttributes(
		attribute.String("order.symbol", req.Symbol),
		attribute.String("order.side", req.Side.Side()),
		attribute.Int("order.qty", req.Qty),
		attribute.String("order.type", req.Type),
	))
	defer span.End()

	id, err := s.next.Submit(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return id, err
	}
	span.SetAttributes(attribute.String("order.id", id))
	return id, nil
}

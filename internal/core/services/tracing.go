package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

var tracer = otel.Tracer("github.com/srgjo27/tiered_ticket/internal/core/services")

func startSpan(ctx context.Context, name string, addr domain.Address) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("ledger.address", addr.String())))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reprokit/cook/internal/domain"
	"github.com/reprokit/cook/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.TaskObserver = (*TracingObserver)(nil)

// TracingObserver implements the TaskObserver interface using
// OpenTelemetry, opening one span per task. Spans nest under whatever
// span is already active on the incoming context, so a caller tracing
// whole recipe runs gets tasks as children.
type TracingObserver struct {
	tracer trace.Tracer
}

// NewTracingObserver creates the observer using the globally configured
// tracer provider.
func NewTracingObserver() *TracingObserver {
	return &TracingObserver{tracer: otel.Tracer("cook-chef")}
}

// TaskStarted opens the task span and returns the span context.
func (t *TracingObserver) TaskStarted(ctx context.Context, family domain.Family, opType string, targets int) context.Context {
	ctx, _ = t.tracer.Start(ctx, "cook.task",
		trace.WithAttributes(
			attribute.String("task.kind", string(family)),
			attribute.String("task.type", opType),
			attribute.Int("task.targets", targets),
		),
	)
	return ctx
}

// TaskCompleted closes the task span, recording failure when the task
// aborted the recipe.
func (t *TracingObserver) TaskCompleted(ctx context.Context, _ domain.Family, _ string, duration time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int64("task.duration_ms", duration.Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

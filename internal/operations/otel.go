package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sharkclean/internal/infrastructure"
)

// TracerName is the instrumentation scope for job spans
const TracerName = "sharkclean/jobs"

// JobTracer wraps job runs in spans
type JobTracer struct {
	tracer trace.Tracer
}

// NewJobTracer creates a tracer. A nil tracer falls back to the global
// provider.
func NewJobTracer(tracer trace.Tracer) *JobTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &JobTracer{tracer: tracer}
}

// StartJob opens the span for one run. The returned func ends it with the
// run's outcome.
func (t *JobTracer) StartJob(ctx context.Context, job *Job) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := t.tracer.Start(ctx, "job.clean",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.input", job.Input),
			attribute.String("job.source", string(job.Source)),
			attribute.Bool("job.impute", job.Options.Impute),
		),
	)

	return ctx, func(err error) {
		defer span.End()
		span.SetAttributes(attribute.Float64("job.duration_seconds", time.Since(start).Seconds()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return
		}
		span.SetStatus(codes.Ok, "job completed")
	}
}

// StepEvent adds a step transition to the job span
func (t *JobTracer) StepEvent(ctx context.Context, u StepUpdate) {
	infrastructure.AddSpanEvent(ctx, "job.step",
		attribute.String("step", u.Step),
		attribute.String("status", u.Status),
		attribute.String("message", u.Message),
	)
}

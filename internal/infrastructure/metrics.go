package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds the service-level instruments. Pipeline internals
// are measured by dataprocessing.PipelineMetrics.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	JobsSubmitted    metric.Int64Counter
	JobsFinished     metric.Int64Counter
	JobDuration      metric.Float64Histogram
	ActiveJobs       metric.Int64UpDownCounter
	JobCancellations metric.Int64Counter

	ValuesClassified metric.Int64Counter

	SystemErrors metric.Int64Counter
}

// CreateBusinessMetrics registers every instrument on meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
		{&m.JobsSubmitted, "cleaning_jobs_submitted_total", "Cleaning jobs submitted, by source"},
		{&m.JobsFinished, "cleaning_jobs_finished_total", "Cleaning jobs finished, by status"},
		{&m.JobCancellations, "cleaning_job_cancellations_total", "Cleaning jobs cancelled while pending or running"},
		{&m.ValuesClassified, "time_values_classified_total", "Values classified through the classify endpoint, by category"},
		{&m.SystemErrors, "system_errors_total", "Requests answered with a 5xx status"},
	}
	for _, c := range counters {
		var err error
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	gauges := []struct {
		dst  *metric.Int64UpDownCounter
		name string
		desc string
	}{
		{&m.HTTPActiveRequests, "http_active_requests", "HTTP requests in flight"},
		{&m.ActiveJobs, "cleaning_jobs_active", "Cleaning jobs currently running"},
	}
	for _, g := range gauges {
		var err error
		if *g.dst, err = meter.Int64UpDownCounter(g.name, metric.WithDescription(g.desc)); err != nil {
			return nil, err
		}
	}

	var err error
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	// cleaning the full GSAF log takes seconds, not milliseconds
	if m.JobDuration, err = meter.Float64Histogram("cleaning_job_duration_seconds",
		metric.WithDescription("Cleaning job duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120)); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordJobSubmitted counts a queued cleaning job
func RecordJobSubmitted(ctx context.Context, metrics *BusinessMetrics, source string) {
	if metrics == nil {
		return
	}
	metrics.JobsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("job.source", source)))
}

// RecordJobStarted moves the active job gauge
func RecordJobStarted(ctx context.Context, metrics *BusinessMetrics) {
	if metrics == nil {
		return
	}
	metrics.ActiveJobs.Add(ctx, 1)
}

// RecordJobFinished records status and duration of a job that ran and
// releases its slot in the active gauge.
func RecordJobFinished(ctx context.Context, metrics *BusinessMetrics, status string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	metrics.ActiveJobs.Add(ctx, -1)
	metrics.JobsFinished.Add(ctx, 1, attrs)
	metrics.JobDuration.Record(ctx, duration.Seconds(), attrs)
	if status == "cancelled" {
		metrics.JobCancellations.Add(ctx, 1)
	}
}

// RecordClassified counts classify endpoint results per category code
func RecordClassified(ctx context.Context, metrics *BusinessMetrics, counts map[string]int) {
	if metrics == nil {
		return
	}
	for code, n := range counts {
		if n > 0 {
			metrics.ValuesClassified.Add(ctx, int64(n), metric.WithAttributes(attribute.String("category", code)))
		}
	}
}

package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"sharkclean/pkg/contracts/domain"
)

const instrumentationName = "sharkclean/dataprocessing"

// PipelineOptions controls which steps DefaultSteps builds
type PipelineOptions struct {
	// Impute turns on mode/mean filling in the species, fatal, year and
	// activity steps.
	Impute          bool
	DuplicateSubset []string
	ColumnRenames   map[string]string
	Classifier      *TimeClassifier
	Workers         int

	// Survey adds the gender/education/state lookups
	Survey bool
	// ImputeRemaining fills every other gap with the column mode or mean
	ImputeRemaining bool
	// FillValue, when set, is written into any cell still missing at the end
	FillValue string
}

// DefaultPipelineOptions mirrors the standard GSAF cleaning run
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Impute:          true,
		DuplicateSubset: []string{domain.ColumnCaseNumber},
		ColumnRenames:   DefaultColumnRenames,
	}
}

// DefaultSteps returns the cleaning steps in execution order
func DefaultSteps(opts PipelineOptions) []Step {
	steps := []Step{
		&NormalizeColumnsStep{Renames: opts.ColumnRenames},
		&DuplicatesStep{Subset: opts.DuplicateSubset},
		NewCountryStep(),
		NewSexStep(),
		NewSpeciesStep(opts.Impute),
		NewTimeStep(opts.Classifier, opts.Workers),
		NewFatalStep(opts.Impute),
		NewYearStep(opts.Impute),
		NewActivityStep(opts.Impute),
		NewTypeStep(),
	}
	if opts.Survey {
		steps = append(steps, NewSurveyStep())
	}
	if opts.ImputeRemaining {
		steps = append(steps, ImputeRemainingStep{})
	}
	if opts.FillValue != "" {
		steps = append(steps, &FillStep{Value: domain.ParseCell(opts.FillValue)})
	}
	return steps
}

// PipelineMetrics are the OpenTelemetry instruments recorded by a Pipeline
type PipelineMetrics struct {
	RowsProcessed  metric.Int64Counter
	TimeCategories metric.Int64Counter
	StepDuration   metric.Float64Histogram
	StepErrors     metric.Int64Counter
}

// NewPipelineMetrics registers the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rows, err := meter.Int64Counter(
		"cleaning_rows_processed_total",
		metric.WithDescription("Total number of incident rows cleaned"),
	)
	if err != nil {
		return nil, err
	}

	categories, err := meter.Int64Counter(
		"cleaning_time_categories_total",
		metric.WithDescription("Incident times classified, by category"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"cleaning_step_duration_seconds",
		metric.WithDescription("Cleaning step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter(
		"cleaning_step_errors_total",
		metric.WithDescription("Cleaning steps that failed or were skipped"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RowsProcessed:  rows,
		TimeCategories: categories,
		StepDuration:   duration,
		StepErrors:     stepErrors,
	}, nil
}

// ProgressFunc is called after every step with the number of steps done
type ProgressFunc func(done, total int, result domain.StepResult)

// Pipeline runs an ordered list of steps over a copy of a table
type Pipeline struct {
	steps   []Step
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *PipelineMetrics
}

// PipelineOption customizes a Pipeline
type PipelineOption func(*Pipeline)

// WithSteps replaces the default steps
func WithSteps(steps ...Step) PipelineOption {
	return func(p *Pipeline) { p.steps = steps }
}

// WithTracer sets the tracer used for step spans
func WithTracer(t trace.Tracer) PipelineOption {
	return func(p *Pipeline) { p.tracer = t }
}

// WithMetrics sets the metric instruments
func WithMetrics(m *PipelineMetrics) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates a pipeline with DefaultSteps(opts). Tracing and metrics
// use the global OpenTelemetry providers unless overridden.
func NewPipeline(opts PipelineOptions, logger *slog.Logger, options ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		steps:  DefaultSteps(opts),
		logger: logger.With(slog.String("component", "pipeline")),
		tracer: otel.Tracer(instrumentationName),
	}
	for _, o := range options {
		o(p)
	}
	if p.metrics == nil {
		m, err := NewPipelineMetrics(otel.Meter(instrumentationName))
		if err != nil {
			p.logger.Warn("pipeline metrics unavailable", slog.String("error", err.Error()))
		}
		p.metrics = m
	}
	return p
}

// Steps returns the step names in order
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return names
}

// Run cleans a copy of in and returns it with a report. The input table is
// not modified. A step whose column is missing is recorded as skipped and
// the run continues; any other step error aborts the run.
func (p *Pipeline) Run(ctx context.Context, in *domain.Table, progress ProgressFunc) (*domain.Table, *domain.CleaningReport, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.Int("rows", in.Len()), attribute.Int("steps", len(p.steps))))
	defer span.End()

	out := in.Clone()
	report := &domain.CleaningReport{
		RowsIn:    in.Len(),
		StartedAt: time.Now(),
	}

	p.logger.InfoContext(ctx, "Cleaning started",
		slog.Int("rows", in.Len()),
		slog.Int("columns", len(in.Columns)))

	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, report, err
		}
		result, err := p.runStep(ctx, step, out)
		report.Steps = append(report.Steps, result)
		if err != nil && !errors.Is(err, ErrColumnMissing) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, report, fmt.Errorf("step %s: %w", step.Name(), err)
		}
		if progress != nil {
			progress(i+1, len(p.steps), result)
		}
	}

	report.RowsOut = out.Len()
	report.Columns = len(out.Columns)
	report.CompletedAt = time.Now()
	if values, err := out.Column(domain.ColumnTime); err == nil {
		report.TimeBuckets = bucketsFromCodes(values)
		p.recordBuckets(ctx, report.TimeBuckets)
	}
	if p.metrics != nil {
		p.metrics.RowsProcessed.Add(ctx, int64(report.RowsOut))
	}

	p.logger.InfoContext(ctx, "Cleaning completed",
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Duration("duration", report.Duration()))

	return out, report, nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, t *domain.Table) (domain.StepResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.step."+step.Name())
	defer span.End()

	start := time.Now()
	result, err := step.Apply(ctx, t)
	if result.Step == "" {
		result.Step = step.Name()
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}

	span.SetAttributes(
		attribute.String("step", result.Step),
		attribute.Int("changed", result.Changed),
		attribute.Int("filled", result.Filled),
		attribute.Int("removed", result.Removed),
	)

	status := "success"
	switch {
	case errors.Is(err, ErrColumnMissing):
		status = "skipped"
		span.AddEvent("column missing", trace.WithAttributes(attribute.String("column", result.Column)))
		p.logger.WarnContext(ctx, "Cleaning step skipped",
			slog.String("step", result.Step),
			slog.String("column", result.Column),
			slog.String("reason", err.Error()))
	case err != nil:
		status = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "Cleaning step failed",
			slog.String("step", result.Step),
			slog.String("error", err.Error()))
	default:
		p.logger.DebugContext(ctx, "Cleaning step finished",
			slog.String("step", result.Step),
			slog.Int("changed", result.Changed),
			slog.Int("filled", result.Filled),
			slog.Int("removed", result.Removed),
			slog.Duration("duration", result.Duration))
	}

	if p.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("step", result.Step), attribute.String("status", status))
		p.metrics.StepDuration.Record(ctx, result.Duration.Seconds(), attrs)
		if err != nil {
			p.metrics.StepErrors.Add(ctx, 1, attrs)
		}
	}
	return result, err
}

func (p *Pipeline) recordBuckets(ctx context.Context, buckets map[string]int) {
	if p.metrics == nil {
		return
	}
	for code, n := range buckets {
		p.metrics.TimeCategories.Add(ctx, int64(n), metric.WithAttributes(attribute.String("category", code)))
	}
}

// bucketsFromCodes counts a classified time column
func bucketsFromCodes(values []domain.Value) map[string]int {
	categories := make([]domain.TimeCategory, 0, len(values))
	for _, v := range values {
		c, err := domain.ParseTimeCategory(v.String())
		if err != nil {
			continue
		}
		categories = append(categories, c)
	}
	return CountCategories(categories)
}

package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"sharkclean/internal/config"
	"sharkclean/internal/dataprocessing"
	"sharkclean/internal/errors"
	"sharkclean/internal/exporter"
	"sharkclean/internal/operations"
	"sharkclean/pkg/contracts/domain"
	"sharkclean/pkg/contracts/events"
)

// Job steps that wrap the pipeline steps
const (
	StepLoad   = "load"
	StepExport = "export"
)

// TableSink receives a cleaned table outside the data directory
type TableSink interface {
	WriteTable(ctx context.Context, t *domain.Table) error
}

// SinkFactory opens a TableSink on demand
type SinkFactory func(ctx context.Context) (TableSink, error)

// CleanOptions tune a single cleaning run
type CleanOptions struct {
	Sheet  string
	Impute bool
}

// CleaningService loads incident logs, runs the cleaning pipeline over them
// and writes the results. It is the Runner behind the job queue.
type CleaningService struct {
	cfg     *config.Config
	paths   *config.Paths
	tracer  trace.Tracer
	metrics *dataprocessing.PipelineMetrics
	sheets  SinkFactory
	logger  *slog.Logger
}

// CleaningOption configures a CleaningService
type CleaningOption func(*CleaningService)

// WithPipelineTracer opens pipeline spans on t
func WithPipelineTracer(t trace.Tracer) CleaningOption {
	return func(s *CleaningService) { s.tracer = t }
}

// WithPipelineMetrics records pipeline instruments on m
func WithPipelineMetrics(m *dataprocessing.PipelineMetrics) CleaningOption {
	return func(s *CleaningService) { s.metrics = m }
}

// WithSheetsSink replaces the Google Sheets writer
func WithSheetsSink(f SinkFactory) CleaningOption {
	return func(s *CleaningService) { s.sheets = f }
}

// NewCleaningService creates the service over the directories in paths
func NewCleaningService(cfg *config.Config, paths *config.Paths, logger *slog.Logger, opts ...CleaningOption) *CleaningService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CleaningService{
		cfg:    cfg,
		paths:  paths,
		logger: logger.With(slog.String("service", "cleaning")),
	}
	s.sheets = s.defaultSheets
	for _, o := range opts {
		o(s)
	}

	s.logger.Info("CleaningService initialized",
		slog.String("raw_dir", paths.RawDir),
		slog.String("clean_dir", paths.CleanDir),
		slog.Bool("impute", cfg.Cleaning.Impute),
		slog.Bool("sheets_enabled", cfg.Sheets.Enabled))
	return s
}

// Pipeline builds a pipeline for one run
func (s *CleaningService) Pipeline(impute bool) *dataprocessing.Pipeline {
	opts := dataprocessing.DefaultPipelineOptions()
	opts.Impute = impute
	opts.Workers = s.cfg.Cleaning.BatchWorkers
	opts.Survey = s.cfg.Cleaning.SurveyMappings
	opts.ImputeRemaining = s.cfg.Cleaning.ImputeRemaining
	opts.FillValue = s.cfg.Cleaning.FillValue
	if len(s.cfg.Cleaning.DuplicateSubset) > 0 {
		opts.DuplicateSubset = s.cfg.Cleaning.DuplicateSubset
	}

	var options []dataprocessing.PipelineOption
	if s.tracer != nil {
		options = append(options, dataprocessing.WithTracer(s.tracer))
	}
	if s.metrics != nil {
		options = append(options, dataprocessing.WithMetrics(s.metrics))
	}
	return dataprocessing.NewPipeline(opts, s.logger, options...)
}

// JobSteps implements operations.Runner
func (s *CleaningService) JobSteps(job *operations.Job) []string {
	steps := []string{StepLoad}
	steps = append(steps, s.Pipeline(job.Options.Impute).Steps()...)
	return append(steps, StepExport)
}

// Run implements operations.Runner. It loads job.Input from the raw
// directory, cleans it and exports every output the job options ask for.
func (s *CleaningService) Run(ctx context.Context, job *operations.Job, report operations.Reporter) (*operations.JobResult, error) {
	logger := s.logger.With(slog.String("job_id", job.ID), slog.String("input", job.Input))

	report(operations.StepUpdate{Step: StepLoad, Status: events.StatusRunning, Message: "Loading " + job.Input})
	table, err := dataprocessing.LoadTable(s.paths.RawPath(job.Input), dataprocessing.LoadOptions{Sheet: s.sheetFor(job.Options.Sheet)})
	if err != nil {
		report(operations.StepUpdate{Step: StepLoad, Status: events.StatusFailed, Message: err.Error()})
		return nil, err
	}
	report(operations.StepUpdate{
		Step:     StepLoad,
		Status:   events.StatusCompleted,
		Message:  fmt.Sprintf("Loaded %d rows", table.Len()),
		Metadata: map[string]interface{}{"rows": table.Len(), "columns": len(table.Columns)},
	})

	cleaned, cleaningReport, err := s.CleanTable(ctx, table, job.Options.Impute, report)
	if err != nil {
		return nil, err
	}
	cleaningReport.Source = job.Input

	report(operations.StepUpdate{Step: StepExport, Status: events.StatusRunning, Message: "Writing outputs"})
	outputs, err := s.Export(ctx, cleaned, job.Input, job.Options)
	if err != nil {
		report(operations.StepUpdate{Step: StepExport, Status: events.StatusFailed, Message: err.Error()})
		return nil, err
	}
	report(operations.StepUpdate{
		Step:     StepExport,
		Status:   events.StatusCompleted,
		Message:  fmt.Sprintf("Wrote %d outputs", len(outputs)),
		Metadata: map[string]interface{}{"outputs": outputs},
	})

	logger.InfoContext(ctx, "Cleaning job finished",
		slog.Int("rows_in", cleaningReport.RowsIn),
		slog.Int("rows_out", cleaningReport.RowsOut),
		slog.Any("outputs", outputs))

	return &operations.JobResult{Outputs: outputs, Report: cleaningReport}, nil
}

// CleanTable runs the pipeline over t. Step progress goes to report when it
// is not nil.
func (s *CleaningService) CleanTable(ctx context.Context, t *domain.Table, impute bool, report operations.Reporter) (*domain.Table, *domain.CleaningReport, error) {
	pipeline := s.Pipeline(impute)
	names := pipeline.Steps()
	if report == nil {
		report = func(operations.StepUpdate) {}
	}

	if len(names) > 0 {
		report(operations.StepUpdate{Step: names[0], Status: events.StatusRunning})
	}
	cleaned, cleaningReport, err := pipeline.Run(ctx, t, func(done, total int, result domain.StepResult) {
		status := events.StatusCompleted
		if result.Skipped {
			status = events.StatusSkipped
		}
		report(operations.StepUpdate{
			Step:    result.Step,
			Status:  status,
			Message: result.Reason,
			Metadata: map[string]interface{}{
				"changed": result.Changed,
				"filled":  result.Filled,
				"removed": result.Removed,
			},
		})
		if done < total {
			report(operations.StepUpdate{Step: names[done], Status: events.StatusRunning})
		}
	})
	if err != nil {
		// A cancelled run stops between steps, so the last result succeeded.
		if ctx.Err() == nil && cleaningReport != nil && len(cleaningReport.Steps) > 0 {
			last := cleaningReport.Steps[len(cleaningReport.Steps)-1]
			report(operations.StepUpdate{Step: last.Step, Status: events.StatusFailed, Message: err.Error()})
		}
		return nil, cleaningReport, err
	}
	return cleaned, cleaningReport, nil
}

// Clean reads an uploaded workbook or CSV file and cleans it in memory
func (s *CleaningService) Clean(ctx context.Context, r io.Reader, filename string, opts CleanOptions) (*domain.Table, *domain.CleaningReport, error) {
	table, err := ReadUpload(r, filename, dataprocessing.LoadOptions{Sheet: s.sheetFor(opts.Sheet)})
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "Cleaning upload",
		slog.String("filename", filename),
		slog.Int("rows", table.Len()))

	cleaned, report, err := s.CleanTable(ctx, table, opts.Impute, nil)
	if err != nil {
		return nil, report, err
	}
	report.Source = filepath.Base(filename)
	return cleaned, report, nil
}

// ReadUpload parses r according to the extension of filename
func ReadUpload(r io.Reader, filename string, opts dataprocessing.LoadOptions) (*domain.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return dataprocessing.ReadWorkbook(r, opts)
	case ".csv":
		return dataprocessing.ReadCSV(r)
	case ".xls":
		return nil, errors.NewUnsupportedError(
			fmt.Sprintf("%s is a legacy .xls workbook; convert it to .xlsx first", filepath.Base(filename)),
			dataprocessing.ErrUnsupportedFormat)
	default:
		return nil, errors.NewUnsupportedError(
			fmt.Sprintf("cannot read %s", filepath.Base(filename)),
			dataprocessing.ErrUnsupportedFormat).WithContext("filename", filepath.Base(filename))
	}
}

// Export writes the cleaned workbook and any optional outputs. It returns
// the paths written; a Sheets push is listed as "sheets:<tab>".
func (s *CleaningService) Export(ctx context.Context, t *domain.Table, input string, opts operations.JobOptions) ([]string, error) {
	var outputs []string

	out := opts.Output
	if out == "" {
		out = config.CleanedName(input, ".xlsx")
	}
	path, err := exporter.NewXLSXWriter(s.paths, s.cfg.Cleaning.OutputSheet, s.logger).WriteTable(out, t)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, path)

	csvWriter := exporter.NewCSVWriter(s.paths, s.logger)
	if opts.ExportCSV {
		name := opts.CSVOutput
		if name == "" {
			name = config.CleanedName(input, ".csv")
		}
		path, err := csvWriter.WriteTable(name, t)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}

	if opts.Summary {
		summaries := dataprocessing.NewSummarizer(s.logger, dataprocessing.SummarizerConfig{}).Summarize(t)
		name := opts.SummaryOutput
		if name == "" {
			name = config.SummaryName(input)
		}
		path, err := csvWriter.WriteSummary(name, summaries)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, path)
	}

	if opts.PushToSheets {
		sink, err := s.sheets(ctx)
		if err != nil {
			return outputs, err
		}
		if err := sink.WriteTable(ctx, t); err != nil {
			return outputs, err
		}
		outputs = append(outputs, "sheets:"+s.cfg.Sheets.SheetName)
	}

	return outputs, nil
}

func (s *CleaningService) defaultSheets(ctx context.Context) (TableSink, error) {
	if !s.cfg.Sheets.Enabled {
		return nil, errors.NewAppError(errors.ErrTypeValidation, "sheets export requested but not enabled", ErrSheetsDisabled)
	}
	return exporter.NewSheetsWriter(ctx, s.cfg.Sheets, s.paths.CredentialsFile, s.logger)
}

func (s *CleaningService) sheetFor(sheet string) string {
	if sheet != "" {
		return sheet
	}
	return s.cfg.Cleaning.Sheet
}

// Package services implements the business logic between the HTTP handlers
// and the cleaning packages.
//
// # Available Services
//
//   - CleaningService: loads an incident log, runs the cleaning pipeline and
//     writes the cleaned workbook, optional CSV, summary and Sheets outputs.
//     It implements operations.Runner, so the job queue runs it directly.
//   - ClassifyService: buckets raw time values into M/T/N/Unknown.
//   - DatasetService: lists and profiles the files in the raw directory.
//   - HealthService: liveness, readiness, version and system statistics.
//
// Services take their dependencies in the constructor and log through the
// injected *slog.Logger:
//
//	svc := services.NewCleaningService(cfg, paths, logger,
//	    services.WithPipelineTracer(providers.Tracer))
//	cleaned, report, err := svc.Clean(ctx, file, header.Filename, services.CleanOptions{Impute: true})
//
// # Error Handling
//
// Errors are *errors.AppError values (validation, not found, unsupported,
// storage) that the HTTP error handler maps to problem responses.
package services

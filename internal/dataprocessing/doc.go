// Package dataprocessing cleans the Global Shark Attack File incident log.
// It covers loading a worksheet into a domain.Table, the per-column cleaning
// steps and the pipeline that runs them, plus profiling and summaries.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parser: reads xlsx workbooks (excelize) and CSV files into tables
// 2. Classifier: buckets free-text incident times into M, T, N or Unknown
// 3. Pipeline: ordered Steps (columns, duplicates, country, sex, species,
// time, fatal, year, activity, type) run over a copy of the input
// 4. Analysis: profiling of gaps and kinds, incident summaries
//
// # Usage
//
// Cleaning a workbook:
//
//	table, err := dataprocessing.LoadTable("GSAF5.xlsx", dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//	pipeline := dataprocessing.NewPipeline(dataprocessing.DefaultPipelineOptions(), logger)
//	cleaned, report, err := pipeline.Run(ctx, table, nil)
//
// Classifying a single value:
//
//	category := dataprocessing.ClassifyTime(domain.Text("Before 10h00")) // M
//
// # Column lookups
//
// Country, sex, species, type and activity cleaning are declarative Mapping
// tables with a Fallback policy. Imputation (mode, mean, integer mean) is
// configured per step rather than per table.
//
// # Error Handling
//
// The classifier never fails. A step whose column is absent returns
// ErrColumnMissing; the pipeline logs it and continues. Load errors are
// returned as *errors.AppError values.
package dataprocessing

// Command cleaner cleans a GSAF incident log from the command line.
//
//	cleaner -in GSAF5.xlsx -out GSAF5_clean.xlsx -csv GSAF5_clean.csv -summary summary.csv -head 10
//	cleaner -in GSAF5.xlsx -impute-all -fill -1
//
// Relative output paths land in the clean and reports directories of the
// configured data dir; -in is read as given.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"sharkclean/internal/config"
	"sharkclean/internal/dataprocessing"
	"sharkclean/internal/infrastructure"
	"sharkclean/internal/operations"
	"sharkclean/internal/services"
	"sharkclean/internal/validation"
	"sharkclean/pkg/contracts/domain"
)

type options struct {
	In         string
	Out        string
	CSV        string
	Summary    string
	Sheet      string
	Head       int
	Profile    bool
	Sheets     bool
	Impute     bool
	ImputeAll  bool
	Fill       string
	Survey     bool
	ConfigFile string

	// imputeSet records an explicit -impute; otherwise cleaning.impute wins
	imputeSet bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("cleaner", flag.ContinueOnError)
	fs.StringVar(&o.In, "in", "", "input workbook (.xlsx) or CSV file")
	fs.StringVar(&o.Out, "out", "", "cleaned workbook path (defaults to <input>_clean.xlsx)")
	fs.StringVar(&o.CSV, "csv", "", "also write the cleaned table as CSV to this path")
	fs.StringVar(&o.Summary, "summary", "", "write the incident summary CSV to this path")
	fs.StringVar(&o.Sheet, "sheet", "", "sheet to read (defaults to the first sheet)")
	fs.IntVar(&o.Head, "head", 0, "print the first n cleaned rows")
	fs.BoolVar(&o.Profile, "profile", false, "print a JSON profile of the raw table before cleaning")
	fs.BoolVar(&o.Sheets, "sheets", false, "push the cleaned table to Google Sheets")
	fs.BoolVar(&o.Impute, "impute", true, "fill missing species, fatal, year and activity values (defaults to cleaning.impute)")
	fs.BoolVar(&o.ImputeAll, "impute-all", false, "after cleaning, fill every remaining gap with its column mode or mean")
	fs.StringVar(&o.Fill, "fill", "", "after cleaning, write this value into every cell still missing (e.g. -1)")
	fs.BoolVar(&o.Survey, "survey", false, "also apply the gender, education and state lookups")
	fs.StringVar(&o.ConfigFile, "config", "", "config file (defaults to config.yaml search)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "impute" {
			o.imputeSet = true
		}
	})
	if o.In == "" {
		return o, fmt.Errorf("-in is required")
	}
	if o.Head < 0 {
		return o, fmt.Errorf("-head must not be negative")
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var cfg *config.Config
	if o.ConfigFile != "" {
		cfg, err = config.LoadFile(o.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		logger = slog.Default()
		logger.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, cfg, os.Stdout, logger); err != nil {
		logger.Error("Cleaning failed", slog.String("input", o.In), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// withConfig fills the options the command line left unset
func (o options) withConfig(cfg *config.Config) options {
	if !o.imputeSet {
		o.Impute = cfg.Cleaning.Impute
	}
	return o
}

// cleaningConfig layers the gap-filling flags over cfg without mutating it
func (o options) cleaningConfig(cfg *config.Config) *config.Config {
	c := *cfg
	if o.ImputeAll {
		c.Cleaning.ImputeRemaining = true
	}
	if o.Fill != "" {
		c.Cleaning.FillValue = o.Fill
	}
	if o.Survey {
		c.Cleaning.SurveyMappings = true
	}
	return &c
}

// jobOptions maps the output flags onto an export request
func (o options) jobOptions() operations.JobOptions {
	return operations.JobOptions{
		Sheet:         o.Sheet,
		Output:        o.Out,
		Impute:        o.Impute,
		ExportCSV:     o.CSV != "",
		CSVOutput:     o.CSV,
		Summary:       o.Summary != "",
		SummaryOutput: o.Summary,
		PushToSheets:  o.Sheets,
	}
}

func run(ctx context.Context, o options, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	o = o.withConfig(cfg)
	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("create data directories: %w", err)
	}

	in, err := filepath.Abs(o.In)
	if err != nil {
		return err
	}
	files := validation.NewFileValidator(logger)
	if err := files.ValidateInputFile(in); err != nil {
		return err
	}
	if err := files.ValidateOutputDirectory(paths.CleanDir); err != nil {
		return err
	}
	sheet := o.Sheet
	if sheet == "" {
		sheet = cfg.Cleaning.Sheet
	}

	table, err := dataprocessing.LoadTable(in, dataprocessing.LoadOptions{Sheet: sheet})
	if err != nil {
		return err
	}
	rows, cols := table.Shape()
	logger.Info("Loaded incident log", slog.String("input", in), slog.Int("rows", rows), slog.Int("columns", cols))

	if o.Profile {
		profile, err := dataprocessing.Profile(table, dataprocessing.ProfileOptions{
			SparseThreshold: cfg.Cleaning.SparseThreshold,
			DuplicateSubset: cfg.Cleaning.DuplicateSubset,
		})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(profile); err != nil {
			return err
		}
	}

	cleaning := services.NewCleaningService(o.cleaningConfig(cfg), paths, logger)
	cleaned, report, err := cleaning.CleanTable(ctx, table, o.Impute, nil)
	if err != nil {
		return err
	}
	report.Source = filepath.Base(in)

	outputs, err := cleaning.Export(ctx, cleaned, filepath.Base(in), o.jobOptions())
	if err != nil {
		return err
	}

	if o.Head > 0 {
		fmt.Fprint(stdout, cleaned.Head(o.Head).String())
	}

	logReport(logger, report, outputs)
	return nil
}

func logReport(logger *slog.Logger, report *domain.CleaningReport, outputs []string) {
	for _, step := range report.Steps {
		logger.Info("Cleaning step",
			slog.String("step", step.Step),
			slog.Bool("skipped", step.Skipped),
			slog.String("reason", step.Reason),
			slog.Int("changed", step.Changed),
			slog.Int("filled", step.Filled),
			slog.Int("removed", step.Removed))
	}
	logger.Info("Cleaning complete",
		slog.String("source", report.Source),
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Any("time_buckets", report.TimeBuckets),
		slog.Duration("duration", report.Duration()),
		slog.Any("outputs", outputs))
}

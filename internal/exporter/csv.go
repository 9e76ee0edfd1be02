package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"sharkclean/internal/config"
	"sharkclean/internal/dataprocessing"
	"sharkclean/internal/errors"
	"sharkclean/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer. paths may be nil when every path
// passed in is absolute.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool
}

// WriteCSV writes records to fullPath, creating parent directories
func (w *CSVWriter) WriteCSV(fullPath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err).WithContext("path", fullPath)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return errors.NewStorageError("failed to open file", err).WithContext("path", fullPath)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return errors.NewStorageError("failed to write BOM", err)
		}
	}

	headers := options.Headers
	if options.Append {
		headers = nil
	}
	if err := writeRecords(file, headers, options.Records); err != nil {
		return errors.NewStorageError("failed to write CSV", err).WithContext("path", fullPath)
	}
	return nil
}

// WriteTable writes a cleaned table. Relative paths land in the clean
// directory.
func (w *CSVWriter) WriteTable(path string, t *domain.Table) (string, error) {
	fullPath := w.resolve(path, w.cleanPath)
	return fullPath, w.WriteCSV(fullPath, WriteOptions{
		Headers:   t.Columns,
		Records:   t.Records(),
		BOMPrefix: true,
	})
}

// WriteSummary writes incident summaries. Relative paths land in the
// reports directory.
func (w *CSVWriter) WriteSummary(path string, summaries []domain.IncidentSummary) (string, error) {
	fullPath := w.resolve(path, w.reportPath)
	return fullPath, w.WriteCSV(fullPath, WriteOptions{
		Headers:   dataprocessing.SummaryHeaders,
		Records:   dataprocessing.SummaryRecords(summaries),
		BOMPrefix: true,
	})
}

// EncodeTable streams t as CSV without a BOM, for HTTP downloads
func EncodeTable(out io.Writer, t *domain.Table) error {
	return writeRecords(out, t.Columns, t.Records())
}

func writeRecords(out io.Writer, headers []string, records [][]string) error {
	writer := csv.NewWriter(out)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (w *CSVWriter) cleanPath(name string) string  { return w.paths.CleanPath(name) }
func (w *CSVWriter) reportPath(name string) string { return w.paths.ReportPath(name) }

// resolve keeps absolute paths and places relative ones with dir
func (w *CSVWriter) resolve(path string, dir func(string) string) string {
	if filepath.IsAbs(path) || w.paths == nil {
		return path
	}
	return dir(path)
}

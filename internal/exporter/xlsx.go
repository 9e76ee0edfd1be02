package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sharkclean/internal/config"
	"sharkclean/internal/errors"
	"sharkclean/pkg/contracts/domain"
)

// DefaultSheetName is used when no sheet name is configured
const DefaultSheetName = "cleaned"

// XLSXWriter writes tables into single-sheet workbooks
type XLSXWriter struct {
	paths     *config.Paths
	sheetName string
	logger    *slog.Logger
}

// NewXLSXWriter creates a workbook writer. Relative paths resolve into the
// clean directory when paths is set.
func NewXLSXWriter(paths *config.Paths, sheetName string, logger *slog.Logger) *XLSXWriter {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{paths: paths, sheetName: sheetName, logger: logger}
}

// WriteTable saves t as a workbook and returns the path written
func (w *XLSXWriter) WriteTable(path string, t *domain.Table) (string, error) {
	fullPath := path
	if !filepath.IsAbs(path) && w.paths != nil {
		fullPath = w.paths.CleanPath(path)
	}

	w.logger.Info("Writing workbook",
		slog.String("path", fullPath),
		slog.Int("rows", t.Len()),
		slog.String("sheet", w.sheetName))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", errors.NewStorageError("failed to create directory", err).WithContext("path", fullPath)
	}

	f, err := w.build(t)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(fullPath); err != nil {
		return "", errors.NewStorageError("failed to save workbook", err).WithContext("path", fullPath)
	}
	return fullPath, nil
}

// Encode streams t as a workbook to out, for HTTP downloads
func (w *XLSXWriter) Encode(out io.Writer, t *domain.Table) error {
	f, err := w.build(t)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return errors.NewStorageError("failed to write workbook", err)
	}
	return nil
}

// build lays t out with excelize's stream writer, which keeps memory flat
// for the full incident log.
func (w *XLSXWriter) build(t *domain.Table) (*excelize.File, error) {
	f := excelize.NewFile()

	defaultSheet := f.GetSheetName(0)
	if defaultSheet != w.sheetName {
		if err := f.SetSheetName(defaultSheet, w.sheetName); err != nil {
			f.Close()
			return nil, errors.NewAppValidationError(fmt.Sprintf("invalid sheet name %q", w.sheetName)).
				WithContext("sheet", w.sheetName)
		}
	}

	sw, err := f.NewStreamWriter(w.sheetName)
	if err != nil {
		f.Close()
		return nil, errors.NewStorageError("failed to open stream writer", err)
	}

	for i, row := range tableRows(t, cellValue) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, errors.NewStorageError("failed to address row", err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			f.Close()
			return nil, errors.NewStorageError(fmt.Sprintf("failed to write row %d", i+1), err)
		}
	}

	if err := sw.Flush(); err != nil {
		f.Close()
		return nil, errors.NewStorageError("failed to flush workbook", err)
	}
	return f, nil
}

// Package validation checks incident-log files before the loaders open them,
// so command line tools fail with a clear message instead of a parser error.
package validation

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sharkclean/internal/errors"
)

var (
	// ErrNotWorkbook is returned for .xlsx files that are not zip archives
	ErrNotWorkbook = stderrors.New("file is not an OOXML workbook")
	// ErrLegacyWorkbook is returned for binary .xls files
	ErrLegacyWorkbook = stderrors.New("legacy .xls workbooks must be converted to .xlsx")
)

// zipMagic opens every OOXML package
var zipMagic = []byte("PK\x03\x04")

// FileValidator validates input files and output directories
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateInputFile checks that path is a readable workbook or CSV file
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist", slog.String("file", path))
		return errors.NewNotFoundError("input file").WithContext("path", path)
	}
	if err != nil {
		return errors.NewStorageError("failed to stat input file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Refusing Excel lock file", slog.String("file", path))
		return errors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel file", base))
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		if err := checkMagic(path); err != nil {
			v.logger.Error("Workbook failed signature check", slog.String("file", path), slog.String("error", err.Error()))
			return err
		}
	case ".csv":
		if err := checkReadable(path); err != nil {
			return err
		}
	case ".xls":
		return errors.NewUnsupportedError(base, ErrLegacyWorkbook)
	default:
		return errors.NewUnsupportedError(fmt.Sprintf("unsupported input extension %q", ext), nil).WithContext("path", path)
	}

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory", slog.String("directory", dir), slog.String("error", err.Error()))
		return errors.NewStorageError("failed to create output directory", err).WithContext("path", dir)
	}

	tmp, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable", slog.String("directory", dir), slog.String("error", err.Error()))
		return errors.NewStorageError("output directory is not writable", err).WithContext("path", dir)
	}
	tmp.Close()
	os.Remove(tmp.Name())
	return nil
}

func checkMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewStorageError("input file is not readable", err).WithContext("path", path)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, zipMagic) {
		return errors.NewParsingError(filepath.Base(path), ErrNotWorkbook)
	}
	return nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewStorageError("input file is not readable", err).WithContext("path", path)
	}
	return f.Close()
}

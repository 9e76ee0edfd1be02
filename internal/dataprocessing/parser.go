package dataprocessing

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sharkclean/internal/errors"
	"sharkclean/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for inputs that are neither OOXML
// workbooks nor CSV files.
var ErrUnsupportedFormat = stderrors.New("unsupported input format")

// LoadOptions controls how an input file becomes a Table
type LoadOptions struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string
}

// LoadTable reads a workbook or CSV file, chosen by extension
func LoadTable(path string, opts LoadOptions) (*domain.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return LoadWorkbook(path, opts)
	case ".csv":
		return LoadCSV(path)
	case ".xls":
		return nil, errors.NewUnsupportedError(
			fmt.Sprintf("%s is a legacy .xls workbook; convert it to .xlsx first", filepath.Base(path)),
			ErrUnsupportedFormat)
	default:
		return nil, errors.NewUnsupportedError(
			fmt.Sprintf("cannot load %s", filepath.Base(path)), ErrUnsupportedFormat)
	}
}

// LoadWorkbook reads one sheet of an xlsx file
func LoadWorkbook(path string, opts LoadOptions) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("workbook").WithContext("file", filepath.Base(path))
		}
		return nil, errors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	return readWorkbook(f, opts)
}

// ReadWorkbook reads one sheet of an xlsx stream
func ReadWorkbook(r io.Reader, opts LoadOptions) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	return readWorkbook(f, opts)
}

func readWorkbook(f *excelize.File, opts LoadOptions) (*domain.Table, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	// Raw values keep numbers unformatted; workbookCell decides which are numerals
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}

	table, err := tableFromRecords(rows, workbookCell(f, sheet))
	if err != nil {
		return nil, err
	}

	slog.Debug("Workbook loaded",
		slog.String("sheet", sheet),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))
	return table, nil
}

// LoadCSV reads a CSV file whose first record is the header
func LoadCSV(path string) (*domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("workbook").WithContext("file", filepath.Base(path))
		}
		return nil, errors.NewStorageError("failed to open CSV", err).WithContext("path", path)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV reads CSV records from r
func ReadCSV(r io.Reader) (*domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("failed to read CSV", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return tableFromRecords(records, csvCell)
}

// cellParser turns the raw text at records[row][col] into a Value
type cellParser func(row, col int, raw string) domain.Value

func csvCell(_, _ int, raw string) domain.Value {
	return domain.ParseCellStrict(raw)
}

// workbookCell trusts the stored cell type: only number cells become
// numerals, so text such as "0830" keeps its leading zero.
func workbookCell(f *excelize.File, sheet string) cellParser {
	return func(row, col int, raw string) domain.Value {
		if raw == "" {
			return domain.Absent()
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return domain.Text(raw)
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return domain.ParseCell(raw)
		}
		typ, err := f.GetCellType(sheet, cell)
		if err != nil {
			return domain.ParseCell(raw)
		}
		switch typ {
		case excelize.CellTypeUnset, excelize.CellTypeNumber:
			return domain.ParseNumber(raw)
		default:
			return domain.Text(raw)
		}
	}
}

// tableFromRecords uses the first non-empty record as the header and skips
// records that are entirely empty.
func tableFromRecords(records [][]string, parse cellParser) (*domain.Table, error) {
	header := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, errors.NewParsingError("no header row found", nil)
	}

	table := domain.NewTable(records[header])
	for r := header + 1; r < len(records); r++ {
		rec := records[r]
		if blankRecord(rec) {
			continue
		}
		cells := make([]domain.Value, len(rec))
		for i, raw := range rec {
			cells[i] = parse(r, i, raw)
		}
		table.AppendRow(cells)
	}
	return table, nil
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if cell != "" {
			return false
		}
	}
	return true
}

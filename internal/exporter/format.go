package exporter

import (
	"sharkclean/pkg/contracts/domain"
)

// cellValue converts v to what a workbook cell should hold. Numerals stay
// numeric so spreadsheet formulas work on year and fatal columns.
func cellValue(v domain.Value) interface{} {
	switch v.Kind() {
	case domain.KindNumeral:
		f, _ := v.Num()
		return f
	case domain.KindText:
		return v.Str()
	default:
		return nil
	}
}

// sheetValue is cellValue for the Sheets API, which wants "" for blanks
func sheetValue(v domain.Value) interface{} {
	if c := cellValue(v); c != nil {
		return c
	}
	return ""
}

func headerRow(columns []string) []interface{} {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	return row
}

// tableRows renders t with its header for row-oriented writers
func tableRows(t *domain.Table, convert func(domain.Value) interface{}) [][]interface{} {
	rows := make([][]interface{}, 0, len(t.Rows)+1)
	rows = append(rows, headerRow(t.Columns))
	for _, r := range t.Rows {
		row := make([]interface{}, len(r))
		for i, v := range r {
			row[i] = convert(v)
		}
		rows = append(rows, row)
	}
	return rows
}

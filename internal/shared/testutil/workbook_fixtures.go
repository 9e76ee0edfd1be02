package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// IncidentHeader mirrors the column headings of the GSAF incident log,
// including its stray trailing spaces.
var IncidentHeader = []interface{}{
	"Case Number", "Date", "Year", "Type", "Country", "Area", "Activity",
	"Sex ", "Age", "Fatal (Y/N)", "Time", "Species ",
}

// IncidentRows is a small messy sample of the incident log. Row 4 repeats
// the case number of row 1.
var IncidentRows = [][]interface{}{
	{"2018.06.25", "25-Jun-2018", 2018, "Boating", "USA", "California", "Paddling", "F", 57, "N", "18h00", "White shark"},
	{"2018.06.18", "18-Jun-2018", 2018, " Provoked", "ENGLAND", "Cornwall", " Standing", "M ", 11, "Y", "Early morning", "Invalid"},
	{"2018.06.09", "09-Jun-2018", 0, "Invalid", "NEW CALEDONIA", "Noumea", nil, "lli", nil, "UNKNOWN", 1415, "Tiger shark"},
	{"2018.06.25", "25-Jun-2018", 2018, "Boating", "USA", "California", "Paddling", "F", 57, "N", "18h00", "White shark"},
	{"2018.06.03", "03-Jun-2018", 2016, "Unprovoked", nil, nil, "Standing", nil, nil, " N", "Dusk", "Wobbegong"},
}

// WriteWorkbook writes header and rows to the first sheet of a new xlsx file
// in a temp directory and returns its path.
func WriteWorkbook(t *testing.T, name string, header []interface{}, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	write := func(row int, values []interface{}) {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			t.Fatalf("write row %d: %v", row, err)
		}
	}

	write(1, header)
	for i, r := range rows {
		write(i+2, r)
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// WriteIncidentWorkbook writes the sample incident log and returns its path.
func WriteIncidentWorkbook(t *testing.T) string {
	t.Helper()
	return WriteWorkbook(t, "GSAF5.xlsx", IncidentHeader, IncidentRows)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	t := NewTable([]string{ColumnCaseNumber, ColumnTime})
	t.AppendRow([]Value{Text("2018.06.25"), Text("18h00")})
	t.AppendRow([]Value{Text("2018.06.18")})
	t.AppendRow([]Value{Text("2018.06.09"), Text("Dusk"), Text("extra")})
	return t
}

func TestTable_AppendRowPads(t *testing.T) {
	table := sampleTable()
	rows, cols := table.Shape()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.True(t, table.Rows[1][1].IsAbsent(), "short rows are padded")
	assert.Len(t, table.Rows[2], 2, "long rows are truncated")
}

func TestTable_Columns(t *testing.T) {
	table := sampleTable()

	col, err := table.Column(ColumnTime)
	require.NoError(t, err)
	assert.Equal(t, "18h00", col[0].String())

	col[0] = Text("changed")
	assert.Equal(t, "18h00", table.Rows[0][1].String(), "Column returns a copy")

	require.NoError(t, table.SetColumn(ColumnTime, []Value{Text("N"), Text("Unknown"), Text("T")}))
	assert.Equal(t, "T", table.Rows[2][1].String())
	assert.Error(t, table.SetColumn(ColumnTime, []Value{Text("N")}))
	assert.Error(t, table.SetColumn("missing", nil))

	require.NoError(t, table.RenameColumn(ColumnTime, "time_bucket"))
	assert.False(t, table.HasColumn(ColumnTime))
	assert.Equal(t, 1, table.ColumnIndex("time_bucket"))
	assert.Error(t, table.RenameColumn(ColumnTime, "x"))
	_, err = table.Column(ColumnTime)
	assert.Error(t, err)
}

func TestTable_CloneAndHead(t *testing.T) {
	table := sampleTable()
	clone := table.Clone()
	clone.Rows[0][1] = Text("N")
	clone.Columns[0] = "id"
	assert.Equal(t, "18h00", table.Rows[0][1].String())
	assert.Equal(t, ColumnCaseNumber, table.Columns[0])

	assert.Equal(t, 2, table.Head(2).Len())
	assert.Equal(t, 3, table.Head(10).Len())
	assert.Equal(t, 0, table.Head(-1).Len())
}

func TestTable_Records(t *testing.T) {
	table := NewTable([]string{ColumnYear, ColumnSex})
	table.AppendRow([]Value{Numeral(2018), Absent()})

	assert.Equal(t, [][]string{{"2018", ""}}, table.Records())
	assert.Equal(t, "year | sex\n2018 | \n", table.String())
}

func TestCleaningReport(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	report := &CleaningReport{
		StartedAt:   start,
		CompletedAt: start.Add(1500 * time.Millisecond),
		Steps:       []StepResult{{Step: "time", Changed: 4}, {Step: "year", Filled: 2}},
	}
	assert.Equal(t, 1500*time.Millisecond, report.Duration())

	step, ok := report.Step("year")
	require.True(t, ok)
	assert.Equal(t, 2, step.Filled)
	_, ok = report.Step("species")
	assert.False(t, ok)
}

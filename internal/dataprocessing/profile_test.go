package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkclean/pkg/contracts/domain"
)

func profileTable() *domain.Table {
	table := domain.NewTable([]string{"case_number", "year", "country", "time"})
	table.AppendRow([]domain.Value{domain.Text("A1"), domain.Numeral(2018), domain.Text("USA"), domain.Text("Dusk")})
	table.AppendRow([]domain.Value{domain.Text("A2"), domain.Absent(), domain.Absent(), domain.Absent()})
	table.AppendRow([]domain.Value{domain.Text("A1"), domain.Numeral(2018), domain.Text("USA"), domain.Text("Dusk")})
	table.AppendRow([]domain.Value{domain.Text("A3"), domain.Numeral(1999), domain.Text("FIJI"), domain.Absent()})
	return table
}

func TestColumnKinds(t *testing.T) {
	table := profileTable()
	assert.Equal(t, []string{"case_number", "country", "time"}, CategoricalColumns(table))
	assert.Equal(t, []string{"year"}, NumericalColumns(table))
}

func TestUniqueValues(t *testing.T) {
	unique, err := UniqueValues(profileTable(), "country")
	require.NoError(t, err)
	assert.Equal(t, []domain.Value{domain.Text("USA"), domain.Absent(), domain.Text("FIJI")}, unique)

	_, err = UniqueValues(profileTable(), "missing")
	assert.ErrorIs(t, err, ErrColumnMissing)
}

func TestSparseRows(t *testing.T) {
	table := profileTable()
	assert.Equal(t, 1, SparseRows(table, 3))
	assert.Equal(t, 2, SparseRows(table, 1))
}

func TestProfile(t *testing.T) {
	profile, err := Profile(profileTable(), ProfileOptions{DuplicateSubset: []string{"case_number"}})
	require.NoError(t, err)

	assert.Equal(t, 4, profile.Rows)
	assert.Equal(t, DefaultSparseThreshold, profile.SparseThreshold)
	assert.Equal(t, 1, profile.SparseRows)
	assert.Equal(t, 2, profile.DuplicateKeys)
	require.Len(t, profile.Columns, 4)

	timeCol := profile.Columns[3]
	assert.Equal(t, "time", timeCol.Name)
	assert.Equal(t, KindCategorical, timeCol.Kind)
	assert.Equal(t, 2, timeCol.Missing)
	assert.InDelta(t, 50.0, timeCol.MissingPercent, 1e-9)
	assert.Equal(t, 2, timeCol.Unique)

	year := profile.Columns[1]
	assert.Equal(t, KindNumerical, year.Kind)
	assert.Empty(t, year.Samples)
}

func TestFindDuplicates(t *testing.T) {
	dups, err := FindDuplicates(profileTable(), "case_number")
	require.NoError(t, err)
	assert.Equal(t, 2, dups.Len())

	whole, err := FindDuplicates(profileTable())
	require.NoError(t, err)
	assert.Equal(t, 2, whole.Len())
}

func TestDropDuplicates_WholeRow(t *testing.T) {
	table := profileTable()
	removed, err := DropDuplicates(table)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 3, table.Len())
}

func TestProfile_RawHeaders(t *testing.T) {
	table := domain.NewTable([]string{"Case Number", "Sex ", "St"})
	table.AppendRow([]domain.Value{domain.Text("A1"), domain.Text("F"), domain.Text("Hawaii")})
	table.AppendRow([]domain.Value{domain.Text("A1"), domain.Text("M"), domain.Absent()})
	table.AppendRow([]domain.Value{domain.Text("A2"), domain.Absent(), domain.Absent()})

	profile, err := Profile(table, ProfileOptions{DuplicateSubset: []string{"case_number"}})
	require.NoError(t, err)
	assert.Equal(t, 2, profile.DuplicateKeys)
	assert.Empty(t, profile.MissingSubset)

	names := make([]string, len(profile.Columns))
	for i, c := range profile.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"case_number", "sex", "state"}, names)
	assert.Equal(t, []string{"Case Number", "Sex ", "St"}, table.Columns, "input header is untouched")

	bySt, err := Profile(table, ProfileOptions{DuplicateSubset: []string{"St"}})
	require.NoError(t, err)
	assert.Empty(t, bySt.MissingSubset, "renamed columns resolve")
}

func TestProfile_MissingSubsetColumn(t *testing.T) {
	profile, err := Profile(profileTable(), ProfileOptions{DuplicateSubset: []string{"case_number", "date"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"date"}, profile.MissingSubset)
	assert.Zero(t, profile.DuplicateKeys)
	assert.Equal(t, 4, profile.Rows)
	assert.Len(t, profile.Columns, 4)
}

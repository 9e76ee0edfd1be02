package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkclean/pkg/contracts/domain"
)

func TestMode(t *testing.T) {
	tests := []struct {
		name    string
		values  []domain.Value
		exclude []string
		want    domain.Value
		ok      bool
	}{
		{
			name:   "text majority",
			values: []domain.Value{domain.Text("b"), domain.Text("a"), domain.Text("b"), domain.Absent()},
			want:   domain.Text("b"), ok: true,
		},
		{
			name:   "text tie takes smallest",
			values: []domain.Value{domain.Text("b"), domain.Text("a")},
			want:   domain.Text("a"), ok: true,
		},
		{
			name:   "numeric tie takes smallest",
			values: []domain.Value{domain.Numeral(1), domain.Numeral(0), domain.Numeral(1), domain.Numeral(0)},
			want:   domain.Numeral(0), ok: true,
		},
		{
			name:   "numeric majority",
			values: []domain.Value{domain.Numeral(3), domain.Numeral(7), domain.Numeral(7)},
			want:   domain.Numeral(7), ok: true,
		},
		{
			name:    "excluded values ignored",
			values:  []domain.Value{domain.Text("Unknown"), domain.Text("Unknown"), domain.Text("Large")},
			exclude: []string{"Unknown"},
			want:    domain.Text("Large"), ok: true,
		},
		{
			name:   "all absent",
			values: []domain.Value{domain.Absent(), domain.Absent()},
			want:   domain.Absent(), ok: false,
		},
		{
			name:   "mixed prefers numbers on tie",
			values: []domain.Value{domain.Text("x"), domain.Numeral(2)},
			want:   domain.Numeral(2), ok: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Mode(tt.values, tt.exclude...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMean(t *testing.T) {
	mean, ok := Mean([]domain.Value{domain.Numeral(1), domain.Numeral(2), domain.Text("x"), domain.Absent(), domain.Numeral(6)})
	require.True(t, ok)
	assert.InDelta(t, 3.0, mean, 1e-9)

	_, ok = Mean([]domain.Value{domain.Text("x")})
	assert.False(t, ok)
}

func TestFillAbsent(t *testing.T) {
	in := []domain.Value{domain.Absent(), domain.Text("Unknown"), domain.Text("Large")}
	out, filled := FillAbsent(in, domain.Text("Medium"), "Unknown")
	assert.Equal(t, 2, filled)
	assert.Equal(t, []domain.Value{domain.Text("Medium"), domain.Text("Medium"), domain.Text("Large")}, out)
}

func TestFillMissing(t *testing.T) {
	table := singleColumn("age", domain.Numeral(30), domain.Absent())
	filled, err := FillMissing(table, "age", MissingSentinel)
	require.NoError(t, err)
	assert.Equal(t, 1, filled)
	values, _ := table.Column("age")
	assert.Equal(t, domain.Numeral(-1), values[1])

	_, err = FillMissing(table, "nope", MissingSentinel)
	assert.ErrorIs(t, err, ErrColumnMissing)
}

func TestImputeAll(t *testing.T) {
	table := domain.NewTable([]string{"age", "gender", "full", "empty"})
	table.AppendRow([]domain.Value{domain.Numeral(20), domain.Text("F"), domain.Text("x"), domain.Absent()})
	table.AppendRow([]domain.Value{domain.Numeral(40), domain.Text("F"), domain.Text("y"), domain.Absent()})
	table.AppendRow([]domain.Value{domain.Absent(), domain.Absent(), domain.Text("z"), domain.Absent()})

	results := ImputeAll(table)
	require.Len(t, results, 3)

	age, _ := table.Column("age")
	assert.Equal(t, domain.Numeral(30), age[2])
	gender, _ := table.Column("gender")
	assert.Equal(t, domain.Text("F"), gender[2])

	assert.Equal(t, "empty", results[2].Column)
	assert.True(t, results[2].Skipped)
}

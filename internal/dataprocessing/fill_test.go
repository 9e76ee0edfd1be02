package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharkclean/pkg/contracts/domain"
)

func TestSurveyStep(t *testing.T) {
	table := domain.NewTable([]string{"gender", "state"})
	table.AppendRow([]domain.Value{domain.Text("Male"), domain.Text("Cali")})
	table.AppendRow([]domain.Value{domain.Text("Femal"), domain.Text("Oregon")})

	result, err := NewSurveyStep().Apply(context.Background(), table)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 3, result.Changed)

	gender, _ := table.Column("gender")
	assert.Equal(t, []domain.Value{domain.Text("M"), domain.Text("F")}, gender)
	state, _ := table.Column("state")
	assert.Equal(t, []domain.Value{domain.Text("California"), domain.Text("Oregon")}, state)
}

func TestSurveyStep_NoColumns(t *testing.T) {
	table := singleColumn("time", domain.Text("Night"))

	result, err := NewSurveyStep().Apply(context.Background(), table)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "no survey columns", result.Reason)
}

func TestImputeRemainingStep(t *testing.T) {
	table := domain.NewTable([]string{"area", "age"})
	table.AppendRow([]domain.Value{domain.Text("Florida"), domain.Numeral(20)})
	table.AppendRow([]domain.Value{domain.Text("Florida"), domain.Absent()})
	table.AppendRow([]domain.Value{domain.Absent(), domain.Numeral(40)})

	result, err := ImputeRemainingStep{}.Apply(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, "impute_all", result.Step)
	assert.Equal(t, 2, result.Filled)

	area, _ := table.Column("area")
	assert.Equal(t, domain.Text("Florida"), area[2])
	age, _ := table.Column("age")
	assert.Equal(t, domain.Numeral(30), age[1])
}

func TestFillStep(t *testing.T) {
	table := domain.NewTable([]string{"area", "age"})
	table.AppendRow([]domain.Value{domain.Absent(), domain.Numeral(20)})
	table.AppendRow([]domain.Value{domain.Absent(), domain.Absent()})

	step := &FillStep{Value: domain.ParseCell("-1")}
	result, err := step.Apply(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Filled)
	assert.Equal(t, "-1", result.FillValue)

	for _, row := range table.Rows {
		for _, v := range row {
			assert.False(t, v.IsAbsent())
		}
	}
	area, _ := table.Column("area")
	assert.Equal(t, domain.Numeral(-1), area[0])
}

func TestFillSteps_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := singleColumn("gender", domain.Text("Male"))
	for _, step := range []Step{NewSurveyStep(), ImputeRemainingStep{}, &FillStep{Value: domain.Numeral(-1)}} {
		_, err := step.Apply(ctx, table)
		assert.ErrorIs(t, err, context.Canceled, step.Name())
	}
}

package dataprocessing

import (
	"context"
	"sort"
	"time"

	"sharkclean/pkg/contracts/domain"
)

// SurveyStep applies lookup tables to whichever of their columns the table
// has. A table with none of them is skipped, not failed.
type SurveyStep struct {
	Mappings map[string]Mapping
}

// NewSurveyStep returns a SurveyStep over SurveyMappings
func NewSurveyStep() *SurveyStep {
	return &SurveyStep{Mappings: SurveyMappings}
}

// Name implements Step
func (s *SurveyStep) Name() string { return "survey" }

// Apply implements Step
func (s *SurveyStep) Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error) {
	start := time.Now()
	result := domain.StepResult{Step: s.Name()}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	columns := make([]string, 0, len(s.Mappings))
	for col := range s.Mappings {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	applied := 0
	for _, col := range columns {
		values, err := t.Column(col)
		if err != nil {
			continue
		}
		out, changed := s.Mappings[col].ApplyColumn(values)
		if err := t.SetColumn(col, out); err != nil {
			return result, err
		}
		result.Changed += changed
		applied++
	}
	if applied == 0 {
		result.Skipped = true
		result.Reason = "no survey columns"
	}
	result.Duration = time.Since(start)
	return result, nil
}

// ImputeRemainingStep runs ImputeAll over the columns earlier steps left
// with gaps.
type ImputeRemainingStep struct{}

// Name implements Step
func (ImputeRemainingStep) Name() string { return "impute_all" }

// Apply implements Step
func (s ImputeRemainingStep) Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error) {
	start := time.Now()
	result := domain.StepResult{Step: s.Name()}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	for _, r := range ImputeAll(t) {
		result.Filled += r.Filled
	}
	result.Duration = time.Since(start)
	return result, nil
}

// FillStep writes Value into every cell still missing, like a final
// fill_nulls(-1) over the whole table.
type FillStep struct {
	Value domain.Value
}

// Name implements Step
func (s *FillStep) Name() string { return "fill" }

// Apply implements Step
func (s *FillStep) Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error) {
	start := time.Now()
	result := domain.StepResult{Step: s.Name(), FillValue: s.Value.String()}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	for _, col := range t.Columns {
		filled, err := FillMissing(t, col, s.Value)
		if err != nil {
			return result, err
		}
		result.Filled += filled
	}
	result.Duration = time.Since(start)
	return result, nil
}

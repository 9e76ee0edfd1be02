package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sharkclean/pkg/contracts/domain"
)

// ErrColumnMissing is returned when a step's column is not in the table
var ErrColumnMissing = errors.New("column missing")

func columnMissing(column string) error {
	return fmt.Errorf("%w: %s", ErrColumnMissing, column)
}

// Imputation selects how a column step fills the gaps it leaves
type Imputation uint8

const (
	ImputeNone Imputation = iota
	// ImputeMode fills with the most frequent value
	ImputeMode
	// ImputeMean fills with the mean of the numeric cells
	ImputeMean
	// ImputeIntMean fills with the integer part of the mean
	ImputeIntMean
)

// Step is one stage of the cleaning pipeline. Apply mutates t in place.
type Step interface {
	Name() string
	Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error)
}

// ColumnStep transforms one column and optionally imputes what is left
// missing.
type ColumnStep struct {
	StepName string
	Column   string
	// Aliases are alternative header names; the first one found is renamed
	// to Column before the step runs.
	Aliases   []string
	Transform func([]domain.Value) ([]domain.Value, int)
	Impute    Imputation
	// ImputeAlso lists cell texts treated as missing when imputing
	ImputeAlso []string
}

// Name implements Step
func (s *ColumnStep) Name() string { return s.StepName }

// Apply implements Step
func (s *ColumnStep) Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error) {
	start := time.Now()
	result := domain.StepResult{Step: s.StepName, Column: s.Column}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if !t.HasColumn(s.Column) {
		for _, alias := range s.Aliases {
			if t.HasColumn(alias) {
				_ = t.RenameColumn(alias, s.Column)
				break
			}
		}
	}

	values, err := t.Column(s.Column)
	if err != nil {
		result.Skipped = true
		result.Reason = "column not found"
		return result, columnMissing(s.Column)
	}

	if s.Transform != nil {
		values, result.Changed = s.Transform(values)
	}

	if s.Impute != ImputeNone {
		fill, ok := s.fillValue(values)
		if ok {
			values, result.Filled = FillAbsent(values, fill, s.ImputeAlso...)
			result.FillValue = fill.String()
		} else {
			result.Reason = "no values to impute from"
		}
	}

	if err := t.SetColumn(s.Column, values); err != nil {
		return result, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (s *ColumnStep) fillValue(values []domain.Value) (domain.Value, bool) {
	switch s.Impute {
	case ImputeMode:
		return Mode(values, s.ImputeAlso...)
	case ImputeMean, ImputeIntMean:
		mean, ok := Mean(values)
		if !ok {
			return domain.Absent(), false
		}
		if s.Impute == ImputeIntMean {
			mean = math.Trunc(mean)
		}
		return domain.Numeral(mean), true
	}
	return domain.Absent(), false
}

// MappingTransform adapts a Mapping to a ColumnStep transform
func MappingTransform(m Mapping) func([]domain.Value) ([]domain.Value, int) {
	return m.ApplyColumn
}

// NewMappingStep builds a step that applies m to its named column
func NewMappingStep(m Mapping, impute Imputation, imputeAlso ...string) *ColumnStep {
	return &ColumnStep{
		StepName:   m.Name,
		Column:     m.Name,
		Transform:  MappingTransform(m),
		Impute:     impute,
		ImputeAlso: imputeAlso,
	}
}

// NewCountryStep folds country names
func NewCountryStep() *ColumnStep {
	return NewMappingStep(CountryMapping, ImputeNone)
}

// NewSexStep keeps M and F and drops noise codes
func NewSexStep() *ColumnStep {
	return NewMappingStep(SexMapping, ImputeNone)
}

// NewSpeciesStep buckets species by size and fills gaps and Unknown with
// the most common size.
func NewSpeciesStep(impute bool) *ColumnStep {
	if !impute {
		return NewMappingStep(SpeciesSizeMapping, ImputeNone)
	}
	return NewMappingStep(SpeciesSizeMapping, ImputeMode, UnknownLabel)
}

// NewTypeStep drops unverified incident types
func NewTypeStep() *ColumnStep {
	return NewMappingStep(TypeMapping, ImputeNone)
}

// NewActivityStep trims activities and fills gaps with the most common one
func NewActivityStep(impute bool) *ColumnStep {
	return NewMappingStep(ActivityMapping, imputeIf(impute, ImputeMode))
}

// fatalNoise are raw texts dropped before the Y/N decision. They are
// matched before trimming.
var fatalNoise = map[string]struct{}{
	"UNKNOWN": {},
	"Nq":      {},
	"F":       {},
	" N":      {},
	"N ":      {},
}

// FatalFlag converts a raw Y/N cell into 1, 0 or Absent
func FatalFlag(v domain.Value) domain.Value {
	if v.IsAbsent() {
		return v
	}
	if n, ok := v.Num(); ok && n == 2017 {
		return domain.Absent()
	}
	if _, ok := fatalNoise[v.Str()]; ok {
		return domain.Absent()
	}
	switch strings.ToUpper(strings.TrimSpace(v.String())) {
	case "Y", "Y X 2":
		return domain.Numeral(1)
	}
	return domain.Numeral(0)
}

// NewFatalStep renames fatal_y/n (or the "Fatal (Y/N)" heading) to fatal and
// encodes it as 1/0
func NewFatalStep(impute bool) *ColumnStep {
	return &ColumnStep{
		StepName:  "fatal",
		Column:    domain.ColumnFatal,
		Aliases:   []string{domain.ColumnFatalRaw, "fatal_(y/n)"},
		Transform: perValue(FatalFlag),
		Impute:    imputeIf(impute, ImputeMode),
	}
}

// Year bounds accepted by YearValue
const (
	MinYear = 1000
	MaxYear = 9999
)

// YearValue keeps four digit years and drops everything else.
// Fractional numbers are truncated.
func YearValue(v domain.Value) domain.Value {
	var year int
	switch v.Kind() {
	case domain.KindNumeral:
		n, _ := v.Num()
		year = int(n)
	case domain.KindText:
		parsed, err := strconv.Atoi(strings.TrimSpace(v.Str()))
		if err != nil {
			return domain.Absent()
		}
		year = parsed
	default:
		return v
	}
	if year < MinYear || year > MaxYear {
		return domain.Absent()
	}
	return domain.Numeral(float64(year))
}

// NewYearStep validates years and fills gaps with the integer mean
func NewYearStep(impute bool) *ColumnStep {
	return &ColumnStep{
		StepName:  "year",
		Column:    domain.ColumnYear,
		Transform: perValue(YearValue),
		Impute:    imputeIf(impute, ImputeIntMean),
	}
}

// TimeStep replaces the time column with time-of-day codes
type TimeStep struct {
	Classifier *TimeClassifier
	Column     string
	Workers    int
}

// NewTimeStep returns a TimeStep for the time column
func NewTimeStep(classifier *TimeClassifier, workers int) *TimeStep {
	if classifier == nil {
		classifier = defaultTimeClassifier
	}
	return &TimeStep{Classifier: classifier, Column: domain.ColumnTime, Workers: workers}
}

// Name implements Step
func (s *TimeStep) Name() string { return "time" }

// Apply implements Step
func (s *TimeStep) Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error) {
	start := time.Now()
	result := domain.StepResult{Step: s.Name(), Column: s.Column}

	values, err := t.Column(s.Column)
	if err != nil {
		result.Skipped = true
		result.Reason = "column not found"
		return result, columnMissing(s.Column)
	}

	categories, err := s.Classifier.ClassifyBatch(ctx, values, s.Workers)
	if err != nil {
		return result, err
	}

	out := make([]domain.Value, len(values))
	for i, c := range categories {
		out[i] = domain.Text(c.Code())
		if !out[i].Equal(values[i]) {
			result.Changed++
		}
	}
	if err := t.SetColumn(s.Column, out); err != nil {
		return result, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// NormalizeColumnsStep cleans header names
type NormalizeColumnsStep struct {
	Renames map[string]string
}

// Name implements Step
func (s *NormalizeColumnsStep) Name() string { return "columns" }

// Apply implements Step
func (s *NormalizeColumnsStep) Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error) {
	start := time.Now()
	changed := NormalizeColumnNames(t, s.Renames)
	return domain.StepResult{Step: s.Name(), Changed: changed, Duration: time.Since(start)}, ctx.Err()
}

// DuplicatesStep removes rows repeating an earlier key
type DuplicatesStep struct {
	Subset []string
}

// Name implements Step
func (s *DuplicatesStep) Name() string { return "duplicates" }

// Apply implements Step
func (s *DuplicatesStep) Apply(ctx context.Context, t *domain.Table) (domain.StepResult, error) {
	start := time.Now()
	result := domain.StepResult{Step: s.Name(), Column: strings.Join(s.Subset, ",")}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	removed, err := DropDuplicates(t, s.Subset...)
	if err != nil {
		result.Skipped = true
		result.Reason = "column not found"
		return result, err
	}
	result.Removed = removed
	result.Duration = time.Since(start)
	return result, nil
}

func perValue(fn func(domain.Value) domain.Value) func([]domain.Value) ([]domain.Value, int) {
	return func(values []domain.Value) ([]domain.Value, int) {
		out := make([]domain.Value, len(values))
		changed := 0
		for i, v := range values {
			out[i] = fn(v)
			if !out[i].Equal(v) {
				changed++
			}
		}
		return out, changed
	}
}

func imputeIf(enabled bool, how Imputation) Imputation {
	if enabled {
		return how
	}
	return ImputeNone
}

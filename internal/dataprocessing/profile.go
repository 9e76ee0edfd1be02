package dataprocessing

import (
	"sharkclean/pkg/contracts/domain"
)

// Column kinds reported by profiling
const (
	KindCategorical = "categorical"
	KindNumerical   = "numerical"
)

// DefaultSparseThreshold is the number of missing cells that makes a row sparse
const DefaultSparseThreshold = 3

// columnKind is numerical when every present cell is a number
func columnKind(values []domain.Value) string {
	for _, v := range values {
		if !v.IsAbsent() && v.Kind() != domain.KindNumeral {
			return KindCategorical
		}
	}
	return KindNumerical
}

// CategoricalColumns lists the columns holding any text
func CategoricalColumns(t *domain.Table) []string {
	return columnsOfKind(t, KindCategorical)
}

// NumericalColumns lists the columns holding only numbers or gaps
func NumericalColumns(t *domain.Table) []string {
	return columnsOfKind(t, KindNumerical)
}

func columnsOfKind(t *domain.Table, kind string) []string {
	var out []string
	for _, name := range t.Columns {
		values, _ := t.Column(name)
		if columnKind(values) == kind {
			out = append(out, name)
		}
	}
	return out
}

// UniqueValues returns the distinct values of column in first-seen order.
// Absent is included once when present.
func UniqueValues(t *domain.Table, column string) ([]domain.Value, error) {
	values, err := t.Column(column)
	if err != nil {
		return nil, columnMissing(column)
	}
	seen := make(map[string]struct{})
	var out []domain.Value
	for _, v := range values {
		k := v.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// SparseRows counts rows with at least threshold missing cells
func SparseRows(t *domain.Table, threshold int) int {
	n := 0
	for _, row := range t.Rows {
		if countAbsent(row) >= threshold {
			n++
		}
	}
	return n
}

// ProfileOptions tunes Profile
type ProfileOptions struct {
	SparseThreshold int
	MaxSamples      int
	DuplicateSubset []string
}

// Profile reports column kinds, gaps and distinct values for t. Columns are
// reported under their normalized names, the names cleaning produces, so a
// raw GSAF header such as "Case Number" matches the subset "case_number".
// Subset columns the table lacks are listed in MissingSubset and duplicate
// detection is skipped.
func Profile(t *domain.Table, opts ProfileOptions) (domain.DatasetProfile, error) {
	if opts.SparseThreshold <= 0 {
		opts.SparseThreshold = DefaultSparseThreshold
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 10
	}

	// rows are shared, only the header is rewritten
	t = &domain.Table{Columns: append([]string(nil), t.Columns...), Rows: t.Rows}
	NormalizeColumnNames(t, DefaultColumnRenames)

	profile := domain.DatasetProfile{
		Rows:            t.Len(),
		SparseThreshold: opts.SparseThreshold,
		SparseRows:      SparseRows(t, opts.SparseThreshold),
		DuplicateSubset: opts.DuplicateSubset,
	}

	for _, name := range t.Columns {
		values, _ := t.Column(name)
		missing := countAbsent(values)
		unique, _ := UniqueValues(t, name)

		cp := domain.ColumnProfile{
			Name:    name,
			Kind:    columnKind(values),
			Missing: missing,
			Unique:  len(unique),
		}
		if t.Len() > 0 {
			cp.MissingPercent = float64(missing) / float64(t.Len()) * 100
		}
		if cp.Kind == KindCategorical {
			for _, v := range unique {
				if len(cp.Samples) == opts.MaxSamples {
					break
				}
				cp.Samples = append(cp.Samples, v.String())
			}
		}
		profile.Columns = append(profile.Columns, cp)
	}

	subset := make([]string, 0, len(opts.DuplicateSubset))
	for _, col := range opts.DuplicateSubset {
		name := NormalizeColumnName(col)
		if to, ok := DefaultColumnRenames[name]; ok {
			name = to
		}
		if !t.HasColumn(name) {
			profile.MissingSubset = append(profile.MissingSubset, col)
		}
		subset = append(subset, name)
	}
	if len(profile.MissingSubset) > 0 {
		return profile, nil
	}
	dups, err := FindDuplicates(t, subset...)
	if err != nil {
		return profile, err
	}
	profile.DuplicateKeys = dups.Len()

	return profile, nil
}

package dataprocessing

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"sharkclean/pkg/contracts/domain"
)

// Mode returns the most frequent non-absent value, ignoring any value whose
// text is listed in exclude. Ties resolve to the smallest value (numbers
// before text, numbers ascending, text lexicographic). ok is false when
// nothing is left to count.
func Mode(values []domain.Value, exclude ...string) (domain.Value, bool) {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}

	var candidates []domain.Value
	numeric := true
	for _, v := range values {
		if v.IsAbsent() {
			continue
		}
		if _, ok := skip[v.String()]; ok {
			continue
		}
		if v.Kind() != domain.KindNumeral {
			numeric = false
		}
		candidates = append(candidates, v)
	}
	if len(candidates) == 0 {
		return domain.Absent(), false
	}

	if numeric {
		return numericMode(candidates), true
	}

	counts := make(map[string]int, len(candidates))
	first := make(map[string]domain.Value, len(candidates))
	for _, v := range candidates {
		k := v.Key()
		counts[k]++
		if _, ok := first[k]; !ok {
			first[k] = v
		}
	}

	var best domain.Value
	bestCount := 0
	for k, c := range counts {
		v := first[k]
		if c > bestCount || (c == bestCount && lessValue(v, best)) {
			best, bestCount = v, c
		}
	}
	return best, true
}

func numericMode(values []domain.Value) domain.Value {
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i], _ = v.Num()
	}
	sort.Float64s(xs)
	_, maxCount := stat.Mode(xs, nil)

	// xs is sorted, so the first run reaching maxCount is the smallest mode
	run := 0
	for i, x := range xs {
		if i > 0 && xs[i-1] == x {
			run++
		} else {
			run = 1
		}
		if float64(run) == maxCount {
			return domain.Numeral(x)
		}
	}
	return domain.Numeral(xs[0])
}

func lessValue(a, b domain.Value) bool {
	if a.Kind() != b.Kind() {
		return a.Kind() == domain.KindNumeral
	}
	if an, ok := a.Num(); ok {
		bn, _ := b.Num()
		return an < bn
	}
	return a.String() < b.String()
}

// Mean returns the arithmetic mean of the numeral cells
func Mean(values []domain.Value) (float64, bool) {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Num(); ok {
			xs = append(xs, f)
		}
	}
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}

// FillAbsent replaces missing cells, and any cell whose text is listed in
// also, with fill. It returns the new column and the number of cells filled.
func FillAbsent(values []domain.Value, fill domain.Value, also ...string) ([]domain.Value, int) {
	replace := make(map[string]struct{}, len(also))
	for _, a := range also {
		replace[a] = struct{}{}
	}
	out := make([]domain.Value, len(values))
	filled := 0
	for i, v := range values {
		_, hit := replace[v.String()]
		if v.IsAbsent() || hit {
			out[i] = fill
			filled++
			continue
		}
		out[i] = v
	}
	return out, filled
}

// MissingSentinel is the fill value used by FillMissing
var MissingSentinel = domain.Numeral(-1)

// FillMissing fills the absent cells of column with value
func FillMissing(t *domain.Table, column string, value domain.Value) (int, error) {
	values, err := t.Column(column)
	if err != nil {
		return 0, columnMissing(column)
	}
	out, filled := FillAbsent(values, value)
	return filled, t.SetColumn(column, out)
}

// ImputeAll fills every column that has gaps: categorical columns with their
// mode and numerical columns with their mean. Columns with nothing to impute
// from are left alone.
func ImputeAll(t *domain.Table) []domain.StepResult {
	var results []domain.StepResult
	for _, name := range t.Columns {
		values, _ := t.Column(name)
		if countAbsent(values) == 0 {
			continue
		}

		var fill domain.Value
		var ok bool
		if columnKind(values) == KindNumerical {
			var mean float64
			mean, ok = Mean(values)
			fill = domain.Numeral(mean)
		} else {
			fill, ok = Mode(values)
		}
		if !ok {
			results = append(results, domain.StepResult{
				Step: "impute", Column: name, Skipped: true, Reason: "no values to impute from",
			})
			continue
		}

		out, filled := FillAbsent(values, fill)
		_ = t.SetColumn(name, out)
		results = append(results, domain.StepResult{
			Step: "impute", Column: name, Filled: filled, FillValue: fill.String(),
		})
	}
	return results
}

func countAbsent(values []domain.Value) int {
	n := 0
	for _, v := range values {
		if v.IsAbsent() {
			n++
		}
	}
	return n
}

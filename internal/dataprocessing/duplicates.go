package dataprocessing

import (
	"strings"

	"sharkclean/pkg/contracts/domain"
)

// rowKeys builds a comparison key for each row over the subset columns.
// An empty subset compares whole rows.
func rowKeys(t *domain.Table, subset []string) ([]string, error) {
	idx := make([]int, 0, len(subset))
	for _, col := range subset {
		i := t.ColumnIndex(col)
		if i < 0 {
			return nil, columnMissing(col)
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		for i := range t.Columns {
			idx = append(idx, i)
		}
	}

	keys := make([]string, len(t.Rows))
	parts := make([]string, len(idx))
	for r, row := range t.Rows {
		for j, i := range idx {
			parts[j] = row[i].Key()
		}
		keys[r] = strings.Join(parts, "\x1f")
	}
	return keys, nil
}

// DropDuplicates removes rows that repeat an earlier row on subset, keeping
// the first occurrence. It returns the number of rows removed.
func DropDuplicates(t *domain.Table, subset ...string) (int, error) {
	keys, err := rowKeys(t, subset)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(keys))
	kept := t.Rows[:0]
	for r, row := range t.Rows {
		if _, dup := seen[keys[r]]; dup {
			continue
		}
		seen[keys[r]] = struct{}{}
		kept = append(kept, row)
	}
	removed := len(t.Rows) - len(kept)
	t.Rows = kept
	return removed, nil
}

// FindDuplicates returns every row whose subset key occurs more than once,
// including the first occurrence.
func FindDuplicates(t *domain.Table, subset ...string) (*domain.Table, error) {
	keys, err := rowKeys(t, subset)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(keys))
	for _, k := range keys {
		counts[k]++
	}
	out := domain.NewTable(t.Columns)
	for r, row := range t.Rows {
		if counts[keys[r]] > 1 {
			out.AppendRow(row)
		}
	}
	return out, nil
}

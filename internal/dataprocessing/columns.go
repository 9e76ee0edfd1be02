package dataprocessing

import (
	"strings"

	"sharkclean/pkg/contracts/domain"
)

// DefaultColumnRenames are applied after header normalization
var DefaultColumnRenames = map[string]string{
	"st": "state",
}

// NormalizeColumnName trims, lower-cases and replaces spaces with underscores
func NormalizeColumnName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// NormalizeColumnNames rewrites the header in place and applies renames.
// It returns how many header entries changed.
func NormalizeColumnNames(t *domain.Table, renames map[string]string) int {
	changed := 0
	for i, col := range t.Columns {
		name := NormalizeColumnName(col)
		if to, ok := renames[name]; ok {
			name = to
		}
		if name != col {
			t.Columns[i] = name
			changed++
		}
	}
	return changed
}

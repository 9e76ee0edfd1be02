package dataprocessing

import (
	"log/slog"
	"sort"

	"sharkclean/pkg/contracts/domain"
)

// Summary dimensions
const (
	DimensionTime    = "time"
	DimensionCountry = "country"
	DimensionSpecies = "species"
	DimensionYear    = "year"
)

// SummaryHeaders is the header row of the summary CSV
var SummaryHeaders = []string{"dimension", "key", "incidents", "fatal"}

// Summarizer aggregates a cleaned table into incident counts
type Summarizer struct {
	logger     *slog.Logger
	dimensions []string
	topN       int
}

// SummarizerConfig holds configuration options for the Summarizer
type SummarizerConfig struct {
	Dimensions []string
	// TopN keeps only the N busiest keys per dimension (0 keeps all).
	// The time dimension is never truncated.
	TopN int
}

// NewSummarizer creates a summarizer; nil logger uses slog.Default
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Dimensions) == 0 {
		cfg.Dimensions = []string{DimensionTime, DimensionCountry, DimensionSpecies}
	}
	return &Summarizer{logger: logger, dimensions: cfg.Dimensions, topN: cfg.TopN}
}

// Summarize counts incidents and fatalities per key of every dimension.
// Dimensions whose column is missing are skipped.
func (s *Summarizer) Summarize(t *domain.Table) []domain.IncidentSummary {
	fatal, _ := t.Column(domain.ColumnFatal)

	var out []domain.IncidentSummary
	for _, dim := range s.dimensions {
		values, err := t.Column(dim)
		if err != nil {
			s.logger.Warn("Summary dimension skipped",
				slog.String("dimension", dim),
				slog.String("reason", err.Error()))
			continue
		}
		out = append(out, s.summarizeDimension(dim, values, fatal)...)
	}
	return out
}

func (s *Summarizer) summarizeDimension(dim string, values, fatal []domain.Value) []domain.IncidentSummary {
	byKey := make(map[string]*domain.IncidentSummary)
	for i, v := range values {
		key := v.String()
		if v.IsAbsent() {
			key = UnknownLabel
		}
		row, ok := byKey[key]
		if !ok {
			row = &domain.IncidentSummary{Dimension: dim, Key: key}
			byKey[key] = row
		}
		row.Incidents++
		if fatal != nil {
			if n, ok := fatal[i].Num(); ok && n == 1 {
				row.Fatal++
			}
		}
	}

	rows := make([]domain.IncidentSummary, 0, len(byKey))
	if dim == DimensionTime {
		for _, c := range domain.AllTimeCategories {
			if row, ok := byKey[c.Code()]; ok {
				rows = append(rows, *row)
			}
		}
		return rows
	}

	for _, row := range byKey {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Incidents != rows[j].Incidents {
			return rows[i].Incidents > rows[j].Incidents
		}
		return rows[i].Key < rows[j].Key
	})
	if s.topN > 0 && len(rows) > s.topN {
		rows = rows[:s.topN]
	}
	return rows
}

// SummaryRecords renders summaries as CSV records without the header
func SummaryRecords(summaries []domain.IncidentSummary) [][]string {
	out := make([][]string, len(summaries))
	for i, s := range summaries {
		out[i] = []string{
			s.Dimension,
			s.Key,
			domain.FormatNumber(float64(s.Incidents)),
			domain.FormatNumber(float64(s.Fatal)),
		}
	}
	return out
}

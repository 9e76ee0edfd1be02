package domain

import "time"

// StepResult describes what one cleaning step did to a table
type StepResult struct {
	Step      string        `json:"step"`
	Column    string        `json:"column,omitempty"`
	Skipped   bool          `json:"skipped"`
	Reason    string        `json:"reason,omitempty"`
	Changed   int           `json:"changed"`
	Filled    int           `json:"filled"`
	Removed   int           `json:"removed"`
	FillValue string        `json:"fill_value,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// CleaningReport summarizes a full pipeline run
type CleaningReport struct {
	Source      string                 `json:"source,omitempty"`
	RowsIn      int                    `json:"rows_in"`
	RowsOut     int                    `json:"rows_out"`
	Columns     int                    `json:"columns"`
	Steps       []StepResult           `json:"steps"`
	TimeBuckets map[string]int         `json:"time_buckets,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt time.Time              `json:"completed_at"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// Duration returns the wall time of the run
func (r *CleaningReport) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Step returns the result for the named step
func (r *CleaningReport) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// ColumnProfile describes missing and distinct values of one column
type ColumnProfile struct {
	Name           string   `json:"name"`
	Kind           string   `json:"kind"` // categorical or numerical
	Missing        int      `json:"missing"`
	MissingPercent float64  `json:"missing_percent"`
	Unique         int      `json:"unique"`
	Samples        []string `json:"samples,omitempty"`
}

// DatasetProfile is the profiling output for a table
type DatasetProfile struct {
	Rows            int             `json:"rows"`
	Columns         []ColumnProfile `json:"columns"`
	SparseRows      int             `json:"sparse_rows"`
	SparseThreshold int             `json:"sparse_threshold"`
	DuplicateKeys   int             `json:"duplicate_keys"`
	DuplicateSubset []string        `json:"duplicate_subset,omitempty"`
	// MissingSubset names subset columns absent from the table; DuplicateKeys
	// is not computed when it is non-empty.
	MissingSubset []string `json:"missing_subset,omitempty"`
}

// IncidentSummary is one aggregated row of the incident summary report
type IncidentSummary struct {
	Dimension string `json:"dimension"`
	Key       string `json:"key"`
	Incidents int    `json:"incidents"`
	Fatal     int    `json:"fatal"`
}

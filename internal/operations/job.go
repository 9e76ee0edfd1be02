package operations

import (
	"time"

	"sharkclean/pkg/contracts/domain"
	"sharkclean/pkg/contracts/events"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = events.StatusPending
	JobStatusRunning   JobStatus = events.StatusRunning
	JobStatusCompleted JobStatus = events.StatusCompleted
	JobStatusFailed    JobStatus = events.StatusFailed
	JobStatusCancelled JobStatus = events.StatusCancelled
)

// IsTerminal reports whether the job has finished one way or another
func (s JobStatus) IsTerminal() bool {
	return events.IsTerminal(string(s))
}

// JobSource records who submitted a job
type JobSource string

const (
	SourceAPI      JobSource = "api"
	SourceSchedule JobSource = "schedule"
)

// JobOptions are the per-job cleaning and export settings
type JobOptions struct {
	Sheet        string `json:"sheet,omitempty"`
	Output       string `json:"output,omitempty"`
	Impute       bool   `json:"impute"`
	Summary      bool   `json:"summary"`
	ExportCSV    bool   `json:"export_csv"`
	PushToSheets bool   `json:"push_to_sheets"`

	// CSVOutput and SummaryOutput override the derived file names
	CSVOutput     string `json:"csv_output,omitempty"`
	SummaryOutput string `json:"summary_output,omitempty"`
}

// Job is one asynchronous cleaning run over a workbook in the raw data dir
type Job struct {
	ID          string                 `json:"id"`
	Source      JobSource              `json:"source"`
	Input       string                 `json:"input"`
	Options     JobOptions             `json:"options"`
	Outputs     []string               `json:"outputs,omitempty"`
	Status      JobStatus              `json:"status"`
	Progress    int                    `json:"progress"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	TraceID     string                 `json:"trace_id,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Report      *domain.CleaningReport `json:"report,omitempty"`
}

// Clone returns a copy that shares nothing mutable with j
func (j *Job) Clone() *Job {
	c := *j
	if j.Outputs != nil {
		c.Outputs = append([]string(nil), j.Outputs...)
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// JobStore persists jobs
type JobStore interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJob(job *Job) error
	ListJobs(filter JobFilter) ([]*Job, error)
	DeleteJob(id string) error
	// PruneJobs removes terminal jobs completed before the cutoff
	PruneJobs(before time.Time) int
}

// JobFilter for querying jobs
type JobFilter struct {
	Status JobStatus
	Source JobSource
	Since  time.Time
	Limit  int
}

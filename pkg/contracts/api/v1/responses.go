package api

import (
	"time"

	"sharkclean/pkg/contracts/domain"
)

// ClassifyResponse holds one category per request value, in order
type ClassifyResponse struct {
	Categories []domain.TimeCategory `json:"categories"`
	Counts     map[string]int        `json:"counts"`
}

// JobResponse is the API view of a cleaning job
type JobResponse struct {
	ID          string                 `json:"id"`
	Source      string                 `json:"source"`
	Input       string                 `json:"input"`
	Outputs     []string               `json:"outputs,omitempty"`
	Status      string                 `json:"status"`
	Progress    int                    `json:"progress"`
	Message     string                 `json:"message,omitempty"`
	Error       string                 `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Report      *domain.CleaningReport `json:"report,omitempty"`
}

// JobListResponse wraps a job listing
type JobListResponse struct {
	Jobs  []JobResponse  `json:"jobs"`
	Total int            `json:"total"`
	Queue map[string]int `json:"queue"`
}

// DatasetInfo describes one file in the raw data directory
type DatasetInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// DatasetListResponse lists the raw datasets available for cleaning
type DatasetListResponse struct {
	Datasets []DatasetInfo `json:"datasets"`
}

// Package api contains the HTTP API contracts of the sharkclean service.
// Version v1 is the current stable API version.
package api

import (
	"sharkclean/pkg/contracts/domain"
)

// MaxClassifyValues caps a single classify request
const MaxClassifyValues = 100000

// ClassifyRequest asks for the time bucket of each raw value. Values may be
// strings, numbers or null.
type ClassifyRequest struct {
	Values []domain.Value `json:"values" validate:"required,max=100000"`
}

// CleanJobRequest enqueues a cleaning run over a file already in the raw
// data directory.
type CleanJobRequest struct {
	Input  string `json:"input" validate:"required,workbook"`
	Output string `json:"output,omitempty" validate:"omitempty,workbook"`
	Sheet  string `json:"sheet,omitempty" validate:"omitempty,max=31"`
	// Impute overrides the configured imputation switch when set.
	Impute       *bool `json:"impute,omitempty"`
	Summary      bool  `json:"summary,omitempty"`
	ExportCSV    bool  `json:"export_csv,omitempty"`
	PushToSheets bool  `json:"push_to_sheets,omitempty"`
}

// JobListRequest filters the job listing
type JobListRequest struct {
	Status string `json:"status" query:"status" validate:"omitempty,oneof=pending running completed failed cancelled"`
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=500"`
}

// JobIDRequest identifies a job in the URL path
type JobIDRequest struct {
	ID string `json:"id" param:"id" validate:"required,uuid"`
}

// ProfileRequest asks for a profile of a raw dataset
type ProfileRequest struct {
	Input     string `json:"input" query:"input" validate:"required,workbook"`
	Sheet     string `json:"sheet" query:"sheet" validate:"omitempty,max=31"`
	Threshold int    `json:"threshold" query:"threshold" validate:"omitempty,min=1,max=64"`
}

// UploadOptions are the form fields accepted next to a workbook upload
type UploadOptions struct {
	Sheet  string `json:"sheet" validate:"omitempty,max=31"`
	Format string `json:"format" validate:"omitempty,oneof=xlsx csv"`
}

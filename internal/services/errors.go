package services

import "errors"

// Service errors
var (
	// Dataset errors
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidDataset  = errors.New("invalid dataset name")

	// Export errors
	ErrSheetsDisabled = errors.New("google sheets export is disabled")
)

package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sharkclean/internal/config"
	"sharkclean/internal/dataprocessing"
	"sharkclean/internal/errors"
	"sharkclean/pkg/contracts/domain"
)

// loadableExtensions are the raw files offered for cleaning
var loadableExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// DatasetService lists and profiles the workbooks in the raw directory
type DatasetService struct {
	paths           *config.Paths
	sparseThreshold int
	duplicateSubset []string
	logger          *slog.Logger
}

// NewDatasetService creates the service
func NewDatasetService(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		paths:           paths,
		sparseThreshold: cfg.Cleaning.SparseThreshold,
		duplicateSubset: cfg.Cleaning.DuplicateSubset,
		logger:          logger.With(slog.String("service", "dataset")),
	}
}

// List returns the loadable files in the raw directory sorted by name. A
// missing directory yields an empty list.
func (s *DatasetService) List(ctx context.Context) ([]os.FileInfo, error) {
	entries, err := os.ReadDir(s.paths.RawDir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.DebugContext(ctx, "raw directory missing", slog.String("dir", s.paths.RawDir))
			return nil, nil
		}
		return nil, errors.NewStorageError("failed to read raw directory", err).WithContext("dir", s.paths.RawDir)
	}

	var files []os.FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !loadableExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	s.logger.DebugContext(ctx, "datasets listed", slog.Int("count", len(files)))
	return files, nil
}

// Profile loads a raw dataset and describes its columns and gaps.
// threshold <= 0 uses the configured sparse-row threshold.
func (s *DatasetService) Profile(ctx context.Context, name, sheet string, threshold int) (domain.DatasetProfile, error) {
	path, err := s.resolve(name)
	if err != nil {
		return domain.DatasetProfile{}, err
	}
	if threshold <= 0 {
		threshold = s.sparseThreshold
	}

	table, err := dataprocessing.LoadTable(path, dataprocessing.LoadOptions{Sheet: sheet})
	if err != nil {
		return domain.DatasetProfile{}, err
	}

	profile, err := dataprocessing.Profile(table, dataprocessing.ProfileOptions{
		SparseThreshold: threshold,
		DuplicateSubset: s.duplicateSubset,
	})
	if err != nil {
		return domain.DatasetProfile{}, err
	}

	if len(profile.MissingSubset) > 0 {
		s.logger.WarnContext(ctx, "duplicate subset columns missing, duplicates not counted",
			slog.String("dataset", name),
			slog.Any("columns", profile.MissingSubset))
	}
	s.logger.InfoContext(ctx, "dataset profiled",
		slog.String("dataset", name),
		slog.Int("rows", profile.Rows),
		slog.Int("sparse_rows", profile.SparseRows))
	return profile, nil
}

// Exists reports whether name is a loadable file in the raw directory
func (s *DatasetService) Exists(name string) error {
	_, err := s.resolve(name)
	return err
}

// resolve keeps lookups inside the raw directory
func (s *DatasetService) resolve(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "..") {
		return "", errors.NewAppError(errors.ErrTypeValidation, fmt.Sprintf("invalid dataset name %q", name), ErrInvalidDataset)
	}
	path := s.paths.RawPath(name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err == nil || stderrors.Is(err, os.ErrNotExist) {
			return "", errors.NewAppError(errors.ErrTypeNotFound, "dataset not found", ErrDatasetNotFound).
				WithContext("dataset", name)
		}
		return "", errors.NewStorageError("failed to stat dataset", err).WithContext("dataset", name)
	}
	return path, nil
}

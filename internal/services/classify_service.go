package services

import (
	"context"
	"log/slog"

	"sharkclean/internal/dataprocessing"
	"sharkclean/internal/infrastructure"
	"sharkclean/pkg/contracts/domain"
)

// ClassifyService maps raw time values to time-of-day buckets
type ClassifyService struct {
	classifier *dataprocessing.TimeClassifier
	workers    int
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewClassifyService creates the service. workers <= 0 uses GOMAXPROCS;
// metrics may be nil.
func NewClassifyService(workers int, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ClassifyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyService{
		classifier: dataprocessing.NewTimeClassifier(),
		workers:    workers,
		metrics:    metrics,
		logger:     logger.With(slog.String("service", "classify")),
	}
}

// Classify returns one category per value, in order, and the per-code tally
func (s *ClassifyService) Classify(ctx context.Context, values []domain.Value) ([]domain.TimeCategory, map[string]int, error) {
	categories, err := s.classifier.ClassifyBatch(ctx, values, s.workers)
	if err != nil {
		s.logger.WarnContext(ctx, "classification interrupted",
			slog.Int("values", len(values)),
			slog.String("error", err.Error()))
		return nil, nil, err
	}

	counts := dataprocessing.CountCategories(categories)
	infrastructure.RecordClassified(ctx, s.metrics, counts)

	s.logger.DebugContext(ctx, "values classified",
		slog.Int("values", len(values)),
		slog.Any("counts", counts))
	return categories, counts, nil
}

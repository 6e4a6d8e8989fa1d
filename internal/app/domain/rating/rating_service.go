package rating

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/app/observability/metrics"
)

const (
	MinRating = 1
	MaxRating = 5
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Rate(ctx context.Context, experienceID int64, userID string, value int) error
	AggregateFor(ctx context.Context, experienceID int64, callerID string) (models.RatingAggregate, *int, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// Rate records or overwrites the caller's rating for an experience.
func (s *ServiceImpl) Rate(ctx context.Context, experienceID int64, userID string, value int) error {
	ctx, span := otel.Tracer("RatingService").Start(ctx, "Rate", trace.WithAttributes(
		attribute.Int64("experience.id", experienceID),
		attribute.Int("rating", value),
	))
	defer span.End()

	if value < MinRating || value > MaxRating {
		return fmt.Errorf("%w: got %d", models.ErrRatingOutOfRange, value)
	}

	exists, err := s.repo.ExperienceExists(ctx, experienceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "existence check failed")
		return err
	}
	if !exists {
		return models.ErrNotFound
	}

	if err := s.repo.Upsert(ctx, experienceID, userID, value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rating upsert failed")
		return err
	}

	metrics.Get().RatingSubmissions.Add(ctx, 1,
		metric.WithAttributes(attribute.Int("rating", value)))

	span.SetStatus(codes.Ok, "rating recorded")
	return nil
}

// AggregateFor returns the read-time aggregate plus the caller's own
// rating when present.
func (s *ServiceImpl) AggregateFor(ctx context.Context, experienceID int64, callerID string) (models.RatingAggregate, *int, error) {
	ctx, span := otel.Tracer("RatingService").Start(ctx, "AggregateFor", trace.WithAttributes(
		attribute.Int64("experience.id", experienceID),
	))
	defer span.End()

	agg, callerRating, err := s.repo.AggregateFor(ctx, experienceID, callerID)
	if err != nil {
		if err != models.ErrNotFound {
			span.RecordError(err)
			span.SetStatus(codes.Error, "aggregate query failed")
		}
		return agg, nil, err
	}

	span.SetStatus(codes.Ok, "aggregate computed")
	return agg, callerRating, nil
}

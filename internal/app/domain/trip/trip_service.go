package trip

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
)

const (
	dateLayout = "2006-01-02"

	// mostAddedTTL bounds how stale the leaderboard may get.
	mostAddedTTL      = 5 * time.Minute
	mostAddedCacheKey = "most-added"
	defaultMostAdded  = 10
	maxMostAdded      = 50
)

var _ Service = (*ServiceImpl)(nil)

// CreateTripRequest is the trip create payload.
type CreateTripRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

// UpdateTripRequest is the partial trip edit payload.
type UpdateTripRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type Service interface {
	Create(ctx context.Context, userID string, req CreateTripRequest) (*models.TripDetail, error)
	Get(ctx context.Context, tripID int64) (*models.TripDetail, error)
	ListMine(ctx context.Context, userID string) ([]models.Trip, error)
	Update(ctx context.Context, tripID int64, callerID string, req UpdateTripRequest) (*models.TripDetail, error)
	Delete(ctx context.Context, tripID int64, callerID string) error
	AddExperience(ctx context.Context, tripID int64, callerID string, experienceID int64, displayOrder int) error
	RemoveExperience(ctx context.Context, tripID int64, callerID string, experienceID int64) error
	Reorder(ctx context.Context, tripID int64, callerID string, experienceIDs []int64) error
	MostAdded(ctx context.Context, limit int) ([]models.PopularExperience, error)
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(mostAddedTTL, 10*time.Minute),
	}
}

func (s *ServiceImpl) Create(ctx context.Context, userID string, req CreateTripRequest) (*models.TripDetail, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	if req.Title == "" {
		return nil, models.ErrTitleEmpty
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, fmt.Errorf("%w: end_date before start_date", models.ErrValidation)
	}

	id, err := s.repo.Create(ctx, models.Trip{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip create failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("trip.id", id))
	span.SetStatus(codes.Ok, "trip created")
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) Get(ctx context.Context, tripID int64) (*models.TripDetail, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Get", trace.WithAttributes(
		attribute.Int64("trip.id", tripID),
	))
	defer span.End()

	detail, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		if err != models.ErrNotFound {
			span.RecordError(err)
			span.SetStatus(codes.Error, "trip get failed")
		}
		return nil, err
	}
	span.SetStatus(codes.Ok, "trip retrieved")
	return detail, nil
}

func (s *ServiceImpl) ListMine(ctx context.Context, userID string) ([]models.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "ListMine")
	defer span.End()

	trips, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip list failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("results.count", len(trips)))
	span.SetStatus(codes.Ok, "trips listed")
	return trips, nil
}

func (s *ServiceImpl) Update(ctx context.Context, tripID int64, callerID string, req UpdateTripRequest) (*models.TripDetail, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Update", trace.WithAttributes(
		attribute.Int64("trip.id", tripID),
	))
	defer span.End()

	if err := s.requireOwner(ctx, tripID, callerID); err != nil {
		return nil, err
	}
	if req.Title != nil && *req.Title == "" {
		return nil, models.ErrTitleEmpty
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, tripID, req.Title, req.Description, startDate, endDate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip update failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "trip updated")
	return s.repo.GetByID(ctx, tripID)
}

func (s *ServiceImpl) Delete(ctx context.Context, tripID int64, callerID string) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.Int64("trip.id", tripID),
	))
	defer span.End()

	if err := s.requireOwner(ctx, tripID, callerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip delete failed")
		return err
	}
	s.cache.Flush()
	span.SetStatus(codes.Ok, "trip deleted")
	return nil
}

func (s *ServiceImpl) AddExperience(ctx context.Context, tripID int64, callerID string, experienceID int64, displayOrder int) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "AddExperience", trace.WithAttributes(
		attribute.Int64("trip.id", tripID),
		attribute.Int64("experience.id", experienceID),
	))
	defer span.End()

	if err := s.requireOwner(ctx, tripID, callerID); err != nil {
		return err
	}
	exists, err := s.repo.ExperienceExists(ctx, experienceID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !exists {
		return models.ErrNotFound
	}

	if err := s.repo.AddExperience(ctx, tripID, experienceID, displayOrder); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip membership add failed")
		return err
	}
	s.cache.Flush()
	span.SetStatus(codes.Ok, "experience added to trip")
	return nil
}

func (s *ServiceImpl) RemoveExperience(ctx context.Context, tripID int64, callerID string, experienceID int64) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "RemoveExperience", trace.WithAttributes(
		attribute.Int64("trip.id", tripID),
		attribute.Int64("experience.id", experienceID),
	))
	defer span.End()

	if err := s.requireOwner(ctx, tripID, callerID); err != nil {
		return err
	}
	if err := s.repo.RemoveExperience(ctx, tripID, experienceID); err != nil {
		span.RecordError(err)
		return err
	}
	s.cache.Flush()
	span.SetStatus(codes.Ok, "experience removed from trip")
	return nil
}

func (s *ServiceImpl) Reorder(ctx context.Context, tripID int64, callerID string, experienceIDs []int64) error {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Reorder", trace.WithAttributes(
		attribute.Int64("trip.id", tripID),
		attribute.Int("experience.count", len(experienceIDs)),
	))
	defer span.End()

	if err := s.requireOwner(ctx, tripID, callerID); err != nil {
		return err
	}
	if err := s.repo.Reorder(ctx, tripID, experienceIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip reorder failed")
		return err
	}
	span.SetStatus(codes.Ok, "trip reordered")
	return nil
}

// MostAdded serves the leaderboard from a short-lived cache; the query
// aggregates over every trip and does not need to run per request.
func (s *ServiceImpl) MostAdded(ctx context.Context, limit int) ([]models.PopularExperience, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "MostAdded")
	defer span.End()

	if limit < 1 || limit > maxMostAdded {
		limit = defaultMostAdded
	}

	cacheKey := fmt.Sprintf("%s:%d", mostAddedCacheKey, limit)
	if cached, found := s.cache.Get(cacheKey); found {
		if popular, ok := cached.([]models.PopularExperience); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			span.SetStatus(codes.Ok, "leaderboard served from cache")
			return popular, nil
		}
	}

	popular, err := s.repo.MostAdded(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "leaderboard query failed")
		return nil, err
	}
	s.cache.Set(cacheKey, popular, cache.DefaultExpiration)

	span.SetAttributes(attribute.Bool("cache.hit", false))
	span.SetStatus(codes.Ok, "leaderboard computed")
	return popular, nil
}

func (s *ServiceImpl) requireOwner(ctx context.Context, tripID int64, callerID string) error {
	owner, err := s.repo.OwnerOf(ctx, tripID)
	if err != nil {
		return err
	}
	if owner != callerID {
		return models.ErrForbidden
	}
	return nil
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil, fmt.Errorf("%w: dates must be YYYY-MM-DD", models.ErrValidation)
	}
	return &parsed, nil
}

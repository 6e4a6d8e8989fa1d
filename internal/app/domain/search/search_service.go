package search

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/roamlog/roamlog/internal/app/domain/keyword"
	"github.com/roamlog/roamlog/internal/app/domain/photo"
	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/app/observability/metrics"
	"github.com/roamlog/roamlog/internal/pkg/config"
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the public search surface: keyword, location, combined
// and viewport queries plus prefix autocomplete.
type Service interface {
	ByKeyword(ctx context.Context, q, callerID string, limit, offset int) ([]models.SearchResult, error)
	ByLocation(ctx context.Context, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error)
	Combined(ctx context.Context, q string, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error)
	ByBounds(ctx context.Context, box models.BoundingBox, callerID string) ([]models.SearchResult, error)
	Suggest(ctx context.Context, q string, limit int) ([]string, error)
}

type ServiceImpl struct {
	logger       *zap.Logger
	repo         Repository
	keywordRepo  keyword.Repository
	photoRepo    photo.Repository
	searchConfig config.SearchConfig
}

func NewService(repo Repository, keywordRepo keyword.Repository, photoRepo photo.Repository, searchConfig config.SearchConfig, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		repo:         repo,
		keywordRepo:  keywordRepo,
		photoRepo:    photoRepo,
		searchConfig: searchConfig,
	}
}

func (s *ServiceImpl) ByKeyword(ctx context.Context, q, callerID string, limit, offset int) ([]models.SearchResult, error) {
	ctx, span := otel.Tracer("SearchService").Start(ctx, "ByKeyword", trace.WithAttributes(
		attribute.String("query", q),
	))
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, models.ErrQueryMissing
	}
	limit = ClampLimit(limit)
	offset = ClampOffset(offset)

	s.recordSearch(ctx, "keyword")

	results, err := s.repo.SearchByKeyword(ctx, "%"+q+"%", callerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "keyword search failed")
		return nil, err
	}
	if err := s.enrich(ctx, results); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "search completed")
	return results, nil
}

func (s *ServiceImpl) ByLocation(ctx context.Context, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error) {
	ctx, span := otel.Tracer("SearchService").Start(ctx, "ByLocation", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.Float64("radius_km", radiusKm),
	))
	defer span.End()

	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	radiusKm = ClampRadius(radiusKm)
	limit = ClampLimit(limit)
	offset = ClampOffset(offset)

	s.recordSearch(ctx, "location")

	results, err := s.repo.SearchByLocation(ctx, lat, lon, radiusKm, callerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "location search failed")
		return nil, err
	}
	if err := s.enrich(ctx, results); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "search completed")
	return results, nil
}

func (s *ServiceImpl) Combined(ctx context.Context, q string, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error) {
	ctx, span := otel.Tracer("SearchService").Start(ctx, "Combined", trace.WithAttributes(
		attribute.String("query", q),
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	))
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, models.ErrQueryMissing
	}
	if err := ValidateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	radiusKm = ClampRadius(radiusKm)
	limit = ClampLimit(limit)
	offset = ClampOffset(offset)

	s.recordSearch(ctx, "combined")

	results, err := s.repo.SearchCombined(ctx, "%"+q+"%", lat, lon, radiusKm, callerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "combined search failed")
		return nil, err
	}
	if err := s.enrich(ctx, results); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "search completed")
	return results, nil
}

func (s *ServiceImpl) ByBounds(ctx context.Context, box models.BoundingBox, callerID string) ([]models.SearchResult, error) {
	ctx, span := otel.Tracer("SearchService").Start(ctx, "ByBounds")
	defer span.End()

	if err := ValidateBounds(box, s.searchConfig.MaxBoundsSpanDegrees); err != nil {
		return nil, err
	}

	s.recordSearch(ctx, "bounds")

	results, err := s.repo.SearchByBounds(ctx, box, callerID, s.searchConfig.MaxBoundsResults)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bounds search failed")
		return nil, err
	}
	if err := s.enrich(ctx, results); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(results)))
	span.SetStatus(codes.Ok, "search completed")
	return results, nil
}

// Suggest returns prefix autocomplete candidates. The prefix must be at
// least two characters so a single keystroke never scans both tables.
func (s *ServiceImpl) Suggest(ctx context.Context, q string, limit int) ([]string, error) {
	ctx, span := otel.Tracer("SearchService").Start(ctx, "Suggest", trace.WithAttributes(
		attribute.String("prefix", q),
	))
	defer span.End()

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, models.ErrQueryMissing
	}
	if len(q) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 characters", models.ErrQueryTooShort)
	}
	limit = ClampSuggestionLimit(limit)

	metrics.Get().SuggestionRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", "store")))

	raw, err := s.repo.Suggestions(ctx, q+"%", limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "suggestion query failed")
		return nil, err
	}

	// Keyword names and titles can collide modulo case; keep the first
	// spelling seen.
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(raw))
	suggestions := make([]string, 0, len(raw))
	for _, sug := range raw {
		key := folder.String(sug)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, sug)
	}

	span.SetStatus(codes.Ok, "suggestions returned")
	return suggestions, nil
}

// enrich attaches keyword names and photos to every result in one query
// per concern.
func (s *ServiceImpl) enrich(ctx context.Context, results []models.SearchResult) error {
	if len(results) == 0 {
		return nil
	}
	ids := make([]int64, len(results))
	for i := range results {
		ids[i] = results[i].ID
	}

	keywordsByID, err := s.keywordRepo.ListForExperiences(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load keywords for results: %w", err)
	}
	photosByID, err := s.photoRepo.ListForExperiences(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load photos for results: %w", err)
	}

	for i := range results {
		results[i].Keywords = keywordsByID[results[i].ID]
		if results[i].Keywords == nil {
			results[i].Keywords = []string{}
		}
		results[i].Photos = photosByID[results[i].ID]
		if results[i].Photos == nil {
			results[i].Photos = []models.Photo{}
		}
	}
	return nil
}

func (s *ServiceImpl) recordSearch(ctx context.Context, mode string) {
	metrics.Get().SearchRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("mode", mode)))
}

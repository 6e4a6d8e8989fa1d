package experience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/roamlog/roamlog/internal/app/domain/keyword"
	"github.com/roamlog/roamlog/internal/app/domain/photo"
	"github.com/roamlog/roamlog/internal/app/domain/search"
	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/app/observability/metrics"
)

// dateLayout is the wire format of experience_date.
const dateLayout = "2006-01-02"

// maxConcurrentUploads bounds the parallel blob-store calls per request.
const maxConcurrentUploads = 4

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Get(ctx context.Context, experienceID int64, callerID string) (*models.ExperienceDetail, error)
	ListRecent(ctx context.Context, callerID string, limit, offset int) ([]models.ExperienceDetail, error)
	ListMine(ctx context.Context, userID string, limit, offset int) ([]models.ExperienceDetail, error)
	Create(ctx context.Context, userID string, req models.CreateExperienceRequest) (*models.ExperienceDetail, error)
	Update(ctx context.Context, experienceID int64, callerID string, req models.UpdateExperienceRequest) (*models.ExperienceDetail, error)
	Delete(ctx context.Context, experienceID int64, callerID string) error
}

type ServiceImpl struct {
	logger      *zap.Logger
	repo        Repository
	keywordRepo keyword.Repository
	photoRepo   photo.Repository
	blobStore   photo.BlobStore
}

func NewService(repo Repository, keywordRepo keyword.Repository, photoRepo photo.Repository, blobStore photo.BlobStore, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		repo:        repo,
		keywordRepo: keywordRepo,
		photoRepo:   photoRepo,
		blobStore:   blobStore,
	}
}

func (s *ServiceImpl) Get(ctx context.Context, experienceID int64, callerID string) (*models.ExperienceDetail, error) {
	ctx, span := otel.Tracer("ExperienceService").Start(ctx, "Get", trace.WithAttributes(
		attribute.Int64("experience.id", experienceID),
	))
	defer span.End()

	detail, err := s.repo.GetByID(ctx, experienceID, callerID)
	if err != nil {
		if err != models.ErrNotFound {
			span.RecordError(err)
			span.SetStatus(codes.Error, "get failed")
		}
		return nil, err
	}
	if err := s.attach(ctx, detail); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "experience retrieved")
	return detail, nil
}

// ListRecent is the public browse feed, newest first.
func (s *ServiceImpl) ListRecent(ctx context.Context, callerID string, limit, offset int) ([]models.ExperienceDetail, error) {
	ctx, span := otel.Tracer("ExperienceService").Start(ctx, "ListRecent")
	defer span.End()

	limit = search.ClampLimit(limit)
	offset = search.ClampOffset(offset)

	details, err := s.repo.ListRecent(ctx, callerID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	for i := range details {
		if err := s.attach(ctx, &details[i]); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("results.count", len(details)))
	span.SetStatus(codes.Ok, "experiences listed")
	return details, nil
}

func (s *ServiceImpl) ListMine(ctx context.Context, userID string, limit, offset int) ([]models.ExperienceDetail, error) {
	ctx, span := otel.Tracer("ExperienceService").Start(ctx, "ListMine")
	defer span.End()

	limit = search.ClampLimit(limit)
	offset = search.ClampOffset(offset)

	details, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	for i := range details {
		if err := s.attach(ctx, &details[i]); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("results.count", len(details)))
	span.SetStatus(codes.Ok, "experiences listed")
	return details, nil
}

// Create validates the payload, uploads the photos and persists the
// composite record. Photos go to the blob store before the transaction
// opens; if the transaction then fails the uploaded blobs are deleted
// again so nothing orphans.
func (s *ServiceImpl) Create(ctx context.Context, userID string, req models.CreateExperienceRequest) (*models.ExperienceDetail, error) {
	ctx, span := otel.Tracer("ExperienceService").Start(ctx, "Create", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	if req.Title == "" {
		return nil, models.ErrTitleEmpty
	}
	if req.Date == "" {
		return nil, models.ErrDateMissing
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: experience_date must be YYYY-MM-DD", models.ErrValidation)
	}
	if err := search.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return nil, err
	}
	if req.OwnerRating != nil && (*req.OwnerRating < 1 || *req.OwnerRating > 5) {
		return nil, fmt.Errorf("%w: got %d", models.ErrRatingOutOfRange, *req.OwnerRating)
	}

	stored, failed := s.uploadPhotos(ctx, req.Photos)

	exp := models.Experience{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	id, err := s.repo.Create(ctx, exp, req.Keywords, req.OwnerRating, stored)
	if err != nil {
		s.deleteBlobs(ctx, storedURLs(stored))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("experience.id", id))
	span.SetStatus(codes.Ok, "experience created")

	detail, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	detail.PhotosFailed = failed
	return detail, nil
}

// Update applies a partial edit. Only the owner may edit; the keyword
// set is replaced wholesale when sent, new photos append.
func (s *ServiceImpl) Update(ctx context.Context, experienceID int64, callerID string, req models.UpdateExperienceRequest) (*models.ExperienceDetail, error) {
	ctx, span := otel.Tracer("ExperienceService").Start(ctx, "Update", trace.WithAttributes(
		attribute.Int64("experience.id", experienceID),
	))
	defer span.End()

	if err := s.requireOwner(ctx, experienceID, callerID); err != nil {
		return nil, err
	}

	if req.Title != nil && *req.Title == "" {
		return nil, models.ErrTitleEmpty
	}
	var date *time.Time
	if req.Date != nil {
		parsed, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: experience_date must be YYYY-MM-DD", models.ErrValidation)
		}
		date = &parsed
	}
	if err := validateUpdateCoordinates(ctx, s.repo, experienceID, req); err != nil {
		return nil, err
	}
	if req.OwnerRating != nil && (*req.OwnerRating < 1 || *req.OwnerRating > 5) {
		return nil, fmt.Errorf("%w: got %d", models.ErrRatingOutOfRange, *req.OwnerRating)
	}

	stored, failed := s.uploadPhotos(ctx, req.Photos)

	if err := s.repo.Update(ctx, experienceID, callerID, req, date, stored); err != nil {
		s.deleteBlobs(ctx, storedURLs(stored))
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "experience updated")

	detail, err := s.Get(ctx, experienceID, callerID)
	if err != nil {
		return nil, err
	}
	detail.PhotosFailed = failed
	return detail, nil
}

// Delete removes the experience and then best-effort deletes its blobs.
// A blob the store refuses to drop is logged, not fatal: the database
// state already committed.
func (s *ServiceImpl) Delete(ctx context.Context, experienceID int64, callerID string) error {
	ctx, span := otel.Tracer("ExperienceService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.Int64("experience.id", experienceID),
	))
	defer span.End()

	if err := s.requireOwner(ctx, experienceID, callerID); err != nil {
		return err
	}

	urls, err := s.repo.Delete(ctx, experienceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	s.deleteBlobs(ctx, urls)

	span.SetStatus(codes.Ok, "experience deleted")
	return nil
}

func (s *ServiceImpl) requireOwner(ctx context.Context, experienceID int64, callerID string) error {
	owner, err := s.repo.OwnerOf(ctx, experienceID)
	if err != nil {
		return err
	}
	if owner != callerID {
		return models.ErrForbidden
	}
	return nil
}

// uploadPhotos pushes the incoming photos to the blob store with bounded
// parallelism. A failed upload is logged, counted and skipped; the rest
// of the request proceeds.
func (s *ServiceImpl) uploadPhotos(ctx context.Context, uploads []models.PhotoUpload) ([]StoredPhoto, int) {
	if len(uploads) == 0 {
		return nil, 0
	}

	var mu sync.Mutex
	stored := make([]StoredPhoto, 0, len(uploads))
	failed := 0

	g := &errgroup.Group{}
	g.SetLimit(maxConcurrentUploads)
	for _, upload := range uploads {
		g.Go(func() error {
			url, err := s.blobStore.Upload(ctx, upload.Data, upload.ContentType)
			if err != nil {
				s.logger.Warn("photo upload failed, skipping",
					zap.String("content_type", upload.ContentType),
					zap.Error(err))
				metrics.Get().PhotoUploadFailures.Add(ctx, 1,
					metric.WithAttributes(attribute.String("content_type", upload.ContentType)))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			stored = append(stored, StoredPhoto{URL: url, Caption: upload.Caption})
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	return stored, failed
}

// deleteBlobs compensates for a failed transaction or finishes a delete.
// Best effort only.
func (s *ServiceImpl) deleteBlobs(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.blobStore.Delete(ctx, url); err != nil {
			s.logger.Warn("failed to delete blob", zap.String("url", url), zap.Error(err))
		}
	}
}

// attach loads keyword names and photos for one detail record.
func (s *ServiceImpl) attach(ctx context.Context, detail *models.ExperienceDetail) error {
	keywords, err := s.keywordRepo.ListForExperience(ctx, detail.ID)
	if err != nil {
		return fmt.Errorf("failed to load keywords: %w", err)
	}
	detail.Keywords = keywords

	photos, err := s.photoRepo.ListForExperience(ctx, detail.ID)
	if err != nil {
		return fmt.Errorf("failed to load photos: %w", err)
	}
	detail.Photos = photos
	return nil
}

func storedURLs(stored []StoredPhoto) []string {
	urls := make([]string, len(stored))
	for i, p := range stored {
		urls[i] = p.URL
	}
	return urls
}

// validateUpdateCoordinates checks the pair that would result from the
// edit: a request moving only one axis is validated against the stored
// value of the other.
func validateUpdateCoordinates(ctx context.Context, repo Repository, experienceID int64, req models.UpdateExperienceRequest) error {
	if req.Latitude == nil && req.Longitude == nil {
		return nil
	}
	if req.Latitude != nil && req.Longitude != nil {
		return search.ValidateCoordinates(*req.Latitude, *req.Longitude)
	}
	current, err := repo.GetByID(ctx, experienceID, "")
	if err != nil {
		return err
	}
	lat, lon := current.Latitude, current.Longitude
	if req.Latitude != nil {
		lat = *req.Latitude
	}
	if req.Longitude != nil {
		lon = *req.Longitude
	}
	return search.ValidateCoordinates(lat, lon)
}

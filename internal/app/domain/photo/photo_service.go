package photo

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Delete(ctx context.Context, experienceID, photoID int64, callerID string) error
}

type ServiceImpl struct {
	logger    *zap.Logger
	repo      Repository
	blobStore BlobStore
}

func NewService(repo Repository, blobStore BlobStore, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		blobStore: blobStore,
	}
}

// Delete removes one photo record and its blob. Only the owner of the
// parent experience may delete, and the photo must belong to the
// experience named in the path. The database row goes first; a blob the
// store refuses to drop is logged, not fatal.
func (s *ServiceImpl) Delete(ctx context.Context, experienceID, photoID int64, callerID string) error {
	ctx, span := otel.Tracer("PhotoService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.Int64("photo.id", photoID),
	))
	defer span.End()

	p, owner, err := s.repo.FindWithOwner(ctx, photoID)
	if err != nil {
		if err != models.ErrNotFound {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lookup failed")
		}
		return err
	}
	if p.ExperienceID != experienceID {
		return models.ErrNotFound
	}
	if owner != callerID {
		return models.ErrForbidden
	}

	if err := s.repo.DeleteByID(ctx, photoID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if err := s.blobStore.Delete(ctx, p.URL); err != nil {
		s.logger.Warn("failed to delete blob", zap.String("url", p.URL), zap.Error(err))
	}

	span.SetStatus(codes.Ok, "photo deleted")
	return nil
}

package photo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
)

type MockPhotoRepo struct {
	mock.Mock
}

func (m *MockPhotoRepo) ListForExperience(ctx context.Context, experienceID int64) ([]models.Photo, error) {
	args := m.Called(ctx, experienceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Photo), args.Error(1)
}

func (m *MockPhotoRepo) ListForExperiences(ctx context.Context, experienceIDs []int64) (map[int64][]models.Photo, error) {
	args := m.Called(ctx, experienceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]models.Photo), args.Error(1)
}

func (m *MockPhotoRepo) FindWithOwner(ctx context.Context, photoID int64) (models.Photo, string, error) {
	args := m.Called(ctx, photoID)
	return args.Get(0).(models.Photo), args.String(1), args.Error(2)
}

func (m *MockPhotoRepo) DeleteByID(ctx context.Context, photoID int64) error {
	args := m.Called(ctx, photoID)
	return args.Error(0)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func photoFixture(id, experienceID int64) models.Photo {
	return models.Photo{
		ID:           id,
		ExperienceID: experienceID,
		URL:          "https://blobs/a.jpg",
		UploadedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPhotoDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("owner deletes row and blob", func(t *testing.T) {
		repo := new(MockPhotoRepo)
		blobStore := new(MockBlobStore)
		repo.On("FindWithOwner", mock.Anything, int64(4)).Return(photoFixture(4, 1), "user-1", nil)
		repo.On("DeleteByID", mock.Anything, int64(4)).Return(nil)
		blobStore.On("Delete", mock.Anything, "https://blobs/a.jpg").Return(nil)

		svc := NewService(repo, blobStore, zap.NewNop())
		require.NoError(t, svc.Delete(ctx, 1, 4, "user-1"))
		repo.AssertExpectations(t)
		blobStore.AssertExpectations(t)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		repo := new(MockPhotoRepo)
		blobStore := new(MockBlobStore)
		repo.On("FindWithOwner", mock.Anything, int64(4)).Return(photoFixture(4, 1), "someone-else", nil)

		svc := NewService(repo, blobStore, zap.NewNop())
		assert.ErrorIs(t, svc.Delete(ctx, 1, 4, "user-1"), models.ErrForbidden)
		repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
	})

	t.Run("photo under a different experience is not found", func(t *testing.T) {
		repo := new(MockPhotoRepo)
		blobStore := new(MockBlobStore)
		repo.On("FindWithOwner", mock.Anything, int64(4)).Return(photoFixture(4, 7), "user-1", nil)

		svc := NewService(repo, blobStore, zap.NewNop())
		assert.ErrorIs(t, svc.Delete(ctx, 1, 4, "user-1"), models.ErrNotFound)
	})

	t.Run("missing photo", func(t *testing.T) {
		repo := new(MockPhotoRepo)
		blobStore := new(MockBlobStore)
		repo.On("FindWithOwner", mock.Anything, int64(99)).Return(models.Photo{}, "", models.ErrNotFound)

		svc := NewService(repo, blobStore, zap.NewNop())
		assert.ErrorIs(t, svc.Delete(ctx, 1, 99, "user-1"), models.ErrNotFound)
	})

	t.Run("blob failure is not fatal once the row is gone", func(t *testing.T) {
		repo := new(MockPhotoRepo)
		blobStore := new(MockBlobStore)
		repo.On("FindWithOwner", mock.Anything, int64(4)).Return(photoFixture(4, 1), "user-1", nil)
		repo.On("DeleteByID", mock.Anything, int64(4)).Return(nil)
		blobStore.On("Delete", mock.Anything, "https://blobs/a.jpg").Return(errors.New("store down"))

		svc := NewService(repo, blobStore, zap.NewNop())
		assert.NoError(t, svc.Delete(ctx, 1, 4, "user-1"))
	})
}

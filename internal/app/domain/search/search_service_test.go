package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/app/models"
	"github.com/roamlog/roamlog/internal/app/observability/metrics"
	"github.com/roamlog/roamlog/internal/pkg/config"
)

type MockSearchRepo struct {
	mock.Mock
}

func (m *MockSearchRepo) SearchByKeyword(ctx context.Context, pattern, callerID string, limit, offset int) ([]models.SearchResult, error) {
	args := m.Called(ctx, pattern, callerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchResult), args.Error(1)
}

func (m *MockSearchRepo) SearchByLocation(ctx context.Context, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error) {
	args := m.Called(ctx, lat, lon, radiusKm, callerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchResult), args.Error(1)
}

func (m *MockSearchRepo) SearchCombined(ctx context.Context, pattern string, lat, lon, radiusKm float64, callerID string, limit, offset int) ([]models.SearchResult, error) {
	args := m.Called(ctx, pattern, lat, lon, radiusKm, callerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchResult), args.Error(1)
}

func (m *MockSearchRepo) SearchByBounds(ctx context.Context, box models.BoundingBox, callerID string, maxResults int) ([]models.SearchResult, error) {
	args := m.Called(ctx, box, callerID, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchResult), args.Error(1)
}

func (m *MockSearchRepo) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockKeywordRepo struct {
	mock.Mock
}

func (m *MockKeywordRepo) ListForExperience(ctx context.Context, experienceID int64) ([]string, error) {
	args := m.Called(ctx, experienceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKeywordRepo) ListForExperiences(ctx context.Context, experienceIDs []int64) (map[int64][]string, error) {
	args := m.Called(ctx, experienceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]string), args.Error(1)
}

func (m *MockKeywordRepo) AllNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

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

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	m.Run()
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		MaxBoundsSpanDegrees: 10.0,
		MaxBoundsResults:     200,
	}
}

func newTestService() (*ServiceImpl, *MockSearchRepo, *MockKeywordRepo, *MockPhotoRepo) {
	repo := new(MockSearchRepo)
	keywordRepo := new(MockKeywordRepo)
	photoRepo := new(MockPhotoRepo)
	svc := NewService(repo, keywordRepo, photoRepo, testSearchConfig(), zap.NewNop())
	return svc, repo, keywordRepo, photoRepo
}

func TestByKeyword(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query is rejected", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		_, err := svc.ByKeyword(ctx, "   ", "", 0, 0)
		assert.ErrorIs(t, err, models.ErrQueryMissing)
		repo.AssertNotCalled(t, "SearchByKeyword",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wraps the query in wildcards and clamps paging", func(t *testing.T) {
		svc, repo, keywordRepo, photoRepo := newTestService()
		results := []models.SearchResult{
			{ExperienceDetail: models.ExperienceDetail{Experience: models.Experience{ID: 1}}},
		}
		repo.On("SearchByKeyword", mock.Anything, "%beach%", "caller-1", DefaultLimit, 0).
			Return(results, nil)
		keywordRepo.On("ListForExperiences", mock.Anything, []int64{1}).
			Return(map[int64][]string{1: {"beach"}}, nil)
		photoRepo.On("ListForExperiences", mock.Anything, []int64{1}).
			Return(map[int64][]models.Photo{}, nil)

		got, err := svc.ByKeyword(ctx, "beach", "caller-1", 0, -5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"beach"}, got[0].Keywords)
		assert.NotNil(t, got[0].Photos)
		repo.AssertExpectations(t)
	})
}

func TestByLocationValidation(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newTestService()

	_, err := svc.ByLocation(ctx, 91, 0, 50, "", 0, 0)
	assert.ErrorIs(t, err, models.ErrLatitudeRange)
	_, err = svc.ByLocation(ctx, 0, -190, 50, "", 0, 0)
	assert.ErrorIs(t, err, models.ErrLongitudeRange)
	repo.AssertNotCalled(t, "SearchByLocation", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestByLocationClampsRadius(t *testing.T) {
	ctx := context.Background()
	svc, repo, keywordRepo, photoRepo := newTestService()

	repo.On("SearchByLocation", mock.Anything, 41.15, -8.61, MaxRadiusKm, "", DefaultLimit, 0).
		Return([]models.SearchResult{}, nil)
	keywordRepo.On("ListForExperiences", mock.Anything, mock.Anything).
		Return(map[int64][]string{}, nil).Maybe()
	photoRepo.On("ListForExperiences", mock.Anything, mock.Anything).
		Return(map[int64][]models.Photo{}, nil).Maybe()

	_, err := svc.ByLocation(ctx, 41.15, -8.61, 9999, "", 0, 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCombinedRequiresBothInputs(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService()

	_, err := svc.Combined(ctx, "", 41, -8, 50, "", 0, 0)
	assert.ErrorIs(t, err, models.ErrQueryMissing)

	_, err = svc.Combined(ctx, "beach", 95, -8, 50, "", 0, 0)
	assert.ErrorIs(t, err, models.ErrLatitudeRange)
}

func TestByBounds(t *testing.T) {
	ctx := context.Background()

	t.Run("oversized viewport is rejected", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		box := models.BoundingBox{
			NorthEast: models.LatLng{Lat: 60, Lng: 10},
			SouthWest: models.LatLng{Lat: 40, Lng: 0},
		}
		_, err := svc.ByBounds(ctx, box, "")
		assert.ErrorIs(t, err, models.ErrBoundsTooLarge)
		repo.AssertNotCalled(t, "SearchByBounds", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("valid viewport hits the store with the result cap", func(t *testing.T) {
		svc, repo, keywordRepo, photoRepo := newTestService()
		box := models.BoundingBox{
			NorthEast: models.LatLng{Lat: 41.2, Lng: -8.5},
			SouthWest: models.LatLng{Lat: 41.1, Lng: -8.7},
		}
		repo.On("SearchByBounds", mock.Anything, box, "caller-1", 200).
			Return([]models.SearchResult{}, nil)
		keywordRepo.On("ListForExperiences", mock.Anything, mock.Anything).
			Return(map[int64][]string{}, nil).Maybe()
		photoRepo.On("ListForExperiences", mock.Anything, mock.Anything).
			Return(map[int64][]models.Photo{}, nil).Maybe()

		_, err := svc.ByBounds(ctx, box, "caller-1")
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects empty and single-character prefixes", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		_, err := svc.Suggest(ctx, "", 10)
		assert.ErrorIs(t, err, models.ErrQueryMissing)
		_, err = svc.Suggest(ctx, "b", 10)
		assert.ErrorIs(t, err, models.ErrQueryTooShort)
	})

	t.Run("appends the prefix wildcard and dedupes case-insensitively", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		repo.On("Suggestions", mock.Anything, "bea%", DefaultSuggestionLimit).
			Return([]string{"Beach", "beach", "Beachfront dinner"}, nil)

		got, err := svc.Suggest(ctx, "bea", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"Beach", "Beachfront dinner"}, got)
	})
}

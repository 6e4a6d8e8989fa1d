package keyword

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListForExperience(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())

	rows := pgxmock.NewRows([]string{"name"}).
		AddRow("beach").
		AddRow("hiking")

	mockPool.ExpectQuery(`SELECT k.name`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	names, err := repo.ListForExperience(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "hiking"}, names)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestListForExperiences(t *testing.T) {
	t.Run("groups names by experience", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewRepository(mockPool, zap.NewNop())

		rows := pgxmock.NewRows([]string{"experience_id", "name"}).
			AddRow(int64(1), "beach").
			AddRow(int64(1), "sunset").
			AddRow(int64(3), "hiking")

		mockPool.ExpectQuery(`ANY\(\$1\)`).
			WithArgs([]int64{1, 2, 3}).
			WillReturnRows(rows)

		byID, err := repo.ListForExperiences(context.Background(), []int64{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"beach", "sunset"}, byID[1])
		assert.Nil(t, byID[2])
		assert.Equal(t, []string{"hiking"}, byID[3])

		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("empty input never hits the store", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewRepository(mockPool, zap.NewNop())

		byID, err := repo.ListForExperiences(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, byID)

		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestAllNames(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := NewRepository(mockPool, zap.NewNop())

	rows := pgxmock.NewRows([]string{"name"}).
		AddRow("beach").
		AddRow("street food")

	mockPool.ExpectQuery(`SELECT name FROM keywords`).
		WillReturnRows(rows)

	names, err := repo.AllNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"beach", "street food"}, names)

	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestEnsureAndLink(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts and links each distinct name once", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectBegin()

		// "beach" appears twice and the empty string sneaks in; only two
		// upserts should reach the store.
		mockPool.ExpectQuery(`INSERT INTO keywords`).
			WithArgs("beach").
			WillReturnRows(pgxmock.NewRows([]string{"keyword_id"}).AddRow(int64(10)))
		mockPool.ExpectExec(`INSERT INTO experience_keywords`).
			WithArgs(int64(1), int64(10)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		mockPool.ExpectQuery(`INSERT INTO keywords`).
			WithArgs("hiking").
			WillReturnRows(pgxmock.NewRows([]string{"keyword_id"}).AddRow(int64(11)))
		mockPool.ExpectExec(`INSERT INTO experience_keywords`).
			WithArgs(int64(1), int64(11)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		tx, err := mockPool.Begin(ctx)
		require.NoError(t, err)

		err = EnsureAndLink(ctx, tx, 1, []string{"beach", "", "hiking", "beach"})
		require.NoError(t, err)

		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("relinking an existing keyword is a no-op insert", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO keywords`).
			WithArgs("beach").
			WillReturnRows(pgxmock.NewRows([]string{"keyword_id"}).AddRow(int64(10)))
		mockPool.ExpectExec(`INSERT INTO experience_keywords`).
			WithArgs(int64(1), int64(10)).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		tx, err := mockPool.Begin(ctx)
		require.NoError(t, err)

		assert.NoError(t, EnsureAndLink(ctx, tx, 1, []string{"beach"}))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestReplaceLinks(t *testing.T) {
	ctx := context.Background()

	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	mockPool.ExpectBegin()
	mockPool.ExpectExec(`DELETE FROM experience_keywords`).
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mockPool.ExpectQuery(`INSERT INTO keywords`).
		WithArgs("market").
		WillReturnRows(pgxmock.NewRows([]string{"keyword_id"}).AddRow(int64(12)))
	mockPool.ExpectExec(`INSERT INTO experience_keywords`).
		WithArgs(int64(1), int64(12)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mockPool.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, ReplaceLinks(ctx, tx, 1, []string{"market"}))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

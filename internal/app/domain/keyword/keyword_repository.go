package keyword

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/roamlog/roamlog/internal/pkg/database"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the read side of the canonical keyword set.
type Repository interface {
	ListForExperience(ctx context.Context, experienceID int64) ([]string, error)
	ListForExperiences(ctx context.Context, experienceIDs []int64) (map[int64][]string, error)
	AllNames(ctx context.Context) ([]string, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool database.PgxIface
}

func NewRepository(pgpool database.PgxIface, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *RepositoryImpl) ListForExperience(ctx context.Context, experienceID int64) ([]string, error) {
	query := `
        SELECT k.name
        FROM experience_keywords ek
        JOIN keywords k ON k.keyword_id = ek.keyword_id
        WHERE ek.experience_id = $1
        ORDER BY k.name
    `
	rows, err := r.pgpool.Query(ctx, query, experienceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan keyword row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keyword rows: %w", err)
	}
	return names, nil
}

func (r *RepositoryImpl) ListForExperiences(ctx context.Context, experienceIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(experienceIDs))
	if len(experienceIDs) == 0 {
		return result, nil
	}

	query := `
        SELECT ek.experience_id, k.name
        FROM experience_keywords ek
        JOIN keywords k ON k.keyword_id = ek.keyword_id
        WHERE ek.experience_id = ANY($1)
        ORDER BY ek.experience_id, k.name
    `
	rows, err := r.pgpool.Query(ctx, query, experienceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var experienceID int64
		var name string
		if err := rows.Scan(&experienceID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan keyword row: %w", err)
		}
		result[experienceID] = append(result[experienceID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keyword rows: %w", err)
	}
	return result, nil
}

// AllNames returns the full canonical keyword vocabulary, ordered by name.
func (r *RepositoryImpl) AllNames(ctx context.Context) ([]string, error) {
	rows, err := r.pgpool.Query(ctx, `SELECT name FROM keywords ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword vocabulary: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan keyword name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keyword names: %w", err)
	}
	return names, nil
}

// EnsureAndLink inserts every name into the canonical keyword table when
// absent and links it to the experience. Idempotent: re-running with the
// same names produces the same link set.
func EnsureAndLink(ctx context.Context, tx pgx.Tx, experienceID int64, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		var keywordID int64
		err := tx.QueryRow(ctx, `
            INSERT INTO keywords (name)
            VALUES ($1)
            ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
            RETURNING keyword_id
        `, name).Scan(&keywordID)
		if err != nil {
			return fmt.Errorf("failed to upsert keyword %q: %w", name, err)
		}

		if _, err := tx.Exec(ctx, `
            INSERT INTO experience_keywords (experience_id, keyword_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING
        `, experienceID, keywordID); err != nil {
			return fmt.Errorf("failed to link keyword %q: %w", name, err)
		}
	}
	return nil
}

// ReplaceLinks rebuilds the experience's keyword set wholesale: every
// existing link is removed, then the new set is inserted. Canonical
// keyword rows are never deleted, only unlinked, so the vocabulary grows
// monotonically.
func ReplaceLinks(ctx context.Context, tx pgx.Tx, experienceID int64, names []string) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM experience_keywords WHERE experience_id = $1`, experienceID); err != nil {
		return fmt.Errorf("failed to clear keyword links: %w", err)
	}
	return EnsureAndLink(ctx, tx, experienceID, names)
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// FavoritesRepository persists the favorites identity set.
type FavoritesRepository interface {
	List(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, identities []string) error
}

type favoritesRepository struct {
	db *sql.DB
}

// NewFavoritesRepository creates a FavoritesRepository over the given store.
func NewFavoritesRepository(db *sql.DB) FavoritesRepository {
	return &favoritesRepository{db: db}
}

var _ FavoritesRepository = (*favoritesRepository)(nil)

func (r *favoritesRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT identity FROM favorite_chemicals ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func (r *favoritesRepository) Replace(ctx context.Context, identities []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorite_chemicals`); err != nil {
		return fmt.Errorf("failed to clear favorites: %w", err)
	}

	base := time.Now()
	for i, identity := range identities {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO favorite_chemicals (identity_key, identity, created_at)
			 VALUES (?, ?, ?)`,
			models.IdentityKey(identity), identity, base.Add(time.Duration(i)*time.Microsecond)); err != nil {
			return fmt.Errorf("failed to insert favorite: %w", err)
		}
	}

	return tx.Commit()
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// ChemicalRepository persists the user addition/edit overlay. The overlay is
// an ordered list of raw records; reconciliation replays it over the baseline
// on every load.
type ChemicalRepository interface {
	// ListAdditions returns the overlay in insertion order. Rows with
	// malformed documents are skipped, never fatal.
	ListAdditions(ctx context.Context) ([]models.RawRecord, error)

	// ReplaceAdditions rewrites the whole overlay atomically. The overlay
	// is small (user-entered records only), so whole-collection rewrites
	// keep the repository semantics identical to the in-memory list.
	ReplaceAdditions(ctx context.Context, additions []models.RawRecord) error
}

type chemicalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewChemicalRepository creates a ChemicalRepository over the given store.
func NewChemicalRepository(db *sql.DB, logger *zap.Logger) ChemicalRepository {
	return &chemicalRepository{db: db, logger: logger.Named("chemical-repo")}
}

var _ ChemicalRepository = (*chemicalRepository)(nil)

func (r *chemicalRepository) ListAdditions(ctx context.Context) ([]models.RawRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT identity_key, document FROM user_chemicals ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user chemicals: %w", err)
	}
	defer rows.Close()

	var additions []models.RawRecord
	for rows.Next() {
		var key, document string
		if err := rows.Scan(&key, &document); err != nil {
			return nil, fmt.Errorf("failed to scan user chemical: %w", err)
		}
		var raw models.RawRecord
		if err := json.Unmarshal([]byte(document), &raw); err != nil {
			r.logger.Warn("Skipping malformed user chemical row",
				zap.String("identity_key", key),
				zap.Error(err))
			continue
		}
		additions = append(additions, raw)
	}
	return additions, rows.Err()
}

func (r *chemicalRepository) ReplaceAdditions(ctx context.Context, additions []models.RawRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_chemicals`); err != nil {
		return fmt.Errorf("failed to clear user chemicals: %w", err)
	}

	now := time.Now()
	for i, raw := range additions {
		document, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("failed to marshal user chemical: %w", err)
		}
		key := models.IdentityKey(models.NormalizeRecord(raw).Identity)
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO user_chemicals (identity_key, position, document, updated_at)
			 VALUES (?, ?, ?, ?)`,
			key, i, string(document), now); err != nil {
			return fmt.Errorf("failed to insert user chemical: %w", err)
		}
	}

	return tx.Commit()
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// UsageLogRepository persists per-chemical usage rows.
type UsageLogRepository interface {
	List(ctx context.Context) ([]models.UsageLog, error)
	ListByChemical(ctx context.Context, chemicalID string) ([]models.UsageLog, error)
	Insert(ctx context.Context, row *models.UsageLog) error
	Delete(ctx context.Context, id string) error
}

type usageLogRepository struct {
	db *sql.DB
}

// NewUsageLogRepository creates a UsageLogRepository over the given store.
func NewUsageLogRepository(db *sql.DB) UsageLogRepository {
	return &usageLogRepository{db: db}
}

var _ UsageLogRepository = (*usageLogRepository)(nil)

const usageColumns = `id, chemical_id, log_date, action, quantity, unit, notes, user_name`

func (r *usageLogRepository) List(ctx context.Context) ([]models.UsageLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+usageColumns+` FROM usage_logs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}
	defer rows.Close()
	return scanUsageRows(rows)
}

func (r *usageLogRepository) ListByChemical(ctx context.Context, chemicalID string) ([]models.UsageLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+usageColumns+` FROM usage_logs
		 WHERE chemical_id = ? ORDER BY created_at DESC`,
		models.IdentityKey(chemicalID))
	if err != nil {
		return nil, fmt.Errorf("failed to list usage logs for chemical: %w", err)
	}
	defer rows.Close()
	return scanUsageRows(rows)
}

func scanUsageRows(rows *sql.Rows) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	for rows.Next() {
		var row models.UsageLog
		var logDate, unit, notes, user sql.NullString
		if err := rows.Scan(&row.ID, &row.ChemicalID, &logDate, &row.Action,
			&row.Quantity, &unit, &notes, &user); err != nil {
			return nil, fmt.Errorf("failed to scan usage log: %w", err)
		}
		row.Date = logDate.String
		row.Unit = unit.String
		row.Notes = notes.String
		row.User = user.String
		logs = append(logs, row)
	}
	return logs, rows.Err()
}

func (r *usageLogRepository) Insert(ctx context.Context, row *models.UsageLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usage_logs (id, chemical_id, log_date, action, quantity, unit, notes, user_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, models.IdentityKey(row.ChemicalID), row.Date, row.Action,
		row.Quantity, row.Unit, row.Notes, row.User, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert usage log: %w", err)
	}
	return nil
}

func (r *usageLogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM usage_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete usage log: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

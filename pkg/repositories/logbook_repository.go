package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// LogbookRepository persists logbook entries. Entries are immutable: the
// interface deliberately has no update operation.
type LogbookRepository interface {
	List(ctx context.Context) ([]models.LogEntry, error)
	Insert(ctx context.Context, entry *models.LogEntry) error
	Delete(ctx context.Context, id string) error
}

type logbookRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLogbookRepository creates a LogbookRepository over the given store.
func NewLogbookRepository(db *sql.DB, logger *zap.Logger) LogbookRepository {
	return &logbookRepository{db: db, logger: logger.Named("logbook-repo")}
}

var _ LogbookRepository = (*logbookRepository)(nil)

func (r *logbookRepository) List(ctx context.Context) ([]models.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, log_type, chemical_id, chemical_name, entry_date, created_at, fields
		 FROM logbook_entries ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list logbook entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var entry models.LogEntry
		var chemicalID, chemicalName, entryDate, fields sql.NullString
		if err := rows.Scan(&entry.ID, &entry.LogType, &chemicalID, &chemicalName,
			&entryDate, &entry.Timestamp, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan logbook entry: %w", err)
		}
		entry.ChemicalID = chemicalID.String
		entry.ChemicalName = chemicalName.String
		entry.Date = entryDate.String
		if fields.Valid && fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &entry.Fields); err != nil {
				r.logger.Warn("Dropping malformed fields document on logbook entry",
					zap.String("id", entry.ID),
					zap.Error(err))
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *logbookRepository) Insert(ctx context.Context, entry *models.LogEntry) error {
	fields, err := json.Marshal(entry.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal entry fields: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO logbook_entries (id, log_type, chemical_id, chemical_name, entry_date, created_at, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.LogType, entry.ChemicalID, entry.ChemicalName,
		entry.Date, entry.Timestamp, string(fields))
	if err != nil {
		return fmt.Errorf("failed to insert logbook entry: %w", err)
	}
	return nil
}

func (r *logbookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM logbook_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete logbook entry: %w", err)
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

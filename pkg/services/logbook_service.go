package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/jsonutil"
	"github.com/chemref-labs/chemref-engine/pkg/models"
	"github.com/chemref-labs/chemref-engine/pkg/registry"
	"github.com/chemref-labs/chemref-engine/pkg/repositories"
)

// LogbookService manages the append-only lab logbook. Entries are validated
// against the log-type registry on creation and can only ever be deleted,
// never edited.
type LogbookService interface {
	List(ctx context.Context) ([]models.LogEntry, error)
	Create(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error)
	Delete(ctx context.Context, id string) error

	LogTypes() []registry.LogType

	UsageHistory(ctx context.Context, chemicalID string) ([]models.UsageLog, error)

	// OnChange registers a callback invoked after every successful
	// mutation of the logbook.
	OnChange(fn func())
}

type logbookService struct {
	entries  repositories.LogbookRepository
	usage    repositories.UsageLogRepository
	catalog  CatalogService
	registry *registry.Registry
	logger   *zap.Logger

	mu        sync.RWMutex
	listeners []func()
}

// NewLogbookService wires the logbook over its repositories. catalog is used
// to resolve chemical names and to apply usage actions to inventory.
func NewLogbookService(
	entries repositories.LogbookRepository,
	usage repositories.UsageLogRepository,
	catalog CatalogService,
	reg *registry.Registry,
	logger *zap.Logger,
) LogbookService {
	return &logbookService{
		entries:  entries,
		usage:    usage,
		catalog:  catalog,
		registry: reg,
		logger:   logger.Named("logbook-service"),
	}
}

var _ LogbookService = (*logbookService)(nil)

func (s *logbookService) List(ctx context.Context) ([]models.LogEntry, error) {
	return s.entries.List(ctx)
}

func (s *logbookService) LogTypes() []registry.LogType {
	return s.registry.Types()
}

func (s *logbookService) Create(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: missing entry", apperrors.ErrValidation)
	}
	if strings.TrimSpace(entry.ChemicalID) == "" {
		entry.ChemicalID = entry.FieldString("chemical")
	}
	if entry.Date == "" {
		entry.Date = nowFunc().Format("2006-01-02")
	}

	// The registry schemas carry chemical and date as form fields; fill
	// them from the entry's own properties before validating.
	fields := make(map[string]any, len(entry.Fields)+2)
	for k, v := range entry.Fields {
		fields[k] = v
	}
	if _, ok := fields["chemical"]; !ok && entry.ChemicalID != "" {
		fields["chemical"] = entry.ChemicalID
	}
	if _, ok := fields["date"]; !ok {
		fields["date"] = entry.Date
	}
	if err := s.registry.Validate(entry.LogType, fields); err != nil {
		return nil, err
	}

	if entry.ChemicalID != "" {
		rec, err := s.catalog.Get(ctx, entry.ChemicalID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown chemical %q", apperrors.ErrValidation, entry.ChemicalID)
			}
			return nil, err
		}
		entry.ChemicalID = rec.IdentityKey()
		if entry.ChemicalName == "" {
			entry.ChemicalName = rec.Name
		}
	}

	entry.ID = newID()
	entry.Timestamp = nowFunc()

	if err := s.entries.Insert(ctx, entry); err != nil {
		return nil, err
	}

	if entry.LogType == models.LogTypeUsage {
		if err := s.recordUsage(ctx, entry); err != nil {
			s.logger.Warn("Usage entry saved but inventory adjustment failed",
				zap.String("entry_id", entry.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("Logbook entry created",
		zap.String("entry_id", entry.ID),
		zap.String("log_type", entry.LogType),
		zap.String("chemical_id", entry.ChemicalID))
	s.notify()
	return entry, nil
}

// recordUsage mirrors a usage entry into the usage log and applies its action
// to the chemical's inventory quantity.
func (s *logbookService) recordUsage(ctx context.Context, entry *models.LogEntry) error {
	action := entry.FieldString("action")
	if !models.KnownUsageAction(action) {
		return fmt.Errorf("%w: unknown usage action %q", apperrors.ErrValidation, action)
	}
	quantity, _ := jsonutil.FlexibleNumber(entry.Fields["quantity"])

	log := &models.UsageLog{
		ID:         newID(),
		ChemicalID: entry.ChemicalID,
		Date:       entry.Date,
		Action:     action,
		Quantity:   quantity,
		Unit:       entry.FieldString("unit"),
		Notes:      entry.FieldString("notes"),
		User:       entry.FieldString("user"),
	}
	if err := s.usage.Insert(ctx, log); err != nil {
		return err
	}

	_, err := s.catalog.AdjustQuantity(ctx, entry.ChemicalID, action, quantity)
	return err
}

func (s *logbookService) Delete(ctx context.Context, id string) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Logbook entry deleted", zap.String("entry_id", id))
	s.notify()
	return nil
}

func (s *logbookService) UsageHistory(ctx context.Context, chemicalID string) ([]models.UsageLog, error) {
	return s.usage.ListByChemical(ctx, chemicalID)
}

func (s *logbookService) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *logbookService) notify() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

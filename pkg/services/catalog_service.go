package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/analytics"
	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/baseline"
	"github.com/chemref-labs/chemref-engine/pkg/models"
	"github.com/chemref-labs/chemref-engine/pkg/reconcile"
	"github.com/chemref-labs/chemref-engine/pkg/repositories"
)

// CatalogService owns the reconciled chemical list. All reads and writes go
// through a single instance so the merged view stays consistent with the
// persisted overlay.
type CatalogService interface {
	// List returns the reconciled catalog in stable order.
	List(ctx context.Context) []models.ChemicalRecord
	// Get resolves one record by its identity (id, CAS number, or name).
	Get(ctx context.Context, identity string) (models.ChemicalRecord, error)
	Add(ctx context.Context, raw models.RawRecord) (models.ChemicalRecord, error)
	Update(ctx context.Context, raw models.RawRecord) (models.ChemicalRecord, error)
	Delete(ctx context.Context, identity string) error

	// AdjustQuantity applies a usage action to the record's inventory
	// quantity. The result is clamped at zero.
	AdjustQuantity(ctx context.Context, identity, action string, quantity float64) (models.ChemicalRecord, error)

	Favorites(ctx context.Context) []string
	ToggleFavorite(ctx context.Context, identity string) ([]string, error)

	RecentViews(ctx context.Context) ([]models.RecentView, error)
	RecordView(ctx context.Context, identity string) ([]models.RecentView, error)

	CompareList(ctx context.Context) ([]models.CompareItem, error)
	AddToCompare(ctx context.Context, identity string) ([]models.CompareItem, error)
	RemoveFromCompare(ctx context.Context, identity string) ([]models.CompareItem, error)

	LowStock(ctx context.Context) []models.ChemicalRecord
	ExpiringSoon(ctx context.Context, withinDays int) []models.ChemicalRecord
	Expired(ctx context.Context) []models.ChemicalRecord

	// Reload re-reads the baseline dataset and re-runs reconciliation
	// against the persisted overlay.
	Reload(ctx context.Context) error

	// OnChange registers a callback invoked after every successful
	// mutation of the catalog.
	OnChange(fn func())
}

type catalogService struct {
	loader    *baseline.Loader
	chemicals repositories.ChemicalRepository
	favRepo   repositories.FavoritesRepository
	views     repositories.RecentViewsRepository
	compare   repositories.CompareListRepository
	logger    *zap.Logger

	mu        sync.RWMutex
	baseline  []models.RawRecord
	additions []models.RawRecord
	merged    []models.ChemicalRecord
	favorites []string
	listeners []func()
}

// NewCatalogService loads the baseline, replays the persisted overlay and
// returns a ready catalog.
func NewCatalogService(
	ctx context.Context,
	loader *baseline.Loader,
	chemicals repositories.ChemicalRepository,
	favRepo repositories.FavoritesRepository,
	views repositories.RecentViewsRepository,
	compare repositories.CompareListRepository,
	logger *zap.Logger,
) (CatalogService, error) {
	s := &catalogService{
		loader:    loader,
		chemicals: chemicals,
		favRepo:   favRepo,
		views:     views,
		compare:   compare,
		logger:    logger.Named("catalog-service"),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) Reload(ctx context.Context) error {
	base := s.loader.Load(ctx)

	additions, err := s.chemicals.ListAdditions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load user additions: %w", err)
	}
	favorites, err := s.favRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load favorites: %w", err)
	}

	s.mu.Lock()
	s.baseline = base
	s.additions = additions
	s.favorites = favorites
	s.merged = reconcile.Reconcile(base, additions)
	merged := len(s.merged)
	s.mu.Unlock()

	s.logger.Info("Catalog reconciled",
		zap.Int("baseline", len(base)),
		zap.Int("additions", len(additions)),
		zap.Int("merged", merged))
	s.notify()
	return nil
}

func (s *catalogService) List(_ context.Context) []models.ChemicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChemicalRecord, len(s.merged))
	copy(out, s.merged)
	return out
}

func (s *catalogService) Get(_ context.Context, identity string) (models.ChemicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.find(identity)
	if !ok {
		return models.ChemicalRecord{}, apperrors.ErrNotFound
	}
	return rec, nil
}

// find resolves identity against the merged list. Callers hold the lock.
func (s *catalogService) find(identity string) (models.ChemicalRecord, bool) {
	key := strings.ToLower(strings.TrimSpace(identity))
	if key == "" {
		return models.ChemicalRecord{}, false
	}
	for _, rec := range s.merged {
		if rec.IdentityKey() == key {
			return rec, true
		}
	}
	// Fall back to the weaker identity fields so a record created with an
	// explicit id stays reachable by CAS number or name.
	for _, rec := range s.merged {
		if strings.ToLower(strings.TrimSpace(rec.CASNumber)) == key ||
			strings.ToLower(strings.TrimSpace(rec.Name)) == key {
			return rec, true
		}
	}
	return models.ChemicalRecord{}, false
}

func (s *catalogService) Add(ctx context.Context, raw models.RawRecord) (models.ChemicalRecord, error) {
	s.mu.Lock()
	merged, additions, err := reconcile.AddRecord(s.merged, s.additions, raw)
	if err != nil {
		s.mu.Unlock()
		return models.ChemicalRecord{}, err
	}
	if err := s.persistAdditions(ctx, merged, additions); err != nil {
		s.mu.Unlock()
		return models.ChemicalRecord{}, err
	}
	rec := merged[len(merged)-1]
	s.mu.Unlock()

	s.logger.Info("Chemical added", zap.String("identity", rec.IdentityKey()))
	s.notify()
	return rec, nil
}

func (s *catalogService) Update(ctx context.Context, raw models.RawRecord) (models.ChemicalRecord, error) {
	rec := models.NormalizeRecord(raw)

	s.mu.Lock()
	// Layer a partial edit over what the record already carries, so a body
	// naming only the changed fields does not blank the rest.
	if existing, ok := s.find(rec.IdentityKey()); ok {
		full := existing.Raw()
		for k, v := range raw {
			full[k] = v
		}
		raw = full
		rec = models.NormalizeRecord(raw)
	}
	merged, additions, err := reconcile.UpdateRecord(s.merged, s.additions, raw)
	if err != nil {
		s.mu.Unlock()
		return models.ChemicalRecord{}, err
	}
	if err := s.persistAdditions(ctx, merged, additions); err != nil {
		s.mu.Unlock()
		return models.ChemicalRecord{}, err
	}
	updated, _ := s.find(rec.IdentityKey())
	s.mu.Unlock()

	s.logger.Info("Chemical updated", zap.String("identity", rec.IdentityKey()))
	s.notify()
	return updated, nil
}

func (s *catalogService) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	rec, ok := s.find(identity)
	if !ok {
		s.mu.Unlock()
		return apperrors.ErrNotFound
	}
	merged, additions, err := reconcile.RemoveRecord(s.merged, s.additions, rec.Identity)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persistAdditions(ctx, merged, additions); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.logger.Info("Chemical deleted", zap.String("identity", identity))
	s.notify()
	return nil
}

func (s *catalogService) AdjustQuantity(ctx context.Context, identity, action string, quantity float64) (models.ChemicalRecord, error) {
	if !models.KnownUsageAction(action) {
		return models.ChemicalRecord{}, fmt.Errorf("%w: unknown usage action %q", apperrors.ErrValidation, action)
	}
	if quantity < 0 {
		return models.ChemicalRecord{}, fmt.Errorf("%w: quantity must not be negative", apperrors.ErrValidation)
	}

	s.mu.Lock()
	rec, ok := s.find(identity)
	if !ok {
		s.mu.Unlock()
		return models.ChemicalRecord{}, apperrors.ErrNotFound
	}
	inv := models.Inventory{}
	if rec.Inventory != nil {
		inv = *rec.Inventory
	}
	switch action {
	case models.UsageActionUsed:
		inv.Quantity -= quantity
	case models.UsageActionRestocked:
		inv.Quantity += quantity
	case models.UsageActionDisposed:
		inv.Quantity = 0
	}
	if inv.Quantity < 0 {
		inv.Quantity = 0
	}
	rec.Inventory = &inv

	merged, additions, err := reconcile.UpdateRecord(s.merged, s.additions, rec.Raw())
	if err != nil {
		s.mu.Unlock()
		return models.ChemicalRecord{}, err
	}
	if err := s.persistAdditions(ctx, merged, additions); err != nil {
		s.mu.Unlock()
		return models.ChemicalRecord{}, err
	}
	updated, _ := s.find(rec.IdentityKey())
	s.mu.Unlock()

	s.logger.Info("Inventory adjusted",
		zap.String("identity", rec.IdentityKey()),
		zap.String("action", action),
		zap.Float64("quantity", quantity))
	s.notify()
	return updated, nil
}

// persistAdditions writes the overlay and, only on success, installs the new
// in-memory state. Callers hold the write lock.
func (s *catalogService) persistAdditions(ctx context.Context, merged []models.ChemicalRecord, additions []models.RawRecord) error {
	if err := s.chemicals.ReplaceAdditions(ctx, additions); err != nil {
		return fmt.Errorf("failed to persist user additions: %w", err)
	}
	s.merged = merged
	s.additions = additions
	return nil
}

func (s *catalogService) Favorites(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.favorites))
	copy(out, s.favorites)
	return out
}

func (s *catalogService) ToggleFavorite(ctx context.Context, identity string) ([]string, error) {
	s.mu.Lock()
	rec, ok := s.find(identity)
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.ErrNotFound
	}
	favorites := reconcile.ToggleFavorite(s.favorites, rec.IdentityKey())
	if err := s.favRepo.Replace(ctx, favorites); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to persist favorites: %w", err)
	}
	s.favorites = favorites
	out := make([]string, len(favorites))
	copy(out, favorites)
	s.mu.Unlock()

	s.notify()
	return out, nil
}

func (s *catalogService) RecentViews(ctx context.Context) ([]models.RecentView, error) {
	return s.views.Get(ctx)
}

func (s *catalogService) RecordView(ctx context.Context, identity string) ([]models.RecentView, error) {
	rec, err := s.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	current, err := s.views.Get(ctx)
	if err != nil {
		return nil, err
	}
	key := rec.IdentityKey()
	next := make([]models.RecentView, 0, len(current)+1)
	next = append(next, models.RecentView{
		ID:        key,
		Name:      rec.Name,
		Formula:   rec.Formula,
		Timestamp: nowFunc(),
	})
	for _, v := range current {
		if strings.EqualFold(v.ID, key) {
			continue
		}
		next = append(next, v)
	}
	if err := s.views.Set(ctx, next); err != nil {
		return nil, err
	}
	return s.views.Get(ctx)
}

func (s *catalogService) CompareList(ctx context.Context) ([]models.CompareItem, error) {
	return s.compare.Get(ctx)
}

func (s *catalogService) AddToCompare(ctx context.Context, identity string) ([]models.CompareItem, error) {
	rec, err := s.Get(ctx, identity)
	if err != nil {
		return nil, err
	}

	current, err := s.compare.Get(ctx)
	if err != nil {
		return nil, err
	}
	key := rec.IdentityKey()
	for _, item := range current {
		if strings.EqualFold(item.ID, key) {
			return current, nil
		}
	}
	if len(current) >= repositories.CompareListCap {
		return nil, fmt.Errorf("%w: compare list holds at most %d chemicals",
			apperrors.ErrValidation, repositories.CompareListCap)
	}
	next := append(current, models.CompareItem{ID: key, Name: rec.Name, Formula: rec.Formula})
	if err := s.compare.Set(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *catalogService) RemoveFromCompare(ctx context.Context, identity string) ([]models.CompareItem, error) {
	current, err := s.compare.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := make([]models.CompareItem, 0, len(current))
	for _, item := range current {
		if strings.EqualFold(item.ID, identity) {
			continue
		}
		next = append(next, item)
	}
	if err := s.compare.Set(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *catalogService) LowStock(ctx context.Context) []models.ChemicalRecord {
	return analytics.LowStock(s.List(ctx), analytics.DefaultLowStockThreshold)
}

func (s *catalogService) ExpiringSoon(ctx context.Context, withinDays int) []models.ChemicalRecord {
	return analytics.ExpiringSoon(s.List(ctx), withinDays)
}

func (s *catalogService) Expired(ctx context.Context) []models.ChemicalRecord {
	return analytics.Expired(s.List(ctx))
}

func (s *catalogService) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *catalogService) notify() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

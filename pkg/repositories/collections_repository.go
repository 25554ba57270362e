package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// Well-known collection keys, carried over from the original client-side
// storage layout.
const (
	KeyRecentSearches = "recentSearches"
	KeyRecentViewed   = "chemref_recent_viewed"
	KeyCompareList    = "chemref_compare_list"
	keyProfilePrefix  = "userProfile:"
)

// Caps for the small rolling collections.
const (
	RecentViewedCap = 5
	CompareListCap  = 3
)

// collectionStore reads and writes whole JSON documents under well-known
// keys. A document that fails to parse is treated as absent, matching the
// recovery rule for malformed local state.
type collectionStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func (s *collectionStore) get(ctx context.Context, key string, out any) error {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM collections WHERE key = ?`, key).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(document), out); err != nil {
		s.logger.Warn("Treating malformed collection document as empty",
			zap.String("key", key),
			zap.Error(err))
	}
	return nil
}

func (s *collectionStore) set(ctx context.Context, key string, value any) error {
	document, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (key, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		key, string(document), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", key, err)
	}
	return nil
}

// SearchHistoryRepository persists the recent query list.
type SearchHistoryRepository interface {
	Get(ctx context.Context) ([]string, error)
	Set(ctx context.Context, history []string) error
}

type searchHistoryRepository struct {
	store collectionStore
}

// NewSearchHistoryRepository creates a SearchHistoryRepository over the
// given store.
func NewSearchHistoryRepository(db *sql.DB, logger *zap.Logger) SearchHistoryRepository {
	return &searchHistoryRepository{store: collectionStore{db: db, logger: logger.Named("search-history-repo")}}
}

var _ SearchHistoryRepository = (*searchHistoryRepository)(nil)

func (r *searchHistoryRepository) Get(ctx context.Context) ([]string, error) {
	var history []string
	if err := r.store.get(ctx, KeyRecentSearches, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (r *searchHistoryRepository) Set(ctx context.Context, history []string) error {
	return r.store.set(ctx, KeyRecentSearches, history)
}

// RecentViewsRepository persists the recently viewed chemicals, most recent
// first, capped at RecentViewedCap.
type RecentViewsRepository interface {
	Get(ctx context.Context) ([]models.RecentView, error)
	Set(ctx context.Context, views []models.RecentView) error
}

type recentViewsRepository struct {
	store collectionStore
}

// NewRecentViewsRepository creates a RecentViewsRepository over the given
// store.
func NewRecentViewsRepository(db *sql.DB, logger *zap.Logger) RecentViewsRepository {
	return &recentViewsRepository{store: collectionStore{db: db, logger: logger.Named("recent-views-repo")}}
}

var _ RecentViewsRepository = (*recentViewsRepository)(nil)

func (r *recentViewsRepository) Get(ctx context.Context) ([]models.RecentView, error) {
	var views []models.RecentView
	if err := r.store.get(ctx, KeyRecentViewed, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *recentViewsRepository) Set(ctx context.Context, views []models.RecentView) error {
	if len(views) > RecentViewedCap {
		views = views[:RecentViewedCap]
	}
	return r.store.set(ctx, KeyRecentViewed, views)
}

// CompareListRepository persists up to CompareListCap chemical summaries
// held for side-by-side comparison.
type CompareListRepository interface {
	Get(ctx context.Context) ([]models.CompareItem, error)
	Set(ctx context.Context, items []models.CompareItem) error
}

type compareListRepository struct {
	store collectionStore
}

// NewCompareListRepository creates a CompareListRepository over the given
// store.
func NewCompareListRepository(db *sql.DB, logger *zap.Logger) CompareListRepository {
	return &compareListRepository{store: collectionStore{db: db, logger: logger.Named("compare-list-repo")}}
}

var _ CompareListRepository = (*compareListRepository)(nil)

func (r *compareListRepository) Get(ctx context.Context) ([]models.CompareItem, error) {
	var items []models.CompareItem
	if err := r.store.get(ctx, KeyCompareList, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *compareListRepository) Set(ctx context.Context, items []models.CompareItem) error {
	if len(items) > CompareListCap {
		items = items[:CompareListCap]
	}
	return r.store.set(ctx, KeyCompareList, items)
}

// ProfileRepository persists per-user profiles, namespaced by the opaque
// identity from the authentication provider.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Set(ctx context.Context, profile *models.UserProfile) error
}

type profileRepository struct {
	store collectionStore
}

// NewProfileRepository creates a ProfileRepository over the given store.
func NewProfileRepository(db *sql.DB, logger *zap.Logger) ProfileRepository {
	return &profileRepository{store: collectionStore{db: db, logger: logger.Named("profile-repo")}}
}

var _ ProfileRepository = (*profileRepository)(nil)

func (r *profileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.store.get(ctx, keyProfilePrefix+userID, &profile); err != nil {
		return nil, err
	}
	if profile.UserID == "" {
		return nil, nil
	}
	return &profile, nil
}

func (r *profileRepository) Set(ctx context.Context, profile *models.UserProfile) error {
	profile.UpdatedAt = time.Now()
	return r.store.set(ctx, keyProfilePrefix+profile.UserID, profile)
}

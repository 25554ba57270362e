package services

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/reconcile"
	"github.com/chemref-labs/chemref-engine/pkg/repositories"
	"github.com/chemref-labs/chemref-engine/pkg/search"
)

// SearchService answers fuzzy queries over the catalog and logbook. The index
// is rebuilt lazily: catalog and logbook mutations mark it stale and the next
// query pays for the rebuild.
type SearchService interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
	History(ctx context.Context) ([]string, error)
	ClearHistory(ctx context.Context) error

	// MarkStale flags the index for rebuild on the next query. Wired as
	// the change callback of the catalog and logbook services.
	MarkStale()
}

type searchService struct {
	catalog CatalogService
	logbook LogbookService
	history repositories.SearchHistoryRepository
	logger  *zap.Logger

	mu    sync.Mutex
	index *search.Index
	stale bool
}

func NewSearchService(
	catalog CatalogService,
	logbook LogbookService,
	history repositories.SearchHistoryRepository,
	logger *zap.Logger,
) SearchService {
	return &searchService{
		catalog: catalog,
		logbook: logbook,
		history: history,
		logger:  logger.Named("search-service"),
		stale:   true,
	}
}

var _ SearchService = (*searchService)(nil)

func (s *searchService) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *searchService) currentIndex(ctx context.Context) (*search.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil || s.stale {
		entries, err := s.logbook.List(ctx)
		if err != nil {
			return nil, err
		}
		s.index = search.BuildIndex(s.catalog.List(ctx), entries)
		s.stale = false
		s.logger.Debug("Search index rebuilt", zap.Int("documents", s.index.Len()))
	}
	return s.index, nil
}

func (s *searchService) Search(ctx context.Context, query string) ([]search.Result, error) {
	if err := reconcile.ScreenQuery(query); err != nil {
		return nil, err
	}

	ix, err := s.currentIndex(ctx)
	if err != nil {
		return nil, err
	}
	results := ix.Search(query)

	if strings.TrimSpace(query) != "" {
		if err := s.recordQuery(ctx, query); err != nil {
			s.logger.Warn("Failed to record search history", zap.Error(err))
		}
	}
	return results, nil
}

func (s *searchService) recordQuery(ctx context.Context, query string) error {
	history, err := s.history.Get(ctx)
	if err != nil {
		return err
	}
	return s.history.Set(ctx, search.RecordQuery(history, query))
}

func (s *searchService) History(ctx context.Context) ([]string, error) {
	return s.history.Get(ctx)
}

func (s *searchService) ClearHistory(ctx context.Context) error {
	return s.history.Set(ctx, []string{})
}

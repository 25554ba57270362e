package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/analytics"
	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// Dashboard bundles every analytics panel into one response.
type Dashboard struct {
	TotalChemicals     int                        `json:"totalChemicals"`
	TotalLogEntries    int                        `json:"totalLogEntries"`
	HazardDistribution []analytics.HazardBucket   `json:"hazardDistribution"`
	MostUsed           []analytics.UsageSummary   `json:"mostUsed"`
	ActivityTimeline   []analytics.TimelineBucket `json:"activityTimeline"`
	LowStock           []models.ChemicalRecord    `json:"lowStock"`
	ExpiringSoon       []models.ChemicalRecord    `json:"expiringSoon"`
	Expired            []models.ChemicalRecord    `json:"expired"`
}

// Dashboard window defaults.
const (
	timelineWindowDays = 30
	expiryWindowDays   = 30
	mostUsedTopN       = 8
)

// AnalyticsService derives dashboard aggregates from the catalog and logbook.
type AnalyticsService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	HazardDistribution(ctx context.Context) []analytics.HazardBucket
	MostUsed(ctx context.Context) ([]analytics.UsageSummary, error)
	ActivityTimeline(ctx context.Context) ([]analytics.TimelineBucket, error)
	LowStock(ctx context.Context) []models.ChemicalRecord
	ExpiringSoon(ctx context.Context) []models.ChemicalRecord
	Expired(ctx context.Context) []models.ChemicalRecord
}

type analyticsService struct {
	catalog CatalogService
	logbook LogbookService
	logger  *zap.Logger
}

func NewAnalyticsService(catalog CatalogService, logbook LogbookService, logger *zap.Logger) AnalyticsService {
	return &analyticsService{
		catalog: catalog,
		logbook: logbook,
		logger:  logger.Named("analytics-service"),
	}
}

var _ AnalyticsService = (*analyticsService)(nil)

func (s *analyticsService) Dashboard(ctx context.Context) (*Dashboard, error) {
	chemicals := s.catalog.List(ctx)
	entries, err := s.logbook.List(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.catalog.RecentViews(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalChemicals:     len(chemicals),
		TotalLogEntries:    len(entries),
		HazardDistribution: analytics.HazardDistribution(chemicals),
		MostUsed:           analytics.MostUsedChemicals(entries, chemicals, mostUsedTopN),
		ActivityTimeline:   analytics.ActivityTimeline(entries, views, timelineWindowDays),
		LowStock:           analytics.LowStock(chemicals, analytics.DefaultLowStockThreshold),
		ExpiringSoon:       analytics.ExpiringSoon(chemicals, expiryWindowDays),
		Expired:            analytics.Expired(chemicals),
	}, nil
}

func (s *analyticsService) HazardDistribution(ctx context.Context) []analytics.HazardBucket {
	return analytics.HazardDistribution(s.catalog.List(ctx))
}

func (s *analyticsService) MostUsed(ctx context.Context) ([]analytics.UsageSummary, error) {
	entries, err := s.logbook.List(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.MostUsedChemicals(entries, s.catalog.List(ctx), mostUsedTopN), nil
}

func (s *analyticsService) ActivityTimeline(ctx context.Context) ([]analytics.TimelineBucket, error) {
	entries, err := s.logbook.List(ctx)
	if err != nil {
		return nil, err
	}
	views, err := s.catalog.RecentViews(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.ActivityTimeline(entries, views, timelineWindowDays), nil
}

func (s *analyticsService) LowStock(ctx context.Context) []models.ChemicalRecord {
	return s.catalog.LowStock(ctx)
}

func (s *analyticsService) ExpiringSoon(ctx context.Context) []models.ChemicalRecord {
	return s.catalog.ExpiringSoon(ctx, expiryWindowDays)
}

func (s *analyticsService) Expired(ctx context.Context) []models.ChemicalRecord {
	return s.catalog.Expired(ctx)
}

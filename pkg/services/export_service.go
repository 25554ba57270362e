package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// ExportService renders the catalog and logbook as CSV downloads.
type ExportService interface {
	ChemicalsCSV(ctx context.Context, w io.Writer) error
	LogbookCSV(ctx context.Context, w io.Writer) error
}

type exportService struct {
	catalog CatalogService
	logbook LogbookService
	logger  *zap.Logger
}

func NewExportService(catalog CatalogService, logbook LogbookService, logger *zap.Logger) ExportService {
	return &exportService{
		catalog: catalog,
		logbook: logbook,
		logger:  logger.Named("export-service"),
	}
}

var _ ExportService = (*exportService)(nil)

var chemicalCSVHeader = []string{
	"Name", "Formula", "CAS Number", "Appearance", "Tags", "Hazards",
	"Quantity", "Unit", "Location", "Expiration Date", "Description",
}

func (s *exportService) ChemicalsCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(chemicalCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range s.catalog.List(ctx) {
		var quantity, unit, location, expiration string
		if inv := rec.Inventory; inv != nil {
			quantity = strconv.FormatFloat(inv.Quantity, 'f', -1, 64)
			unit = inv.Unit
			location = inv.Location
			if inv.ExpirationDate != nil {
				expiration = inv.ExpirationDate.Format("2006-01-02")
			}
		}
		row := []string{
			rec.Name,
			rec.Formula,
			rec.CASNumber,
			rec.Appearance,
			strings.Join(rec.Tags, "; "),
			strings.Join(rec.Hazards, "; "),
			quantity,
			unit,
			location,
			expiration,
			rec.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var logbookCSVHeader = []string{
	"Date", "Type", "Chemical", "Details",
}

func (s *exportService) LogbookCSV(ctx context.Context, w io.Writer) error {
	entries, err := s.logbook.List(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(logbookCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.BucketDate().Format("2006-01-02"),
			e.LogType,
			e.ChemicalName,
			summarizeFields(&e),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// summarizeFields flattens an entry's type-specific fields into one readable
// cell.
func summarizeFields(e *models.LogEntry) string {
	if len(e.Fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e.Fields))
	for _, name := range sortedFieldNames(e.Fields) {
		v := e.Fields[name]
		if v == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", name, v))
	}
	return strings.Join(parts, "; ")
}

func sortedFieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	// Stable cell contents regardless of map order.
	sort.Strings(names)
	return names
}

package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

func TestHazardDistribution_SumsCorrectly(t *testing.T) {
	chemicals := []models.ChemicalRecord{
		{Name: "A", Hazards: []string{"Toxic"}},
		{Name: "B", Hazards: []string{"Toxic", "Corrosive"}},
	}

	dist := HazardDistribution(chemicals)

	require.Len(t, dist, 2)
	assert.Equal(t, "Toxic", dist[0].Name)
	assert.Equal(t, 2, dist[0].Count)
	assert.Equal(t, "Corrosive", dist[1].Name)
	assert.Equal(t, 1, dist[1].Count)
}

func TestHazardDistribution_ColorFallback(t *testing.T) {
	dist := HazardDistribution([]models.ChemicalRecord{
		{Name: "A", Hazards: []string{"Flammable", "Weirdly Specific Hazard"}},
	})

	require.Len(t, dist, 2)
	colors := map[string]string{}
	for _, b := range dist {
		colors[b.Name] = b.Color
	}
	assert.Equal(t, "#ef4444", colors["Flammable"])
	assert.Equal(t, hazardColorOther, colors["Weirdly Specific Hazard"])
}

func TestHazardDistribution_Empty(t *testing.T) {
	assert.Empty(t, HazardDistribution(nil))
	assert.Empty(t, HazardDistribution([]models.ChemicalRecord{{Name: "A"}}))
}

func TestMostUsedChemicals_Ranking(t *testing.T) {
	chemicals := []models.ChemicalRecord{
		{Identity: "W", Name: "Water", Formula: "H2O"},
		{Identity: "E", Name: "Ethanol", Formula: "C2H6O"},
	}
	entries := []models.LogEntry{
		{ChemicalID: "W", Fields: map[string]any{"quantity": float64(10)}},
		{ChemicalID: "W", Fields: map[string]any{"quantity": "5"}},
		{ChemicalID: "W", Fields: map[string]any{"quantity": "not a number"}},
		{ChemicalID: "E"},
	}

	top := MostUsedChemicals(entries, chemicals, 8)

	require.Len(t, top, 2)
	assert.Equal(t, "W", top[0].ID)
	assert.Equal(t, 3, top[0].Count)
	assert.Equal(t, 15.0, top[0].TotalQuantity, "non-numeric quantities count as 0")
	assert.Equal(t, "Water", top[0].Name)
	assert.Equal(t, "E", top[1].ID)
	assert.Equal(t, 1, top[1].Count)
}

func TestMostUsedChemicals_DeletedChemicalFallsBackToRecordedName(t *testing.T) {
	entries := []models.LogEntry{
		{ChemicalID: "gone", ChemicalName: "Old Reagent"},
	}

	top := MostUsedChemicals(entries, nil, 8)

	require.Len(t, top, 1)
	assert.Equal(t, "Old Reagent", top[0].Name)
}

func TestMostUsedChemicals_TopN(t *testing.T) {
	var entries []models.LogEntry
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		entries = append(entries, models.LogEntry{ChemicalID: id, ChemicalName: id})
	}

	top := MostUsedChemicals(entries, nil, 8)
	assert.Len(t, top, 8)
}

func TestActivityTimeline_DenseSeries(t *testing.T) {
	buckets := ActivityTimeline(nil, nil, 30)

	require.Len(t, buckets, 30)
	for _, b := range buckets {
		assert.Zero(t, b.LogCount)
		assert.Zero(t, b.ViewCount)
		assert.Zero(t, b.Total)
	}

	// Dates form a contiguous ascending sequence ending today.
	assert.Equal(t, time.Now().Format("2006-01-02"), buckets[len(buckets)-1].Date)
	for i := 1; i < len(buckets); i++ {
		prev, _ := time.Parse("2006-01-02", buckets[i-1].Date)
		curr, _ := time.Parse("2006-01-02", buckets[i].Date)
		assert.Equal(t, 24*time.Hour, curr.Sub(prev))
	}
}

func TestActivityTimeline_BucketsActivity(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2026-08-29T12:00:00Z")
	yesterday := now.AddDate(0, 0, -1)

	entries := []models.LogEntry{
		{Date: "2026-08-28", Timestamp: now},
		{Timestamp: now},                                       // no date, buckets by timestamp
		{Date: "2020-01-01", Timestamp: now.AddDate(-6, 0, 0)}, // outside window, ignored
	}
	views := []models.RecentView{
		{Timestamp: yesterday},
	}

	buckets := activityTimelineAt(entries, views, 30, now)

	require.Len(t, buckets, 30)
	last := buckets[29]
	assert.Equal(t, "2026-08-29", last.Date)
	assert.Equal(t, 1, last.LogCount)

	prior := buckets[28]
	assert.Equal(t, "2026-08-28", prior.Date)
	assert.Equal(t, 1, prior.LogCount)
	assert.Equal(t, 1, prior.ViewCount)
	assert.Equal(t, 2, prior.Total)
}

func TestLowStock_Boundaries(t *testing.T) {
	chemicals := []models.ChemicalRecord{
		{Identity: "at-threshold", Inventory: &models.Inventory{Quantity: 10, LowStockThreshold: 10}},
		{Identity: "out-of-stock", Inventory: &models.Inventory{Quantity: 0, LowStockThreshold: 10}},
		{Identity: "above", Inventory: &models.Inventory{Quantity: 11, LowStockThreshold: 10}},
		{Identity: "default-threshold", Inventory: &models.Inventory{Quantity: 9}},
		{Identity: "no-inventory"},
	}

	low := LowStock(chemicals, 10)

	ids := make([]string, 0, len(low))
	for _, c := range low {
		ids = append(ids, c.Identity)
	}
	assert.Contains(t, ids, "at-threshold", "quantity equal to threshold is low stock")
	assert.Contains(t, ids, "default-threshold")
	assert.NotContains(t, ids, "out-of-stock", "zero quantity is out of stock, not low")
	assert.NotContains(t, ids, "above")
	assert.NotContains(t, ids, "no-inventory")
}

func TestExpiringSoonAndExpired(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2026-08-29T12:00:00Z")
	in10 := now.AddDate(0, 0, 10)
	in60 := now.AddDate(0, 0, 60)
	past := now.AddDate(0, 0, -5)

	chemicals := []models.ChemicalRecord{
		{Identity: "soon", Inventory: &models.Inventory{ExpirationDate: &in10}},
		{Identity: "later", Inventory: &models.Inventory{ExpirationDate: &in60}},
		{Identity: "gone", Inventory: &models.Inventory{ExpirationDate: &past}},
		{Identity: "no-date", Inventory: &models.Inventory{}},
	}

	soon := expiringSoonAt(chemicals, 30, now)
	require.Len(t, soon, 1)
	assert.Equal(t, "soon", soon[0].Identity)

	expired := expiredAt(chemicals, now)
	require.Len(t, expired, 1)
	assert.Equal(t, "gone", expired[0].Identity)
}

func TestAggregators_EmptyInputs(t *testing.T) {
	assert.Empty(t, MostUsedChemicals(nil, nil, 8))
	assert.Empty(t, LowStock(nil, 0))
	assert.Empty(t, ExpiringSoon(nil, 0))
	assert.Empty(t, Expired(nil))
	assert.Len(t, ActivityTimeline(nil, nil, 7), 7)
}

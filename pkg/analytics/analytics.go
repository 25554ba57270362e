// Package analytics computes read-only derived views over the canonical
// chemical list and the logbook. Every function here is pure: no hidden
// state, no I/O, recomputed on demand. Empty or malformed inputs yield empty
// results, never a panic.
package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/chemref-labs/chemref-engine/pkg/jsonutil"
	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// HazardBucket is one slice of the hazard distribution.
type HazardBucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// UsageSummary ranks one chemical by logged activity.
type UsageSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Formula       string  `json:"formula,omitempty"`
	Count         int     `json:"count"`
	TotalQuantity float64 `json:"totalQuantity"`
}

// TimelineBucket is one calendar day of the activity timeline.
type TimelineBucket struct {
	Date      string `json:"date"`
	LogCount  int    `json:"logCount"`
	ViewCount int    `json:"viewCount"`
	Total     int    `json:"total"`
}

// Fixed hazard color lookup; unrecognized hazard names fall back to the
// "other" color.
var hazardColors = map[string]string{
	"flammable":            "#ef4444",
	"toxic":                "#8b5cf6",
	"corrosive":            "#f97316",
	"oxidizer":             "#eab308",
	"explosive":            "#dc2626",
	"irritant":             "#f59e0b",
	"carcinogen":           "#7c3aed",
	"environmental hazard": "#22c55e",
	"compressed gas":       "#06b6d4",
	"health hazard":        "#ec4899",
	"none":                 "#94a3b8",
}

const hazardColorOther = "#64748b"

// HazardDistribution counts hazard occurrences across all records, sorted
// descending by count. Ties break alphabetically so output is deterministic.
func HazardDistribution(chemicals []models.ChemicalRecord) []HazardBucket {
	counts := make(map[string]int)
	display := make(map[string]string)
	for i := range chemicals {
		for _, h := range chemicals[i].Hazards {
			name := strings.TrimSpace(h)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			counts[key]++
			if _, ok := display[key]; !ok {
				display[key] = name
			}
		}
	}

	buckets := make([]HazardBucket, 0, len(counts))
	for key, count := range counts {
		color, ok := hazardColors[key]
		if !ok {
			color = hazardColorOther
		}
		buckets = append(buckets, HazardBucket{Name: display[key], Count: count, Color: color})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

// MostUsedChemicals groups log entries by referenced chemical, resolves
// display name and formula against the catalog (falling back to the entry's
// own recorded name when the chemical no longer exists), sums occurrence
// count and numeric quantities, and returns the top N by count.
func MostUsedChemicals(entries []models.LogEntry, chemicals []models.ChemicalRecord, topN int) []UsageSummary {
	if topN <= 0 {
		topN = 8
	}

	byIdentity := make(map[string]*models.ChemicalRecord, len(chemicals))
	for i := range chemicals {
		byIdentity[models.IdentityKey(chemicals[i].Identity)] = &chemicals[i]
	}

	grouped := make(map[string]*UsageSummary)
	var order []string
	for i := range entries {
		e := &entries[i]
		ref := e.ChemicalID
		if ref == "" {
			ref = e.ChemicalName
		}
		if ref == "" {
			continue
		}
		key := models.IdentityKey(ref)
		summary, ok := grouped[key]
		if !ok {
			summary = &UsageSummary{ID: ref, Name: e.ChemicalName}
			if rec, found := byIdentity[key]; found {
				summary.ID = rec.Identity
				summary.Name = rec.Name
				summary.Formula = rec.Formula
			}
			if summary.Name == "" {
				summary.Name = ref
			}
			grouped[key] = summary
			order = append(order, key)
		}
		summary.Count++
		if q, ok := numericField(e.Fields, "quantity"); ok {
			summary.TotalQuantity += q
		}
	}

	out := make([]UsageSummary, 0, len(order))
	for _, key := range order {
		out = append(out, *grouped[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// ActivityTimeline produces one bucket per calendar day for the trailing
// windowDays days ending today, inclusive. Every day is present with zero
// counts even without activity: charts need a dense series. Log entries bucket
// by their date (falling back to creation timestamp); recent views bucket by
// timestamp. Anything outside the window is ignored.
func ActivityTimeline(entries []models.LogEntry, views []models.RecentView, windowDays int) []TimelineBucket {
	return activityTimelineAt(entries, views, windowDays, time.Now())
}

func activityTimelineAt(entries []models.LogEntry, views []models.RecentView, windowDays int, now time.Time) []TimelineBucket {
	if windowDays <= 0 {
		windowDays = 30
	}

	buckets := make([]TimelineBucket, windowDays)
	index := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		date := now.AddDate(0, 0, -(windowDays - 1 - i)).Format("2006-01-02")
		buckets[i] = TimelineBucket{Date: date}
		index[date] = i
	}

	for i := range entries {
		day := entries[i].BucketDate().Format("2006-01-02")
		if j, ok := index[day]; ok {
			buckets[j].LogCount++
		}
	}
	for i := range views {
		day := views[i].Timestamp.Format("2006-01-02")
		if j, ok := index[day]; ok {
			buckets[j].ViewCount++
		}
	}
	for i := range buckets {
		buckets[i].Total = buckets[i].LogCount + buckets[i].ViewCount
	}
	return buckets
}

// DefaultLowStockThreshold applies when a record's inventory does not carry
// its own threshold.
const DefaultLowStockThreshold = 10

// LowStock returns records whose on-hand quantity is above zero and at or
// below the low-stock threshold. Zero quantity means out of stock, not low
// stock, and is excluded.
func LowStock(chemicals []models.ChemicalRecord, defaultThreshold float64) []models.ChemicalRecord {
	if defaultThreshold <= 0 {
		defaultThreshold = DefaultLowStockThreshold
	}

	out := make([]models.ChemicalRecord, 0)
	for i := range chemicals {
		inv := chemicals[i].Inventory
		if inv == nil || inv.Quantity <= 0 {
			continue
		}
		threshold := inv.LowStockThreshold
		if threshold <= 0 {
			threshold = defaultThreshold
		}
		if inv.Quantity <= threshold {
			out = append(out, chemicals[i])
		}
	}
	return out
}

// ExpiringSoon returns records whose expiration date falls within the next
// withinDays days, not yet expired. Records with no expiration date are
// excluded.
func ExpiringSoon(chemicals []models.ChemicalRecord, withinDays int) []models.ChemicalRecord {
	return expiringSoonAt(chemicals, withinDays, time.Now())
}

func expiringSoonAt(chemicals []models.ChemicalRecord, withinDays int, now time.Time) []models.ChemicalRecord {
	if withinDays <= 0 {
		withinDays = 30
	}
	cutoff := now.AddDate(0, 0, withinDays)

	out := make([]models.ChemicalRecord, 0)
	for i := range chemicals {
		inv := chemicals[i].Inventory
		if inv == nil || inv.ExpirationDate == nil {
			continue
		}
		exp := *inv.ExpirationDate
		if exp.After(now) && !exp.After(cutoff) {
			out = append(out, chemicals[i])
		}
	}
	return out
}

// Expired returns records whose expiration date has passed. Records with no
// expiration date are excluded.
func Expired(chemicals []models.ChemicalRecord) []models.ChemicalRecord {
	return expiredAt(chemicals, time.Now())
}

func expiredAt(chemicals []models.ChemicalRecord, now time.Time) []models.ChemicalRecord {
	out := make([]models.ChemicalRecord, 0)
	for i := range chemicals {
		inv := chemicals[i].Inventory
		if inv == nil || inv.ExpirationDate == nil {
			continue
		}
		if !inv.ExpirationDate.After(now) {
			out = append(out, chemicals[i])
		}
	}
	return out
}

// numericField reads a numeric type-specific field; non-numeric or missing
// quantities count as 0 at the call site.
func numericField(fields map[string]any, name string) (float64, bool) {
	if fields == nil {
		return 0, false
	}
	return jsonutil.FlexibleNumber(fields[name])
}

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

func chemicalFixture() []models.ChemicalRecord {
	return []models.ChemicalRecord{
		{
			Identity:    "7732-18-5",
			Name:        "Water",
			Formula:     "H2O",
			CASNumber:   "7732-18-5",
			Description: "Universal solvent",
			Tags:        []string{"Solvent"},
		},
		{
			Identity:  "64-17-5",
			Name:      "Ethanol",
			Formula:   "C2H6O",
			CASNumber: "64-17-5",
			Tags:      []string{"Solvent", "Flammable"},
			Hazards:   []string{"Flammable"},
		},
		{
			Identity: "sodium-chloride",
			Name:     "Sodium Chloride",
			Formula:  "NaCl",
			Tags:     []string{"Salt"},
		},
	}
}

func entryFixture() []models.LogEntry {
	return []models.LogEntry{
		{
			ID:           "entry-1",
			LogType:      models.LogTypeUsage,
			ChemicalName: "Ethanol",
			Date:         "2026-08-10",
			Fields:       map[string]any{"action": "Used", "notes": "Rinsed glassware"},
		},
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	ix := BuildIndex(chemicalFixture(), entryFixture())
	assert.Empty(t, ix.Search(""))
	assert.Empty(t, ix.Search("   "))
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix := BuildIndex(nil, nil)
	assert.NotPanics(t, func() {
		assert.Empty(t, ix.Search("water"))
	})
}

func TestSearch_ExactNameRanksFirst(t *testing.T) {
	ix := BuildIndex(chemicalFixture(), entryFixture())

	results := ix.Search("ethanol")

	require.NotEmpty(t, results)
	assert.Equal(t, "64-17-5", results[0].Item.ID)
	assert.Equal(t, DocChemical, results[0].Item.Type)
	// The log entry referencing Ethanol also matches, behind the chemical.
	var foundEntry bool
	for _, r := range results[1:] {
		if r.Item.Type == DocLogEntry {
			foundEntry = true
		}
	}
	assert.True(t, foundEntry)
}

func TestSearch_ToleratesMisspelling(t *testing.T) {
	ix := BuildIndex(chemicalFixture(), nil)

	results := ix.Search("ethanal")

	require.NotEmpty(t, results, "one-letter misspelling still matches")
	assert.Equal(t, "Ethanol", results[0].Item.Name)
}

func TestSearch_RejectsUnrelatedTerms(t *testing.T) {
	ix := BuildIndex(chemicalFixture(), nil)
	assert.Empty(t, ix.Search("zirconium"))
}

func TestSearch_FormulaAndCAS(t *testing.T) {
	ix := BuildIndex(chemicalFixture(), nil)

	byFormula := ix.Search("nacl")
	require.NotEmpty(t, byFormula)
	assert.Equal(t, "Sodium Chloride", byFormula[0].Item.Name)

	byCAS := ix.Search("7732-18-5")
	require.NotEmpty(t, byCAS)
	assert.Equal(t, "Water", byCAS[0].Item.Name)
}

func TestSearch_ScoresAscending(t *testing.T) {
	ix := BuildIndex(chemicalFixture(), entryFixture())

	results := ix.Search("solvent")

	require.True(t, len(results) >= 2)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearch_MultiWordName(t *testing.T) {
	ix := BuildIndex(chemicalFixture(), nil)

	results := ix.Search("chloride")

	require.NotEmpty(t, results)
	assert.Equal(t, "Sodium Chloride", results[0].Item.Name)
}

func TestRecordQuery(t *testing.T) {
	var history []string

	history = RecordQuery(history, "water")
	history = RecordQuery(history, "ethanol")
	require.Equal(t, []string{"ethanol", "water"}, history)

	// Re-searching moves a query to the front without duplicating it.
	history = RecordQuery(history, "Water")
	assert.Equal(t, []string{"Water", "ethanol"}, history)

	// Blank queries are not recorded.
	history = RecordQuery(history, "   ")
	assert.Len(t, history, 2)
}

func TestRecordQuery_Cap(t *testing.T) {
	var history []string
	queries := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, q := range queries {
		history = RecordQuery(history, q)
	}

	assert.Len(t, history, HistoryCap)
	assert.Equal(t, "l", history[0], "most recent first")
	assert.NotContains(t, history, "a", "oldest entries dropped")
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"ethanol", "ethanal", 1},
		{"water", "water", 0},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.s1, tt.s2); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}

// Package search builds an in-memory weighted fuzzy index over the canonical
// chemical list and the logbook, and answers ranked queries. The matcher is a
// normalized edit-distance scorer: loose enough to tolerate misspellings,
// strict enough to reject unrelated terms.
package search

import (
	"sort"
	"strings"

	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// Document types in the index.
const (
	DocChemical = "chemical"
	DocLogEntry = "logentry"
)

// Doc is one flattened, searchable document.
type Doc struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Formula     string `json:"formula,omitempty"`
	CASNumber   string `json:"casNumber,omitempty"`
	Description string `json:"description,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Hazards     string `json:"hazards,omitempty"`
	Action      string `json:"action,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Result pairs a matched document with its score. Lower is better; 0 is an
// exact match.
type Result struct {
	Item  Doc     `json:"item"`
	Score float64 `json:"score"`
}

// Threshold is the maximum normalized edit distance accepted as a match,
// expressed as a fraction of token length.
const Threshold = 0.4

// Per-field match weights. Name ranks highest, identifiers next, free text
// lowest.
var fieldWeights = []struct {
	field  func(*Doc) string
	weight float64
}{
	{func(d *Doc) string { return d.Name }, 0.9},
	{func(d *Doc) string { return d.Formula }, 0.7},
	{func(d *Doc) string { return d.CASNumber }, 0.7},
	{func(d *Doc) string { return d.Tags }, 0.4},
	{func(d *Doc) string { return d.Hazards }, 0.4},
	{func(d *Doc) string { return d.Action }, 0.4},
	{func(d *Doc) string { return d.Description }, 0.2},
	{func(d *Doc) string { return d.Notes }, 0.2},
}

// Index is a flat scan index. Queries are linear in index size, which is fine
// for catalogs up to the low thousands of entries.
type Index struct {
	docs []Doc
}

// BuildIndex flattens chemicals and log entries into searchable documents.
// Either input may be nil or empty.
func BuildIndex(chemicals []models.ChemicalRecord, entries []models.LogEntry) *Index {
	docs := make([]Doc, 0, len(chemicals)+len(entries))
	for i := range chemicals {
		c := &chemicals[i]
		docs = append(docs, Doc{
			Type:        DocChemical,
			ID:          c.Identity,
			Name:        c.Name,
			Formula:     c.Formula,
			CASNumber:   c.CASNumber,
			Description: c.Description,
			Tags:        strings.Join(c.Tags, " "),
			Hazards:     strings.Join(c.Hazards, " "),
		})
	}
	for i := range entries {
		e := &entries[i]
		docs = append(docs, Doc{
			Type:   DocLogEntry,
			ID:     e.ID,
			Name:   e.ChemicalName,
			Action: e.FieldString("action"),
			Notes:  e.FieldString("notes"),
			Date:   e.Date,
		})
	}
	return &Index{docs: docs}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.docs)
}

// Search returns matching documents ordered by ascending score. An empty
// query yields no results; an empty index yields no results.
func (ix *Index) Search(query string) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if ix == nil || query == "" {
		return []Result{}
	}

	results := make([]Result, 0, 16)
	for i := range ix.docs {
		doc := &ix.docs[i]
		best := -1.0
		for _, fw := range fieldWeights {
			value := fw.field(doc)
			if value == "" {
				continue
			}
			fieldScore, ok := matchField(query, strings.ToLower(value))
			if !ok {
				continue
			}
			// Higher-weight fields shrink the score so a name hit
			// outranks the same quality of hit in free text.
			weighted := fieldScore*(1.1-fw.weight) + 0.01*(1-fw.weight)
			if best < 0 || weighted < best {
				best = weighted
			}
		}
		if best >= 0 {
			results = append(results, Result{Item: *doc, Score: best})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	return results
}

// matchField scores a query against one field value. Whole-field and
// substring matches score 0; otherwise the best token-level normalized edit
// distance within Threshold is returned.
func matchField(query, value string) (float64, bool) {
	if value == query {
		return 0, true
	}
	if strings.Contains(value, query) {
		// Substring hit: near-exact, padded by how much of the field
		// the query leaves unmatched.
		extra := float64(len(value)-len(query)) / float64(len(value))
		return 0.05 * extra, true
	}

	best := -1.0
	for _, token := range strings.Fields(value) {
		n := max(len(query), len(token))
		if n == 0 {
			continue
		}
		ratio := float64(levenshtein(query, token)) / float64(n)
		if ratio <= Threshold && (best < 0 || ratio < best) {
			best = ratio
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// levenshtein computes the edit distance between two strings using a
// two-row DP table.
func levenshtein(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = minInt(
				curr[j-1]+1,    // insertion
				prev[j]+1,      // deletion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

// minInt returns the minimum of three integers.
func minInt(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}

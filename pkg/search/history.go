package search

import "strings"

// HistoryCap is the maximum number of retained past queries.
const HistoryCap = 10

// RecordQuery prepends a query to the history, deduplicating
// case-insensitively and capping the list at HistoryCap. Blank queries are
// not recorded.
func RecordQuery(history []string, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return history
	}

	updated := make([]string, 0, len(history)+1)
	updated = append(updated, query)
	for _, past := range history {
		if strings.EqualFold(past, query) {
			continue
		}
		updated = append(updated, past)
	}
	if len(updated) > HistoryCap {
		updated = updated[:HistoryCap]
	}
	return updated
}

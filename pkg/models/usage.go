package models

import "time"

// UsageAction enumerates the inventory-affecting actions recorded in the
// per-chemical usage log.
const (
	UsageActionUsed      = "Used"
	UsageActionRestocked = "Restocked"
	UsageActionDisposed  = "Disposed"
)

// KnownUsageAction reports whether a is a valid usage action.
func KnownUsageAction(a string) bool {
	return a == UsageActionUsed || a == UsageActionRestocked || a == UsageActionDisposed
}

// UsageLog is one row in the per-chemical usage log. Separate from LogEntry:
// these rows drive inventory quantity adjustments.
type UsageLog struct {
	ID         string  `json:"id"`
	ChemicalID string  `json:"chemicalId"`
	Date       string  `json:"date"`
	Action     string  `json:"action"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	User       string  `json:"user,omitempty"`
}

// RecentView records a recently opened chemical, capped at the five most
// recent.
type RecentView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Formula   string    `json:"formula,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CompareItem is one of up to three chemical summaries held for side-by-side
// comparison.
type CompareItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Formula string `json:"formula,omitempty"`
}

// UserProfile holds per-user personalization, namespaced by the opaque
// identity supplied by the authentication provider.
type UserProfile struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName,omitempty"`
	Email       string    `json:"email,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

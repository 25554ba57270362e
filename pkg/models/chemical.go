package models

import (
	"strings"
	"time"
)

// Inventory holds stock tracking data for a chemical.
type Inventory struct {
	Quantity          float64    `json:"quantity"`
	Unit              string     `json:"unit"`
	Location          string     `json:"location"`
	ExpirationDate    *time.Time `json:"expirationDate,omitempty"`
	LowStockThreshold float64    `json:"lowStockThreshold,omitempty"`
}

// ChemicalRecord is one entry in the canonical catalog. Identity is derived
// at normalization time with precedence: explicit id, CAS number, display
// name. Extra carries source fields the schema does not know about; they are
// preserved verbatim through reconciliation and re-serialization.
type ChemicalRecord struct {
	Identity    string         `json:"identity"`
	Name        string         `json:"name"`
	Formula     string         `json:"formula"`
	Appearance  string         `json:"appearance"`
	CASNumber   string         `json:"casNumber,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags"`
	Hazards     []string       `json:"hazards,omitempty"`
	Inventory   *Inventory     `json:"inventory,omitempty"`
	Extra       map[string]any `json:"-"`
}

// IdentityKey folds an identity for case-insensitive comparison. All merge
// and lookup paths go through this so "Water" and "water" collide.
func IdentityKey(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// IdentityKey returns the record's folded identity.
func (c ChemicalRecord) IdentityKey() string {
	return IdentityKey(c.Identity)
}

// SameIdentity reports whether two identities refer to the same record.
func SameIdentity(a, b string) bool {
	return IdentityKey(a) == IdentityKey(b)
}

// HasTag reports whether the record carries the given tag, matched
// case-insensitively. Display order of Tags is preserved from source.
func (c *ChemicalRecord) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

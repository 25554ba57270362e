package models

import (
	"time"

	"github.com/chemref-labs/chemref-engine/pkg/jsonutil"
)

// RawRecord is a semi-structured chemical record as it arrives from a dataset
// source or from a persisted user addition. Two field schemas coexist in the
// wild: a legacy capitalized one ("Chemical Name", "CAS", "Formula") and the
// normalized lower-camel one. NormalizeRecord accepts both.
type RawRecord map[string]any

// Key aliases, in lookup priority order. The first present key wins.
var (
	idKeys          = []string{"id", "identity", "ID", "Id"}
	nameKeys        = []string{"name", "chemicalName", "Chemical Name", "Name"}
	formulaKeys     = []string{"formula", "Formula", "Chemical Formula"}
	appearanceKeys  = []string{"appearance", "Appearance"}
	casKeys         = []string{"casNumber", "cas", "CAS", "CAS Number", "Cas Number"}
	descriptionKeys = []string{"description", "Description"}
	tagKeys         = []string{"tags", "Tags", "category", "Category", "categories"}
	hazardKeys      = []string{"hazards", "Hazards", "hazardClass", "Hazard Class"}
	inventoryKeys   = []string{"inventory", "Inventory"}
)

// NormalizeRecord maps a raw record of either schema into the canonical
// shape. Identity derivation precedence: explicit id, CAS number, display
// name. The returned record always has non-nil Tags; fields absent from the
// source default to empty. Keys not claimed by the schema are preserved in
// Extra.
func NormalizeRecord(raw RawRecord) ChemicalRecord {
	consumed := make(map[string]bool)
	pick := func(keys []string) any {
		for _, k := range keys {
			if v, ok := raw[k]; ok {
				consumed[k] = true
				return v
			}
		}
		return nil
	}

	rec := ChemicalRecord{
		Name:        jsonutil.FlexibleString(pick(nameKeys)),
		Formula:     jsonutil.FlexibleString(pick(formulaKeys)),
		Appearance:  jsonutil.FlexibleString(pick(appearanceKeys)),
		CASNumber:   jsonutil.FlexibleString(pick(casKeys)),
		Description: jsonutil.FlexibleString(pick(descriptionKeys)),
		Tags:        jsonutil.FlexibleStringSlice(pick(tagKeys)),
		Hazards:     jsonutil.FlexibleStringSlice(pick(hazardKeys)),
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}

	explicitID := jsonutil.FlexibleString(pick(idKeys))
	switch {
	case explicitID != "":
		rec.Identity = explicitID
	case rec.CASNumber != "":
		rec.Identity = rec.CASNumber
	default:
		rec.Identity = rec.Name
	}

	if inv := jsonutil.FlexibleMap(pick(inventoryKeys)); inv != nil {
		rec.Inventory = normalizeInventory(inv)
	}

	for k, v := range raw {
		if consumed[k] {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[k] = v
	}
	return rec
}

func normalizeInventory(m map[string]any) *Inventory {
	inv := &Inventory{
		Unit:     jsonutil.FlexibleString(m["unit"]),
		Location: jsonutil.FlexibleString(m["location"]),
	}
	if q, ok := jsonutil.FlexibleNumber(m["quantity"]); ok {
		inv.Quantity = q
	}
	if th, ok := jsonutil.FlexibleNumber(m["lowStockThreshold"]); ok {
		inv.LowStockThreshold = th
	}
	if exp := jsonutil.FlexibleString(m["expirationDate"]); exp != "" {
		if t, ok := ParseDate(exp); ok {
			inv.ExpirationDate = &t
		}
	}
	return inv
}

// Raw converts a canonical record back into the normalized raw-map shape.
// Extra fields are written first so schema fields always win on key clash.
func (c ChemicalRecord) Raw() RawRecord {
	raw := make(RawRecord, len(c.Extra)+8)
	for k, v := range c.Extra {
		raw[k] = v
	}
	raw["id"] = c.Identity
	raw["name"] = c.Name
	raw["formula"] = c.Formula
	raw["appearance"] = c.Appearance
	raw["tags"] = c.Tags
	if c.CASNumber != "" {
		raw["casNumber"] = c.CASNumber
	}
	if c.Description != "" {
		raw["description"] = c.Description
	}
	if len(c.Hazards) > 0 {
		raw["hazards"] = c.Hazards
	}
	if c.Inventory != nil {
		inv := map[string]any{
			"quantity": c.Inventory.Quantity,
			"unit":     c.Inventory.Unit,
			"location": c.Inventory.Location,
		}
		if c.Inventory.LowStockThreshold != 0 {
			inv["lowStockThreshold"] = c.Inventory.LowStockThreshold
		}
		if c.Inventory.ExpirationDate != nil {
			inv["expirationDate"] = c.Inventory.ExpirationDate.Format("2006-01-02")
		}
		raw["inventory"] = inv
	}
	return raw
}

// ParseDate parses an ISO calendar date or RFC3339 datetime string.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

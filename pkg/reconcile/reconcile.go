// Package reconcile merges the baseline chemical dataset with locally
// persisted user additions into one canonical, de-duplicated list.
package reconcile

import (
	"fmt"

	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// Reconcile builds the canonical list from a baseline snapshot and the user
// addition overlay. Baseline records are inserted first in source order; each
// addition then either shallow-merges onto the record sharing its identity
// (the addition's set fields win, unset fields fall back to baseline) or is
// appended as new. Identity comparison is case-insensitive. The output is
// deterministic and order-stable for unchanged inputs.
func Reconcile(baseline, additions []models.RawRecord) []models.ChemicalRecord {
	order := make([]string, 0, len(baseline)+len(additions))
	byKey := make(map[string]models.RawRecord, len(baseline)+len(additions))

	insert := func(raw models.RawRecord) {
		key := models.IdentityKey(models.NormalizeRecord(raw).Identity)
		if existing, ok := byKey[key]; ok {
			byKey[key] = shallowMerge(existing, raw)
			return
		}
		order = append(order, key)
		byKey[key] = raw
	}

	for _, raw := range baseline {
		insert(raw)
	}
	for _, raw := range additions {
		insert(raw)
	}

	out := make([]models.ChemicalRecord, 0, len(order))
	for _, key := range order {
		out = append(out, models.NormalizeRecord(byKey[key]))
	}
	return out
}

// shallowMerge overlays addition onto base one field at a time. This is a
// shallow merge: a nested value from the addition replaces the base value
// wholesale.
func shallowMerge(base, addition models.RawRecord) models.RawRecord {
	merged := make(models.RawRecord, len(base)+len(addition))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range addition {
		merged[k] = v
	}
	return merged
}

// AddRecord validates and appends a new record, returning the updated
// canonical list and overlay. A case-insensitive identity collision with any
// current record is rejected as a duplicate; edits go through UpdateRecord
// instead.
func AddRecord(current []models.ChemicalRecord, additions []models.RawRecord, raw models.RawRecord) ([]models.ChemicalRecord, []models.RawRecord, error) {
	rec := models.NormalizeRecord(raw)
	if err := Validate(rec); err != nil {
		return current, additions, err
	}
	for i := range current {
		if models.SameIdentity(current[i].Identity, rec.Identity) {
			return current, additions, fmt.Errorf("%w: %s", apperrors.ErrDuplicateIdentity, rec.Identity)
		}
	}
	updated := append(append([]models.ChemicalRecord{}, current...), rec)
	overlay := append(append([]models.RawRecord{}, additions...), raw)
	return updated, overlay, nil
}

// UpdateRecord replaces the record matching the edit's identity. The overlay
// is rewritten with the full edited record so that edits to baseline-only
// records become complete local overrides.
func UpdateRecord(current []models.ChemicalRecord, additions []models.RawRecord, raw models.RawRecord) ([]models.ChemicalRecord, []models.RawRecord, error) {
	rec := models.NormalizeRecord(raw)
	if err := Validate(rec); err != nil {
		return current, additions, err
	}

	found := false
	updated := make([]models.ChemicalRecord, len(current))
	for i := range current {
		if models.SameIdentity(current[i].Identity, rec.Identity) {
			updated[i] = rec
			found = true
			continue
		}
		updated[i] = current[i]
	}
	if !found {
		return current, additions, fmt.Errorf("%w: chemical %s", apperrors.ErrNotFound, rec.Identity)
	}

	overlay := removeFromOverlay(additions, rec.Identity)
	overlay = append(overlay, raw)
	return updated, overlay, nil
}

// RemoveRecord drops the record with the given identity from the canonical
// list and the overlay. Removal of a baseline-only record is not durable
// across reloads: no tombstone is recorded, so the record reappears on the
// next reconciliation of a baseline that still contains it.
func RemoveRecord(current []models.ChemicalRecord, additions []models.RawRecord, identity string) ([]models.ChemicalRecord, []models.RawRecord, error) {
	found := false
	updated := make([]models.ChemicalRecord, 0, len(current))
	for i := range current {
		if models.SameIdentity(current[i].Identity, identity) {
			found = true
			continue
		}
		updated = append(updated, current[i])
	}
	if !found {
		return current, additions, fmt.Errorf("%w: chemical %s", apperrors.ErrNotFound, identity)
	}
	return updated, removeFromOverlay(additions, identity), nil
}

func removeFromOverlay(additions []models.RawRecord, identity string) []models.RawRecord {
	overlay := make([]models.RawRecord, 0, len(additions))
	for _, raw := range additions {
		if models.SameIdentity(models.NormalizeRecord(raw).Identity, identity) {
			continue
		}
		overlay = append(overlay, raw)
	}
	return overlay
}

// ToggleFavorite flips membership of identity in the favorites set. The set
// is a parallel list of identities, independent of the records themselves.
func ToggleFavorite(favorites []string, identity string) []string {
	out := make([]string, 0, len(favorites)+1)
	removed := false
	for _, f := range favorites {
		if models.SameIdentity(f, identity) {
			removed = true
			continue
		}
		out = append(out, f)
	}
	if !removed {
		out = append(out, identity)
	}
	return out
}

// IsFavorite reports set membership, case-insensitively.
func IsFavorite(favorites []string, identity string) bool {
	for _, f := range favorites {
		if models.SameIdentity(f, identity) {
			return true
		}
	}
	return false
}

package reconcile

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/models"
)

// Validate checks a normalized record before it enters the overlay. A record
// needs a display name, and user-supplied free text is screened for injection
// payloads. Failures are reported as rejected operations, never panics.
func Validate(rec models.ChemicalRecord) error {
	if rec.Name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	freeText := map[string]string{
		"name":        rec.Name,
		"formula":     rec.Formula,
		"appearance":  rec.Appearance,
		"description": rec.Description,
	}
	if rec.Inventory != nil {
		freeText["location"] = rec.Inventory.Location
	}
	for field, value := range freeText {
		if value == "" {
			continue
		}
		if libinjection.IsXSS(value) {
			return fmt.Errorf("%w: field %s", apperrors.ErrUnsafeInput, field)
		}
	}
	return nil
}

// ScreenQuery rejects search queries carrying injection payloads. Queries are
// echoed back into persisted search history, so they get the same screening
// as record fields.
func ScreenQuery(query string) error {
	if query == "" {
		return nil
	}
	if isSQLi, _ := libinjection.IsSQLi(query); isSQLi {
		return fmt.Errorf("%w: query", apperrors.ErrUnsafeInput)
	}
	if libinjection.IsXSS(query) {
		return fmt.Errorf("%w: query", apperrors.ErrUnsafeInput)
	}
	return nil
}

package services

import (
	"time"

	"github.com/google/uuid"
)

// nowFunc is swapped in tests that pin the clock.
var nowFunc = time.Now

// newID returns a time-ordered identifier, falling back to a random one when
// the monotonic source is unavailable.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

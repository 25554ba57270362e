package models

import "time"

// LogType identifies the schema of a logbook entry's type-specific fields.
// The full field schema per type lives in the registry package.
const (
	LogTypeExperiment  = "experiment"
	LogTypeDisposal    = "disposal"
	LogTypeInventory   = "inventory"
	LogTypeUsage       = "usage"
	LogTypeMaintenance = "maintenance"
	LogTypeIncident    = "incident"
)

// LogTypes lists every known log type.
var LogTypes = []string{
	LogTypeExperiment,
	LogTypeDisposal,
	LogTypeInventory,
	LogTypeUsage,
	LogTypeMaintenance,
	LogTypeIncident,
}

// KnownLogType reports whether t is a member of the fixed log type set.
func KnownLogType(t string) bool {
	for _, lt := range LogTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// LogEntry is one structured event in the lab logbook. Entries are created
// once and never mutated; removal is an explicit delete. Date is the
// user-editable calendar date; Timestamp is the creation instant and is used
// for activity bucketing when Date is absent.
type LogEntry struct {
	ID           string         `json:"id"`
	LogType      string         `json:"logType"`
	ChemicalID   string         `json:"chemicalId,omitempty"`
	ChemicalName string         `json:"chemicalName,omitempty"`
	Date         string         `json:"date,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Fields       map[string]any `json:"fields,omitempty"`
}

// FieldString returns a type-specific field coerced to string, or "" when
// absent.
func (e *LogEntry) FieldString(name string) string {
	if e.Fields == nil {
		return ""
	}
	v, ok := e.Fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// BucketDate returns the calendar day this entry counts toward: its Date
// when set and parseable, otherwise the day of its creation Timestamp.
func (e *LogEntry) BucketDate() time.Time {
	if e.Date != "" {
		if t, ok := ParseDate(e.Date); ok {
			return t
		}
	}
	return e.Timestamp
}

// Package registry holds the fixed log-type schema configuration: per log
// type, its display metadata and the ordered form fields the logbook renders
// and validates before a LogEntry is constructed.
package registry

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chemref-labs/chemref-engine/pkg/apperrors"
	"github.com/chemref-labs/chemref-engine/pkg/jsonutil"
)

//go:embed logtypes.yaml
var logTypesYAML []byte

// Field form input types.
const (
	FieldText         = "text"
	FieldDate         = "date"
	FieldTextarea     = "textarea"
	FieldSelect       = "select"
	FieldAutocomplete = "autocomplete"
	FieldMultiselect  = "multiselect"
	FieldCheckbox     = "checkbox"
)

// Field describes one form field of a log type.
type Field struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`
	Label    string   `yaml:"label" json:"label"`
	Required bool     `yaml:"required" json:"required"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// LogType describes one entry type in the logbook.
type LogType struct {
	Name   string  `yaml:"name" json:"name"`
	Label  string  `yaml:"label" json:"label"`
	Icon   string  `yaml:"icon" json:"icon"`
	Color  string  `yaml:"color" json:"color"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Registry is the loaded log-type configuration.
type Registry struct {
	order []string
	types map[string]LogType
}

// Load parses the embedded log-type configuration.
func Load() (*Registry, error) {
	var doc struct {
		LogTypes []LogType `yaml:"logTypes"`
	}
	if err := yaml.Unmarshal(logTypesYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse log type registry: %w", err)
	}

	r := &Registry{types: make(map[string]LogType, len(doc.LogTypes))}
	for _, lt := range doc.LogTypes {
		if _, exists := r.types[lt.Name]; exists {
			return nil, fmt.Errorf("duplicate log type %q in registry", lt.Name)
		}
		r.types[lt.Name] = lt
		r.order = append(r.order, lt.Name)
	}
	return r, nil
}

// Get returns the schema for a log type.
func (r *Registry) Get(name string) (LogType, bool) {
	lt, ok := r.types[name]
	return lt, ok
}

// Types returns all log types in configuration order.
func (r *Registry) Types() []LogType {
	out := make([]LogType, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.types[name])
	}
	return out
}

// Validate checks submitted field values against a log type's schema: the
// type must exist and every required field must be present and non-empty.
// Select fields with a fixed option list must carry one of the options.
func (r *Registry) Validate(logType string, fields map[string]any) error {
	lt, ok := r.types[logType]
	if !ok {
		return fmt.Errorf("%w: unknown log type %q", apperrors.ErrValidation, logType)
	}

	for _, f := range lt.Fields {
		value, present := fields[f.Name]
		if f.Required && (!present || isBlank(f, value)) {
			return fmt.Errorf("%w: %s is required", apperrors.ErrValidation, f.Label)
		}
		if !present || value == nil {
			continue
		}
		if f.Type == FieldSelect && len(f.Options) > 0 {
			s := jsonutil.FlexibleString(value)
			if s != "" && !contains(f.Options, s) {
				return fmt.Errorf("%w: %s must be one of %v", apperrors.ErrValidation, f.Label, f.Options)
			}
		}
	}
	return nil
}

func isBlank(f Field, value any) bool {
	switch f.Type {
	case FieldCheckbox:
		// A required checkbox only needs to be present.
		return value == nil
	case FieldMultiselect:
		return len(jsonutil.FlexibleStringSlice(value)) == 0
	default:
		return jsonutil.FlexibleString(value) == ""
	}
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

package jsonutil

import (
	"testing"
)

func TestFlexibleString(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "string value",
			input: "hello",
			want:  "hello",
		},
		{
			name:  "integer value",
			input: float64(42),
			want:  "42",
		},
		{
			name:  "float value",
			input: 3.14,
			want:  "3.14",
		},
		{
			name:  "boolean true",
			input: true,
			want:  "true",
		},
		{
			name:  "boolean false",
			input: false,
			want:  "false",
		},
		{
			name:  "nil value",
			input: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleString(tt.input)
			if got != tt.want {
				t.Errorf("FlexibleString(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFlexibleNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{"float value", 12.5, 12.5, true},
		{"numeric string", "250", 250, true},
		{"string with unit suffix", "250 mL", 250, true},
		{"negative string", "-3.5", -3.5, true},
		{"empty string", "", 0, false},
		{"non-numeric string", "lots", 0, false},
		{"nil", nil, 0, false},
		{"bool true", true, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FlexibleNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FlexibleNumber(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("FlexibleNumber(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFlexibleStringSlice(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"any slice", []any{"a", "b"}, []string{"a", "b"}},
		{"comma separated", "Acid, Solvent", []string{"Acid", "Solvent"}},
		{"single string", "Acid", []string{"Acid"}},
		{"mixed scalars", []any{"a", float64(2)}, []string{"a", "2"}},
		{"nil", nil, nil},
		{"blank string", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FlexibleStringSlice(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("FlexibleStringSlice(%v) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FlexibleStringSlice(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseJWKSEndpoints(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "empty",
			input: "",
			want:  map[string]string{},
		},
		{
			name:  "single pair",
			input: "https://auth.example.com=https://auth.example.com/.well-known/jwks.json",
			want: map[string]string{
				"https://auth.example.com": "https://auth.example.com/.well-known/jwks.json",
			},
		},
		{
			name:  "multiple pairs with whitespace",
			input: "a=1, b=2",
			want:  map[string]string{"a": "1", "b": "2"},
		},
		{
			name:  "malformed pair skipped",
			input: "a=1,nonsense",
			want:  map[string]string{"a": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseJWKSEndpoints(tt.input))
		})
	}
}

func TestDatasetConfig_FetchTimeout(t *testing.T) {
	d := DatasetConfig{FetchTimeoutSeconds: 3}
	assert.Equal(t, 3*time.Second, d.FetchTimeout())

	d.FetchTimeoutSeconds = 0
	assert.Equal(t, 10*time.Second, d.FetchTimeout(), "non-positive timeout falls back to default")
}

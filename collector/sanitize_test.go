package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]any
	}{
		{
			name: "nil stays nil",
			in:   nil,
			want: nil,
		},
		{
			name: "clean payload untouched",
			in:   map[string]any{"agent_id": "researcher", "size": 1200},
			want: map[string]any{"agent_id": "researcher", "size": 1200},
		},
		{
			name: "sensitive keys redacted case insensitively",
			in: map[string]any{
				"password":     "hunter2",
				"API_TOKEN":    "tok",
				"clientSecret": "s3cret",
				"AuthHeader":   "Bearer x",
				"apiKey":       "k",
				"agent_id":     "hub",
			},
			want: map[string]any{
				"password":     RedactionMarker,
				"API_TOKEN":    RedactionMarker,
				"clientSecret": RedactionMarker,
				"AuthHeader":   RedactionMarker,
				"apiKey":       RedactionMarker,
				"agent_id":     "hub",
			},
		},
		{
			name: "nested maps walked recursively",
			in: map[string]any{
				"request": map[string]any{
					"token": "tok",
					"path":  "/v1/route",
				},
			},
			want: map[string]any{
				"request": map[string]any{
					"token": RedactionMarker,
					"path":  "/v1/route",
				},
			},
		},
		{
			name: "redaction replaces whole value even for maps",
			in: map[string]any{
				"auth": map[string]any{"user": "a", "pass": "b"},
			},
			want: map[string]any{
				"auth": RedactionMarker,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"token": "tok", "nested": map[string]any{"secret": "s"}}
	_ = Sanitize(in)
	assert.Equal(t, "tok", in["token"])
	assert.Equal(t, "s", in["nested"].(map[string]any)["secret"])
}

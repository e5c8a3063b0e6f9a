package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "well-formed passes through",
			input: `{"skills": ["go", "postgres"], "location": "pune"}`,
			want:  `{"skills": ["go", "postgres"], "location": "pune"}`,
		},
		{
			name:  "missing opening quote on first key",
			input: `{skills": ["go"]}`,
			want:  `{"skills": ["go"]}`,
		},
		{
			name:  "missing opening quote after separator",
			input: `{"skills": ["go"], location": "pune"}`,
			want:  `{"skills": ["go"], "location": "pune"}`,
		},
		{
			name:  "underscore key",
			input: `{experience_min": 5}`,
			want:  `{"experience_min": 5}`,
		},
		{
			name:  "bare values untouched",
			input: `{"deployment": free}`,
			want:  `{"deployment": free}`,
		},
		{
			name:  "empty object",
			input: `{}`,
			want:  `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.input))
		})
	}
}

func TestRepairJSONProducesParseable(t *testing.T) {
	repaired := repairJSON(`{skills": ["go", "kubernetes"], experience_min": 3, location": "bangalore"}`)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(repaired), &parsed))
	assert.Contains(t, parsed, "skills")
	assert.Contains(t, parsed, "experience_min")
	assert.Contains(t, parsed, "location")
}

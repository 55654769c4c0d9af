package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare object", `{"name":"Aria"}`, `{"name":"Aria"}`},
		{"fenced json", "Here you go:\n```json\n{\"name\": \"Aria\"}\n```\nEnjoy!", `{"name": "Aria"}`},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `Sure! {"name":"Kel","tags":["x"]} Let me know.`, `{"name":"Kel","tags":["x"]}`},
		{"trailing commas", "```json\n{\"a\": [1, 2,], \"b\": 3,}\n```", `{"a": [1, 2], "b": 3}`},
		{"invalid fence falls back to braces", "```json\nnot json\n```\n{\"ok\":true}", `{"ok":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.text)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject_Failures(t *testing.T) {
	for _, text := range []string{"", "I cannot help with that.", "{not: valid", `["a","b"]`} {
		_, err := ExtractJSONObject(text)
		assert.ErrorIs(t, err, ErrNoJSON, text)
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, err := ExtractJSONArray("Names:\n```json\n[\"Aria\", \"Bren\",]\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `["Aria","Bren"]`, got)

	_, err = ExtractJSONArray(`{"a":1}`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

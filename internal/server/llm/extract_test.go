package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remarkly/backend/internal/shared"
)

func TestExtractStrings_FencedArray(t *testing.T) {
	raw := "Here you go:\n```json\n[\"a\",\"b\"]\n```"

	got, err := extractStrings(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestExtractStrings_FenceWithoutLanguageTag(t *testing.T) {
	got, err := extractStrings("```\n[\"x\"]\n```")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)
}

func TestExtractStrings_NonStringElement(t *testing.T) {
	_, err := extractStrings(`["a", 2]`)
	assert.ErrorIs(t, err, shared.ErrorSchemaMismatch)
}

func TestExtractComments_NestedArray(t *testing.T) {
	raw := `{"data":{"result":[{"studentName":"A","intro":"i","body":[],"conclusion":"c"}]}}`

	got, err := extractComments(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].StudentName)
	assert.Equal(t, "i", got[0].Intro)
	assert.Empty(t, got[0].Body)
	assert.Equal(t, "c", got[0].Conclusion)
}

func TestExtractComments_SurroundingCommentary(t *testing.T) {
	raw := `Sure! Here is the JSON you asked for: [{"studentName":"A","intro":"i","body":[{"source":"s","text":"t"}],"conclusion":"c"}] Hope it helps.`

	got, err := extractComments(raw)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Body, 1)
	assert.Equal(t, "s", got[0].Body[0].Source)
	assert.Equal(t, "t", got[0].Body[0].Text)
}

func TestExtractComments_MissingKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing studentName", `[{"intro":"i","body":[],"conclusion":"c"}]`},
		{"missing intro", `[{"studentName":"A","body":[],"conclusion":"c"}]`},
		{"missing body", `[{"studentName":"A","intro":"i","conclusion":"c"}]`},
		{"missing conclusion", `[{"studentName":"A","intro":"i","body":[]}]`},
		{"segment missing text", `[{"studentName":"A","intro":"i","body":[{"source":"s"}],"conclusion":"c"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractComments(tt.raw)
			assert.ErrorIs(t, err, shared.ErrorSchemaMismatch)
		})
	}
}

func TestExtractComments_NoArrayAnywhere(t *testing.T) {
	_, err := extractComments(`{"message":"done"}`)
	assert.ErrorIs(t, err, shared.ErrorSchemaMismatch)
}

func TestExtractJSON_Unparsable(t *testing.T) {
	_, err := extractJSON("the model refused to answer")
	assert.ErrorIs(t, err, shared.ErrorMalformedResponse)

	_, err = extractJSON(`{"broken": `)
	assert.ErrorIs(t, err, shared.ErrorMalformedResponse)
}

func TestFirstJSONValue(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare array", `noise ["a"] trailing`, `["a"]`},
		{"bare object", `noise {"k":"v"} trailing`, `{"k":"v"}`},
		{"bracket inside string", `{"k":"has ] inside"} rest`, `{"k":"has ] inside"}`},
		{"escaped quote", `{"k":"quote \" here"}`, `{"k":"quote \" here"}`},
		{"nested", `[[1,2],[3]] tail`, `[[1,2],[3]]`},
		{"no value", `plain text`, ``},
		{"unbalanced", `[1, 2`, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstJSONValue(tt.text))
		})
	}
}

func TestFindArray_DeterministicOrder(t *testing.T) {
	// keys are visited in sorted order, so "a" wins over "b"
	parsed, err := extractJSON(`{"b":["second"],"a":["first"]}`)
	require.NoError(t, err)

	arr, ok := findArray(parsed)
	require.True(t, ok)
	assert.Equal(t, []any{"first"}, arr)
}

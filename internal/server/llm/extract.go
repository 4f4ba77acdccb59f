package llm

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/remarkly/backend/internal/shared"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON digs the first JSON value out of raw vendor text. Vendors are
// asked for bare JSON but routinely wrap it in commentary or code fences, so
// this is a best-effort heuristic, not a guarantee.
func extractJSON(raw string) (any, error) {

	candidate := raw
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	} else if s := firstJSONValue(raw); s != "" {
		candidate = s
	}

	var parsed any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, shared.ErrorMalformedResponse
	}

	return parsed, nil
}

// firstJSONValue locates the first top-level JSON array or object in text by
// bracket matching, skipping brackets inside string literals. Returns ""
// when no balanced value is found.
func firstJSONValue(text string) string {

	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return ""
	}

	open := text[start]
	var closing byte = ']'
	if open == '{' {
		closing = '}'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

// findArray returns the given value if it is an array, or the first array
// found by a depth-first search of object values. Object keys are visited
// in sorted order so the result is deterministic. The input comes freshly
// parsed from JSON, so there are no cycles to guard against.
func findArray(v any) ([]any, bool) {

	switch value := v.(type) {
	case []any:
		return value, true
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if arr, ok := findArray(value[k]); ok {
				return arr, true
			}
		}
	}

	return nil, false
}

// extractStrings parses raw vendor text into a flat list of phrasings.
func extractStrings(raw string) ([]string, error) {

	parsed, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	arr, ok := findArray(parsed)
	if !ok {
		return nil, shared.ErrorSchemaMismatch
	}

	result := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, shared.ErrorSchemaMismatch
		}
		result = append(result, s)
	}

	return result, nil
}

// extractComments parses raw vendor text into structured comments, enforcing
// the per-item shape: every entry carries studentName, intro, body and
// conclusion, and every body segment carries source and text.
func extractComments(raw string) ([]Comment, error) {

	parsed, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	arr, ok := findArray(parsed)
	if !ok {
		return nil, shared.ErrorSchemaMismatch
	}

	result := make([]Comment, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, shared.ErrorSchemaMismatch
		}

		comment := Comment{}
		if comment.StudentName, ok = obj["studentName"].(string); !ok {
			return nil, shared.ErrorSchemaMismatch
		}
		if comment.Intro, ok = obj["intro"].(string); !ok {
			return nil, shared.ErrorSchemaMismatch
		}
		if comment.Conclusion, ok = obj["conclusion"].(string); !ok {
			return nil, shared.ErrorSchemaMismatch
		}

		body, ok := obj["body"].([]any)
		if !ok {
			return nil, shared.ErrorSchemaMismatch
		}

		comment.Body = make([]Segment, 0, len(body))
		for _, rawSegment := range body {
			segObj, ok := rawSegment.(map[string]any)
			if !ok {
				return nil, shared.ErrorSchemaMismatch
			}

			segment := Segment{}
			if segment.Source, ok = segObj["source"].(string); !ok {
				return nil, shared.ErrorSchemaMismatch
			}
			if segment.Text, ok = segObj["text"].(string); !ok {
				return nil, shared.ErrorSchemaMismatch
			}
			comment.Body = append(comment.Body, segment)
		}

		result = append(result, comment)
	}

	return result, nil
}

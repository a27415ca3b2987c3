package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONFound is returned when no valid JSON object is found in the input
var ErrNoJSONFound = errors.New("no valid JSON object found in response")

var markdownBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// ExtractJSON extracts the first valid JSON object from LLM output that may
// contain prose, markdown fences or trailing garbage.
func ExtractJSON(response string) (string, error) {
	return ExtractJSONWithKey(response, "")
}

// ExtractJSONWithKey is ExtractJSON restricted to objects that carry key at
// the top level. An empty key accepts any object.
func ExtractJSONWithKey(response, key string) (string, error) {
	if strings.TrimSpace(response) == "" {
		return "", ErrNoJSONFound
	}

	cleaned := extractFromMarkdown(response)
	for _, candidate := range []string{cleaned, response} {
		if obj := scanObjects(candidate, key); obj != "" {
			return obj, nil
		}
	}

	if obj := aggressiveExtract(cleaned); obj != "" && hasTopLevelKey(obj, key) {
		return obj, nil
	}

	return "", fmt.Errorf("%w: response length=%d", ErrNoJSONFound, len(response))
}

// ExtractJSONTo extracts JSON from response and unmarshals it into the target
func ExtractJSONTo(response string, target interface{}) error {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(jsonStr), target)
}

// extractFromMarkdown removes markdown code block formatting
func extractFromMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if matches := markdownBlock.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return s
}

// scanObjects tries every '{' as a start position and returns the first
// balanced, valid object
func scanObjects(s, key string) string {
	for offset := 0; offset < len(s); {
		idx := strings.IndexByte(s[offset:], '{')
		if idx == -1 {
			return ""
		}
		start := offset + idx
		if obj := matchBraces(s, start); obj != "" && json.Valid([]byte(obj)) && hasTopLevelKey(obj, key) {
			return obj
		}
		offset = start + 1
	}
	return ""
}

// matchBraces uses string-aware bracket matching to find the object starting at start
func matchBraces(s string, start int) string {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// aggressiveExtract tries the span between the first { and the last }
func aggressiveExtract(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		candidate := s[first : last+1]
		if json.Valid([]byte(candidate)) {
			return candidate
		}
	}
	return ""
}

func hasTopLevelKey(obj, key string) bool {
	if key == "" {
		return true
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

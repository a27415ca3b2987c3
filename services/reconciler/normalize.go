package reconciler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sahilchouksey/video-agent-api/utils"
)

// ChoiceMarker is the key that identifies a structured-choice payload
const ChoiceMarker = "has_choices"

const maxUnwrapDepth = 4

var singleQuoteWrapper = regexp.MustCompile(`(?s)^\{'result':\s*'(.*)'\}\s*$`)

// ToolResult is a tool output with every known wrapper removed
type ToolResult struct {
	// Text is the display form: the compact JSON for object payloads, the raw string otherwise
	Text string
	// Payload is set when the result is a JSON object
	Payload map[string]any
	// HasChoices reports whether Payload is a structured-choice envelope
	HasChoices bool
}

// NormalizeToolResult accepts every shape the agent runtime produces:
// a plain string, {"result": "<json string>"}, the single-quoted
// {'result': '<escaped string>'} form, or a native map.
func NormalizeToolResult(v any) ToolResult {
	return normalize(v, 0)
}

func normalize(v any, depth int) ToolResult {
	if depth > maxUnwrapDepth {
		return ToolResult{Text: fmt.Sprint(v)}
	}

	switch x := v.(type) {
	case nil:
		return ToolResult{}
	case string:
		return normalizeString(x, depth)
	case []byte:
		return normalizeString(string(x), depth)
	case json.RawMessage:
		return normalizeString(string(x), depth)
	case map[string]any:
		if inner, ok := x["result"]; ok {
			if _, marked := x[ChoiceMarker]; !marked {
				return normalize(inner, depth+1)
			}
		}
		return fromMap(x, "")
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ToolResult{Text: fmt.Sprint(x)}
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return ToolResult{Text: string(data)}
		}
		return normalize(m, depth)
	}
}

func normalizeString(s string, depth int) ToolResult {
	trimmed := strings.TrimSpace(s)

	if strings.HasPrefix(trimmed, "{'result':") {
		if m := singleQuoteWrapper.FindStringSubmatch(trimmed); m != nil {
			return normalize(unescapeQuoted(m[1]), depth+1)
		}
		return ToolResult{Text: s}
	}

	if strings.HasPrefix(trimmed, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(trimmed), &m); err == nil {
			if inner, ok := m["result"]; ok {
				if _, marked := m[ChoiceMarker]; !marked {
					return normalize(inner, depth+1)
				}
			}
			return fromMap(m, trimmed)
		}
	}

	if strings.Contains(trimmed, ChoiceMarker) {
		if obj, err := utils.ExtractJSONWithKey(trimmed, ChoiceMarker); err == nil {
			var m map[string]any
			if err := json.Unmarshal([]byte(obj), &m); err == nil {
				return fromMap(m, obj)
			}
		}
	}

	return ToolResult{Text: s}
}

// unescapeQuoted undoes single-quoted string escaping: \' then \\
func unescapeQuoted(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

func fromMap(m map[string]any, raw string) ToolResult {
	_, marked := m[ChoiceMarker]
	return ToolResult{Text: compactJSON(m, raw), Payload: m, HasChoices: marked}
}

// compactJSON keeps the source key order when raw is available
func compactJSON(m map[string]any, raw string) string {
	if raw != "" {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(raw)); err == nil {
			return buf.String()
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return fmt.Sprint(m)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// isWrapperEcho reports a text chunk that is a serialized tool wrapper around choice data
func isWrapperEcho(trimmed string) bool {
	return (strings.HasPrefix(trimmed, "{'result':") || strings.HasPrefix(trimmed, `{"result":`)) &&
		strings.Contains(trimmed, ChoiceMarker)
}

// cleanChoicePayload returns the compact form of a bare structured-choice object
func cleanChoicePayload(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return "", false
	}
	if _, ok := m[ChoiceMarker]; !ok {
		return "", false
	}
	return compactJSON(m, trimmed), true
}

// looksLikeChoiceEcho matches JSON-ish chunks repeating choice data, parseable or not
func looksLikeChoiceEcho(trimmed string) bool {
	return strings.HasPrefix(trimmed, "{") &&
		(strings.Contains(trimmed, `"has_choices"`) || strings.Contains(trimmed, `"choices"`))
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// videoResult extracts a successful generation outcome
func videoResult(r ToolResult) (VideoResult, bool) {
	if r.Payload == nil || stringField(r.Payload, "status") != "success" {
		return VideoResult{}, false
	}
	url := stringField(r.Payload, "url")
	if url == "" {
		return VideoResult{}, false
	}
	return VideoResult{
		URL:       url,
		Filename:  stringField(r.Payload, "filename"),
		VideoPath: stringField(r.Payload, "video_path"),
		VideoType: stringField(r.Payload, "type"),
		Message:   stringField(r.Payload, "message"),
		Raw:       r.Payload,
	}, true
}

package restconf

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The controller wraps failures in an ietf-restconf:errors envelope:
//
//	{"ietf-restconf:errors": {"error": [
//	    {"error-type": "...", "error-tag": "...", "error-message": "..."}
//	]}}
//
// Some deployments emit the unprefixed "errors" key, deliver the envelope
// inside a 2xx body, or stringify it into the text of a transport error.
// The helpers below are the single classification policy for all of it.

// errorEntries extracts the list of error entries from a decoded body.
// Returns nil if body is not an error envelope.
func errorEntries(body any) []map[string]any {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	errs, ok := m["ietf-restconf:errors"]
	if !ok {
		errs = m["errors"]
	}
	var list []any
	switch v := errs.(type) {
	case map[string]any:
		list, _ = v["error"].([]any)
	case []any:
		list = v
	default:
		return nil
	}
	entries := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if entry, ok := item.(map[string]any); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// IsErrorResponse reports whether a decoded body is an error envelope,
// regardless of the HTTP status it arrived with.
func IsErrorResponse(body any) bool {
	m, ok := body.(map[string]any)
	if !ok {
		return false
	}
	_, a := m["ietf-restconf:errors"]
	_, b := m["errors"]
	return a || b
}

// IsNotFoundResponse reports whether a decoded body is an error envelope
// indicating the addressed resource does not exist. The controller signals
// absence inconsistently: a "not found" message substring, an
// "invalid-value" error tag, or a literal "404" in the message all mean
// the same thing.
func IsNotFoundResponse(body any) bool {
	for _, entry := range errorEntries(body) {
		msg := strings.ToLower(stringField(entry, "error-message"))
		tag := strings.ToLower(stringField(entry, "error-tag"))
		if strings.Contains(msg, "not found") || tag == "invalid-value" || strings.Contains(msg, "404") {
			return true
		}
	}
	return false
}

// ParseErrorMessage extracts the first human-readable error-message from an
// error envelope. The input may be a decoded body, raw JSON text, or a
// stringified byte literal (b'...') as produced by some transport stacks.
// Returns "" when nothing recognizable is found; never panics.
func ParseErrorMessage(body any) string {
	if s, ok := body.(string); ok {
		decoded := DecodeErrorBody(s)
		if decoded == nil {
			return strings.TrimSpace(s)
		}
		body = decoded
	}
	for _, entry := range errorEntries(body) {
		if msg := stringField(entry, "error-message"); msg != "" {
			return msg
		}
	}
	return ""
}

// DecodeErrorBody best-effort parses a structured error envelope out of
// raw text, unescaping a literal byte-string representation first.
// Returns nil if the text is not JSON.
func DecodeErrorBody(text string) any {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "b'") && strings.HasSuffix(s, "'") {
		inner := s[2 : len(s)-1]
		if unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(inner, `"`, `\"`) + `"`); err == nil {
			s = unquoted
		} else {
			s = inner
		}
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil
	}
	return decoded
}

func stringField(entry map[string]any, key string) string {
	s, _ := entry[key].(string)
	return s
}

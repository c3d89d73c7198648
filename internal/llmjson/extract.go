// Package llmjson recovers structured payloads from free-form model output.
// Models frequently wrap the requested JSON in prose or markdown fences, so a
// strict parse of the whole response is tried first and, failing that, the
// first balanced {...} span is located and parsed on its own.
package llmjson

import (
	"encoding/json"
	"errors"
)

// ErrNoObject reports that no parsable JSON object was found in the text.
var ErrNoObject = errors.New("no JSON object found in response")

// Unmarshal decodes the model response into v. It first attempts a strict
// parse of the full text, then retries on the first balanced object span.
func Unmarshal(text string, v any) error {
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	span, ok := firstObject(text)
	if !ok {
		return ErrNoObject
	}

	return json.Unmarshal([]byte(span), v)
}

// firstObject scans for the first balanced top-level {...} span, honoring JSON
// string literals and escapes so braces inside strings do not miscount.
func firstObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

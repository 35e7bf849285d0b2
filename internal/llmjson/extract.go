// Package llmjson pulls well-formed JSON objects out of free-form language
// model output. Models routinely wrap their JSON in prose or markdown
// fences, emit several candidate objects, or truncate mid-object; callers
// here never see an error, only a found/not-found result.
package llmjson

import (
	"encoding/json"
	"strings"
)

// Object scans text for balanced-brace JSON objects, in first-to-last
// order, and returns the raw bytes of the first one that both parses and
// contains the required top-level key. Brace matching is done with a
// character-level scanner that tracks string literals and escapes, so
// arbitrarily nested objects are handled; that depth behavior is part of
// the contract, not an accident of the scanner.
//
// If no embedded candidate qualifies, the trimmed whole text is attempted
// as a last resort. The second return value reports whether a qualifying
// object was found.
func Object(text, key string) ([]byte, bool) {
	for start := 0; start < len(text); {
		open := strings.IndexByte(text[start:], '{')
		if open < 0 {
			break
		}
		open += start

		end, balanced := matchBrace(text, open)
		if !balanced {
			// Truncated object; nothing after this opening brace can
			// close, but an inner object still might.
			start = open + 1
			continue
		}

		candidate := []byte(text[open : end+1])
		if hasKey(candidate, key) {
			return candidate, true
		}

		// Parse failure or missing key: resume just past the opening
		// brace so nested objects get their own chance.
		start = open + 1
	}

	trimmed := strings.TrimSpace(text)
	if hasKey([]byte(trimmed), key) {
		return []byte(trimmed), true
	}
	return nil, false
}

// Unmarshal decodes the first qualifying object in text into v. It returns
// false when no object with the required key exists or the object does not
// fit v's shape; v is left untouched in that case only if decoding never
// started.
func Unmarshal(text, key string, v any) bool {
	raw, ok := Object(text, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// matchBrace returns the index of the brace closing the one at open,
// honoring string literals and backslash escapes.
func matchBrace(text string, open int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}

// hasKey reports whether raw parses as a JSON object carrying key at the
// top level.
func hasKey(raw []byte, key string) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	_, ok := obj[key]
	return ok
}

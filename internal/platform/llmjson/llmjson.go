// Package llmjson recovers JSON objects from language-model replies that are
// almost, but not quite, valid JSON.
package llmjson

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoObject = errors.New("llmjson: no JSON object in text")

	fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)```")
)

// DecodeObject parses text into a JSON object. Strict parsing is tried first;
// on failure the text is cleaned (BOM, code fences, // comments, trailing commas)
// and the first balanced {...} span is parsed.
func DecodeObject(text string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err == nil && out != nil {
		return out, nil
	}
	candidate := Extract(text)
	if candidate == "" {
		return nil, ErrNoObject
	}
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNoObject
	}
	return out, nil
}

// Extract returns the cleaned first balanced object in text, or "".
func Extract(text string) string {
	s := strings.TrimPrefix(text, "\ufeff")
	if m := fencePattern.FindStringSubmatch(s); len(m) > 1 && strings.Contains(m[1], "{") {
		s = m[1]
	}
	raw := firstObject(s)
	if raw == "" {
		return ""
	}
	return clean(raw)
}

// firstObject scans for the first '{' and returns the span up to its matching
// '}', ignoring braces inside string literals.
func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
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

func clean(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return stripTrailingCommas(strings.Join(lines, "\n"))
}

// stripTrailingCommas drops commas that directly precede } or ] outside string literals.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == ',':
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

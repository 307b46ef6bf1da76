package steps

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/pathforge-backend/internal/platform/openai"
)

func stringFromAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// floatFromAny accepts JSON numbers and numeric strings.
func floatFromAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func stringSliceFromAny(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		if s := stringFromAny(x); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func optionalString(v any) *string {
	s := stringFromAny(v)
	if s == "" {
		return nil
	}
	return &s
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// AutoTitle derives a step title from a brief: first clause, first six words, each word capitalized.
func AutoTitle(brief string) string {
	first := brief
	if i := strings.IndexAny(brief, ".\n:;!?"); i >= 0 {
		first = brief[:i]
	}
	words := strings.Fields(first)
	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return "Introduction"
	}
	for i, w := range words {
		words[i] = capitalizeWords(w)
	}
	return strings.Join(words, " ")
}

// capitalizeWords upper-cases the first letter of every alphanumeric run, so "e-mail" becomes "E-Mail".
func capitalizeWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
		if isWord && !inWord {
			r = unicode.ToUpper(r)
		}
		inWord = isWord
		b.WriteRune(r)
	}
	return b.String()
}

func withTemperature(ai openai.Client, t float64) openai.Client {
	return openai.WithTemperature(ai, t)
}

func errMissingDeps(step string) error {
	return fmt.Errorf("%s: missing deps", step)
}

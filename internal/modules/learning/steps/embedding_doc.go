package steps

import (
	"fmt"
	"sort"
	"strings"

	types "github.com/yungbote/pathforge-backend/internal/domain"
)

// PreviewChars bounds course_embeddings.description_preview.
const PreviewChars = 300

// BuildEmbedText is the text embedded for a course: title, subtitle, description and
// "Lesson N: title" lines, one per line.
func BuildEmbedText(c *types.Course, lessons []*types.Lesson) string {
	parts := make([]string, 0, len(lessons)+3)
	if c != nil {
		parts = appendNonEmpty(parts, c.Title)
		if c.Subtitle != nil {
			parts = appendNonEmpty(parts, *c.Subtitle)
		}
		parts = appendNonEmpty(parts, c.Description)
	}
	for _, l := range sortedLessons(lessons) {
		parts = append(parts, fmt.Sprintf("Lesson %d: %s", l.Idx, l.Title))
	}
	return strings.Join(parts, "\n")
}

// BuildEmbedDoc is the retrieval document a preview is cut from.
func BuildEmbedDoc(c *types.Course, lessons []*types.Lesson) string {
	header := []string{}
	if c != nil {
		header = appendNonEmpty(header, c.Title)
		if c.Subtitle != nil {
			header = appendNonEmpty(header, *c.Subtitle)
		}
		header = appendNonEmpty(header, c.Description)
	}
	blocks := make([]string, 0, len(lessons))
	for _, l := range sortedLessons(lessons) {
		blocks = append(blocks, fmt.Sprintf("Lesson %d: %s\n%s", l.Idx, l.Title, l.Content))
	}
	return strings.TrimSpace(strings.Join(header, " — ") + "\n\n" + strings.Join(blocks, "\n\n"))
}

// Preview collapses whitespace and cuts text to n runes, appending an ellipsis when cut.
func Preview(text string, n int) string {
	t := strings.Join(strings.Fields(text), " ")
	r := []rune(t)
	if len(r) <= n {
		return t
	}
	return string(r[:n]) + "…"
}

func appendNonEmpty(dst []string, s string) []string {
	if strings.TrimSpace(s) == "" {
		return dst
	}
	return append(dst, s)
}

func sortedLessons(lessons []*types.Lesson) []*types.Lesson {
	out := make([]*types.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l != nil {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Idx < out[j].Idx })
	return out
}

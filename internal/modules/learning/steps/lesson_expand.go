package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/pathforge-backend/internal/learning/prompts"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/platform/ctxutil"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/openai"
)

const (
	ExpansionFirst       = "first"
	ExpansionRetry       = "retry"
	ExpansionPlaceholder = "placeholder"

	// minDraftChars is the shortest lesson body accepted from the model.
	minDraftChars = 800
)

type ExpandLessonDeps struct {
	Log *logger.Logger
	AI  openai.Client
}

type ExpandLessonInput struct {
	Title              string
	Brief              string
	MinWords           int
	PrimaryTemperature float64
	RetryTemperature   float64
	RetryBackoff       time.Duration
}

type ExpandLessonOutput struct {
	Title   string
	Content string
	// Path is first, retry or placeholder.
	Path string
}

// ExpandLesson writes full content for one lesson. It never fails: after two rejected
// drafts it returns a placeholder built from the title and brief.
func ExpandLesson(ctx context.Context, deps ExpandLessonDeps, in ExpandLessonInput) ExpandLessonOutput {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("step", "lesson_expand", "lesson_title", in.Title)

	ctx, span := observability.StartSpan(ctx, "lesson.expand", attribute.String("lesson.title", in.Title))
	out := expandLesson(ctx, log, deps.AI, in)
	span.SetAttributes(attribute.String("lesson.path", out.Path))
	observability.EndSpan(span, nil)
	observability.Current().IncLessonExpansion(out.Path)
	return out
}

func expandLesson(ctx context.Context, log *logger.Logger, ai openai.Client, in ExpandLessonInput) ExpandLessonOutput {
	if ai != nil {
		d, err := draftLesson(ctx, ai, in, in.PrimaryTemperature)
		if err == nil {
			return ExpandLessonOutput{Title: d.title, Content: d.content, Path: ExpansionFirst}
		}
		log.Warn("lesson draft rejected (attempt 1)", "error", err)

		if err := ctxutil.Sleep(ctx, in.RetryBackoff); err == nil {
			d, err = draftLesson(ctx, ai, in, in.RetryTemperature)
			if err == nil {
				return ExpandLessonOutput{Title: d.title, Content: d.content, Path: ExpansionRetry}
			}
			log.Warn("lesson draft rejected (attempt 2)", "error", err)
		}
	}
	log.Warn("lesson falling back to placeholder")
	return ExpandLessonOutput{
		Title:   in.Title,
		Content: PlaceholderLesson(in.Title, in.Brief),
		Path:    ExpansionPlaceholder,
	}
}

// placeholderNotice keeps a placeholder above the strict lesson length floor even when the brief is empty.
const placeholderNotice = "Full content for this lesson could not be generated. Use the course outline and the neighbouring lessons to cover this topic."

// PlaceholderLesson is the deterministic body used when both drafts fail.
func PlaceholderLesson(title, brief string) string {
	body := "## " + title + "\n\n*(Placeholder due to generation error.)*\n\n"
	if brief = strings.TrimSpace(brief); brief != "" {
		body += brief + "\n\n"
	}
	return body + placeholderNotice
}

type lessonDraft struct {
	title   string
	content string
}

func draftLesson(ctx context.Context, ai openai.Client, in ExpandLessonInput, temperature float64) (lessonDraft, error) {
	p, err := prompts.Build(prompts.PromptLessonExpand, prompts.Input{
		LessonTitle: in.Title,
		LessonBrief: in.Brief,
		MinWords:    in.MinWords,
	})
	if err != nil {
		return lessonDraft{}, err
	}
	obj, err := withTemperature(ai, temperature).GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		return lessonDraft{}, err
	}
	d := lessonDraft{
		title:   stringFromAny(obj["title"]),
		content: strings.TrimSpace(stringFromAny(obj["content"])),
	}
	if d.title == "" {
		return lessonDraft{}, fmt.Errorf("lesson draft missing title")
	}
	if n := runeLen(d.content); n < minDraftChars {
		return lessonDraft{}, fmt.Errorf("lesson draft too short: %d chars", n)
	}
	return d, nil
}

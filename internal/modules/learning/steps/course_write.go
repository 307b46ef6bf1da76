package steps

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/learning/prompts"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/openai"
)

const (
	minDescriptionChars   = 50
	minOutlineLessons     = 4
	minCourseLessons      = 3
	minLessonContentChars = 80
)

type CourseDraft struct {
	Title       string
	Subtitle    *string
	Description string
	Level       *string
	Tags        []string
}

type LessonOutline struct {
	Title string
	Brief string
}

type WrittenLesson struct {
	Title   string
	Content string
}

type WriteCourseDeps struct {
	Log *logger.Logger
	AI  openai.Client
}

type WriteCourseInput struct {
	NewTitle string
	Prompt   string
	Writer   WriterConfig
	Expander ExpanderConfig
}

type WriteCourseOutput struct {
	Course  CourseDraft
	Lessons []WrittenLesson
	// Expansions counts lessons by expansion path (first, retry, placeholder).
	Expansions map[string]int
}

// WriteCourse produces a validated course: an outline, then each lesson expanded in
// sequential batches of Writer.Parallel. Lesson order always follows the outline.
func WriteCourse(ctx context.Context, deps WriteCourseDeps, in WriteCourseInput) (WriteCourseOutput, error) {
	out := WriteCourseOutput{Expansions: map[string]int{}}
	if deps.Log == nil || deps.AI == nil {
		return out, errMissingDeps("course_write")
	}
	log := deps.Log.With("step", "course_write", "new_title", in.NewTitle)

	course, outline, err := outlineCourse(ctx, deps.AI, in)
	if err != nil {
		return out, err
	}
	log.Info("outline accepted", "lessons", len(outline))

	maxLessons := in.Writer.MaxLessons
	if maxLessons <= 0 {
		maxLessons = len(outline)
	}
	if len(outline) > maxLessons {
		outline = outline[:maxLessons]
	}
	parallel := in.Writer.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	expanded := make([]ExpandLessonOutput, len(outline))
	for start := 0; start < len(outline); start += parallel {
		end := start + parallel
		if end > len(outline) {
			end = len(outline)
		}
		var g errgroup.Group
		g.SetLimit(parallel)
		for i := start; i < end; i++ {
			g.Go(func() error {
				title := outline[i].Title
				if title == "" {
					title = fmt.Sprintf("Lesson %d", i+1)
				}
				expanded[i] = ExpandLesson(ctx, ExpandLessonDeps{Log: log, AI: deps.AI}, ExpandLessonInput{
					Title:              title,
					Brief:              outline[i].Brief,
					MinWords:           in.Writer.MinWords,
					PrimaryTemperature: in.Expander.PrimaryTemperature,
					RetryTemperature:   in.Expander.RetryTemperature,
					RetryBackoff:       in.Expander.RetryBackoff,
				})
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("course_write: %w", err)
		}
	}

	lessons := make([]WrittenLesson, len(expanded))
	for i, e := range expanded {
		out.Expansions[e.Path]++
		title := strings.TrimSpace(e.Title)
		if title == "" {
			title = outline[i].Title
		}
		if title == "" {
			title = fmt.Sprintf("Lesson %d", i+1)
		}
		lessons[i] = WrittenLesson{Title: title, Content: e.Content}
	}

	if err := validateCourse(course, lessons); err != nil {
		return out, err
	}
	out.Course = course
	out.Lessons = lessons
	return out, nil
}

func outlineCourse(ctx context.Context, ai openai.Client, in WriteCourseInput) (CourseDraft, []LessonOutline, error) {
	p, err := prompts.Build(prompts.PromptCourseOutline, prompts.Input{
		CourseTitle: in.NewTitle,
		CourseBrief: in.Prompt,
	})
	if err != nil {
		return CourseDraft{}, nil, apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	obj, err := withTemperature(ai, in.Writer.OutlineTemperature).GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		return CourseDraft{}, nil, fmt.Errorf("course outline: %w", err)
	}
	return DecodeOutline(obj)
}

// DecodeOutline reads and leniently validates an outline response: lesson bodies may be empty.
func DecodeOutline(obj map[string]any) (CourseDraft, []LessonOutline, error) {
	fail := func(format string, args ...any) (CourseDraft, []LessonOutline, error) {
		return CourseDraft{}, nil, apperr.Wrapf(apperr.ErrValidationFailed, "writer outline failed validation: "+format, args...)
	}
	cm, ok := obj["course"].(map[string]any)
	if !ok {
		return fail("missing course")
	}
	c := CourseDraft{
		Title:       stringFromAny(cm["title"]),
		Subtitle:    optionalString(cm["subtitle"]),
		Description: stringFromAny(cm["description"]),
		Level:       optionalString(cm["level"]),
		Tags:        stringSliceFromAny(cm["tags"]),
	}
	if c.Title == "" {
		return fail("missing course title")
	}
	if n := runeLen(c.Description); n < minDescriptionChars {
		return fail("description too short (%d chars)", n)
	}
	if c.Level != nil {
		lvl := strings.ToLower(*c.Level)
		if !types.ValidLevel(lvl) {
			return fail("invalid level %q", *c.Level)
		}
		c.Level = &lvl
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	arr, _ := obj["lessons"].([]any)
	lessons := make([]LessonOutline, 0, len(arr))
	for _, x := range arr {
		m, ok := x.(map[string]any)
		if !ok {
			return fail("lesson is not an object")
		}
		lessons = append(lessons, LessonOutline{
			Title: stringFromAny(m["title"]),
			Brief: stringFromAny(m["content"]),
		})
	}
	if len(lessons) < minOutlineLessons {
		return fail("expected at least %d lessons, got %d", minOutlineLessons, len(lessons))
	}
	return c, lessons, nil
}

func validateCourse(c CourseDraft, lessons []WrittenLesson) error {
	fail := func(format string, args ...any) error {
		return apperr.Wrapf(apperr.ErrValidationFailed, "final writer payload failed validation: "+format, args...)
	}
	if c.Title == "" {
		return fail("missing course title")
	}
	if n := runeLen(c.Description); n < minDescriptionChars {
		return fail("description too short (%d chars)", n)
	}
	if len(lessons) < minCourseLessons {
		return fail("expected at least %d lessons, got %d", minCourseLessons, len(lessons))
	}
	for i, l := range lessons {
		if l.Title == "" {
			return fail("lesson %d missing title", i+1)
		}
		if n := runeLen(l.Content); n < minLessonContentChars {
			return fail("lesson %d content too short (%d chars)", i+1, n)
		}
	}
	return nil
}

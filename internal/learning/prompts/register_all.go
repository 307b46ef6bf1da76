package prompts

// RegisterAll registers every prompt. Build calls it once on first use.
func RegisterAll() {
	RegisterSpec(Spec{
		Name:       PromptPathPlan,
		Version:    1,
		SchemaName: "path_plan",
		Schema:     PathPlanSchema,
		System: `
You are a course planner. Reply with ONLY valid JSON and nothing else.
Return exactly this shape:
{"items":[{"idx":number>=1,"type":"reuse"|"new","course_id":string|null,"new_title":string|null,"brief":string}]}
Rules:
- Prefer reusing high-score similar courses when relevant (use their IDs exactly as provided).
- If type="reuse": set "course_id" to a provided course id and "new_title" to null.
- If type="new": set "course_id" to null and ALWAYS provide a concise "new_title" (3-6 words).
- Produce 6-8 items in a coherent order using 1-based idx.
- Reuse at most ONCE per course_id. Never include the same course_id twice.`,
		User: `
Similar courses (id | title | subtitle | description | score):
{{.CandidatesText}}

User prompt: {{.UserPrompt}}
Plan the path now.`,
		Validators: []Validator{
			RequireNonEmpty("UserPrompt", func(in Input) string { return in.UserPrompt }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptCourseOutline,
		Version:    1,
		SchemaName: "course_outline",
		Schema:     CourseOutlineSchema,
		System: `
You are an expert course writer. Output ONLY JSON:
{
  "course": {
    "title": string, "subtitle": string|null, "description": string,
    "level": "beginner"|"intermediate"|"advanced"|null, "tags": string[]
  },
  "lessons": [{ "title": string, "content": string }]
}
Rules:
- Lessons are TEXT ONLY (no images).
- In this outline pass, "lessons[*].content" may be very short (or empty).
- Provide 4-10 lessons, coherent progression.
- Course description should be ~120-200 words.`,
		User: `
Create a course titled "{{.CourseTitle}}".
Context/brief:
{{.CourseBrief}}
Return JSON only.`,
		Validators: []Validator{
			RequireNonEmpty("CourseTitle", func(in Input) string { return in.CourseTitle }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptLessonExpand,
		Version:    1,
		SchemaName: "lesson_draft",
		Schema:     LessonDraftSchema,
		System: `
You are a careful instructional writer.
Write a complete, self-contained lesson for the topic "{{.LessonTitle}}".
Return ONLY JSON matching exactly: {"title": string, "content": string}
Your entire response MUST be a single minified JSON object, with NO code fences, NO extra keys, NO trailing commas, and NO text before/after the JSON.

Requirements:
- Minimum ~{{.MinWords}} words of clear, accurate text.
- Use Markdown with structured sections and subheadings (##, ###).
- Start with a short overview, then sections for key concepts, examples, and a short practice/exercise.
- If code is relevant, include fenced code blocks.
- Self-contained (no "as covered earlier").
- No images. No links.`,
		User: `
Lesson title: "{{.LessonTitle}}"
Short brief/context: {{if .LessonBrief}}{{.LessonBrief}}{{else}}N/A{{end}}
Write the full lesson now and return JSON only.`,
		Validators: []Validator{
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle }),
			RequirePositive("MinWords", func(in Input) int { return in.MinWords }),
		},
	})
}

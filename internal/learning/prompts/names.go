package prompts

type PromptName string

const (
	PromptPathPlan      PromptName = "path_plan"
	PromptCourseOutline PromptName = "course_outline"
	PromptLessonExpand  PromptName = "lesson_expand"
)

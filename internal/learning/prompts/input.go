package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	// Planning
	UserPrompt     string
	CandidatesText string // "- id | title | subtitle | description | score" lines

	// Course outline
	CourseTitle string
	CourseBrief string

	// Lesson expansion
	LessonTitle string
	LessonBrief string
	MinWords    int
}

package services

import types "github.com/yungbote/pathforge-backend/internal/domain"

type seedLesson struct {
	Title   string
	Content string
}

type seedCourse struct {
	Title       string
	Subtitle    string
	Description string
	Level       string
	Tags        []string
	Lessons     []seedLesson
}

func librarySeeds() []seedCourse {
	return []seedCourse{
		{
			Title:       "Intro to Python for Data Analysis",
			Subtitle:    "From basics to pandas",
			Description: "Learn Python syntax, data structures, and get hands-on with data analysis using pandas and simple plots.",
			Level:       types.LevelBeginner,
			Tags:        []string{"python", "data", "pandas"},
			Lessons: []seedLesson{
				{Title: "Python Basics", Content: "Variables, types, control flow, functions."},
				{Title: "Data Structures", Content: "Lists, dicts, sets, tuples; iteration patterns."},
				{Title: "Pandas Intro", Content: "Series, DataFrame, reading CSV, basic transforms, describe()."},
				{Title: "Exploratory Analysis", Content: "Filtering, groupby, simple charts, insights."},
			},
		},
		{
			Title:       "Relational Databases with SQL",
			Subtitle:    "Queries, joins, and modeling",
			Description: "A practical introduction to SQL, normalization, joins, aggregation, and indexing for performance.",
			Level:       types.LevelBeginner,
			Tags:        []string{"sql", "database", "postgres"},
			Lessons: []seedLesson{
				{Title: "SELECT Basics", Content: "SELECT, WHERE, ORDER BY, LIMIT."},
				{Title: "JOINs", Content: "INNER, LEFT, RIGHT, FULL; joining tables effectively."},
				{Title: "Aggregation", Content: "GROUP BY, HAVING, window functions basics."},
				{Title: "Modeling & Indexes", Content: "Normalization, keys, indexes, query plans."},
			},
		},
		{
			Title:       "JavaScript Foundations",
			Subtitle:    "ES fundamentals for the web",
			Description: "Master core JavaScript: values, functions, async, and the DOM. Build confidence to move into frameworks.",
			Level:       types.LevelBeginner,
			Tags:        []string{"javascript", "web", "frontend"},
			Lessons: []seedLesson{
				{Title: "JS Basics", Content: "Primitives, objects, arrays, let/const, scope."},
				{Title: "Functions & Modules", Content: "Declaration, arrow functions, exports/imports."},
				{Title: "Async Patterns", Content: "Callbacks, promises, async/await, fetch API."},
				{Title: "DOM & Events", Content: "Selecting nodes, event listeners, manipulating the DOM."},
			},
		},
	}
}

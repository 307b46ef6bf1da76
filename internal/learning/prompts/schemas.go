package prompts

import "sort"

// OpenAI strict JSON schema requires additionalProperties=false and every property listed in
// required, so optional fields are nullable instead of omitted.

func StringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func StringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func StringOrNullSchema() map[string]any {
	return map[string]any{
		"type": []any{"string", "null"},
	}
}

func IntSchema() map[string]any {
	return map[string]any{"type": "integer"}
}

func EnumSchema(values ...string) map[string]any {
	arr := make([]any, 0, len(values))
	for _, v := range values {
		arr = append(arr, v)
	}
	return map[string]any{"type": "string", "enum": arr}
}

func NullableEnumSchema(values ...string) map[string]any {
	arr := make([]any, 0, len(values)+1)
	for _, v := range values {
		arr = append(arr, v)
	}
	arr = append(arr, nil)
	return map[string]any{"type": []any{"string", "null"}, "enum": arr}
}

func objectSchema(properties map[string]any) map[string]any {
	req := make([]string, 0, len(properties))
	for k := range properties {
		req = append(req, k)
	}
	sort.Strings(req)
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             req,
		"additionalProperties": false,
	}
}

func PathPlanSchema() map[string]any {
	item := objectSchema(map[string]any{
		"idx":       IntSchema(),
		"type":      EnumSchema("reuse", "new"),
		"course_id": StringOrNullSchema(),
		"new_title": StringOrNullSchema(),
		"brief":     StringSchema(),
	})
	return objectSchema(map[string]any{
		"items": map[string]any{"type": "array", "items": item},
	})
}

func CourseOutlineSchema() map[string]any {
	course := objectSchema(map[string]any{
		"title":       StringSchema(),
		"subtitle":    StringOrNullSchema(),
		"description": StringSchema(),
		"level":       NullableEnumSchema("beginner", "intermediate", "advanced"),
		"tags":        StringArraySchema(),
	})
	lesson := objectSchema(map[string]any{
		"title":   StringSchema(),
		"content": StringSchema(),
	})
	return objectSchema(map[string]any{
		"course":  course,
		"lessons": map[string]any{"type": "array", "items": lesson},
	})
}

func LessonDraftSchema() map[string]any {
	return objectSchema(map[string]any{
		"title":   StringSchema(),
		"content": StringSchema(),
	})
}

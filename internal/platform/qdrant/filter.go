package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

// Query filters are flat payload equality maps, e.g. {"is_public": true}.
type translatedFilter struct {
	Must []any
}

func (f translatedFilter) asMap() map[string]any {
	if len(f.Must) == 0 {
		return map[string]any{}
	}
	return map[string]any{"must": f.Must}
}

func translateFilterMap(filter map[string]any) (translatedFilter, error) {
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := translatedFilter{}
	for _, key := range keys {
		field := strings.TrimSpace(key)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "$") {
			return translatedFilter{}, opErr("filter_translate", OperationErrorUnsupportedFilter,
				fmt.Sprintf("unsupported filter operator %q", field), nil)
		}
		value, ok := toScalarValue(filter[key])
		if !ok {
			return translatedFilter{}, opErr("filter_translate", OperationErrorValidation,
				fmt.Sprintf("field %q expects a scalar value, got %T", field, filter[key]), nil)
		}
		out.Must = append(out.Must, matchCondition(field, value))
	}
	return out, nil
}

func matchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func toScalarValue(value any) (any, bool) {
	switch typed := value.(type) {
	case string, bool, int, int64, float64:
		return typed, true
	case int32:
		return int(typed), true
	case float32:
		return float64(typed), true
	default:
		return nil, false
	}
}

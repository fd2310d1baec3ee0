package ai

import (
	"fmt"
	"strconv"
)

type pathPart struct {
	field string
	index int
	isIdx bool
}

// parseJSONPath splits "choices[0].message.content" into field and index steps.
func parseJSONPath(path string) ([]pathPart, error) {
	var parts []pathPart
	field := ""
	flush := func() {
		if field != "" {
			parts = append(parts, pathPart{field: field})
			field = ""
		}
	}

	for i := 0; i < len(path); i++ {
		switch ch := path[i]; ch {
		case '.':
			flush()
		case '[':
			flush()
			end := i + 1
			for end < len(path) && path[end] != ']' {
				end++
			}
			if end == len(path) {
				return nil, fmt.Errorf("unterminated index in %q", path)
			}
			idx, err := strconv.Atoi(path[i+1 : end])
			if err != nil {
				return nil, fmt.Errorf("bad index in %q: %w", path, err)
			}
			parts = append(parts, pathPart{index: idx, isIdx: true})
			i = end
		default:
			field += string(ch)
		}
	}
	flush()
	return parts, nil
}

// extractJSONPath walks a decoded JSON document and returns the string at path.
func extractJSONPath(doc interface{}, path string) (string, error) {
	parts, err := parseJSONPath(path)
	if err != nil {
		return "", err
	}

	current := doc
	for _, part := range parts {
		if part.isIdx {
			arr, ok := current.([]interface{})
			if !ok {
				return "", fmt.Errorf("expected array at [%d]", part.index)
			}
			if part.index < 0 || part.index >= len(arr) {
				return "", fmt.Errorf("index %d out of bounds (len=%d)", part.index, len(arr))
			}
			current = arr[part.index]
			continue
		}
		obj, ok := current.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("expected object at %q", part.field)
		}
		if current, ok = obj[part.field]; !ok {
			return "", fmt.Errorf("field %q not found", part.field)
		}
	}

	if str, ok := current.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("value at %q is %T, not a string", path, current)
}

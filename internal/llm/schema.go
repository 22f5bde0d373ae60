package llm

import "sort"

// LockdownSchema makes a JSON Schema safe for strict-mode structured output:
// uniqueItems and format are removed everywhere, every object node gets
// additionalProperties: false, and required is recomputed from the declared
// properties. The input is not mutated.
func LockdownSchema(schema map[string]any) map[string]any {
	locked := lockdownValue(schema)
	if m, ok := locked.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func lockdownValue(value any) any {
	switch node := value.(type) {
	case map[string]any:
		return lockdownObject(node)
	case []any:
		out := make([]any, len(node))
		for i, entry := range node {
			out[i] = lockdownValue(entry)
		}
		return out
	default:
		return value
	}
}

func lockdownObject(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for key, value := range node {
		if key == "uniqueItems" || key == "format" {
			continue
		}
		switch key {
		case "properties", "$defs", "definitions":
			if bucket, ok := value.(map[string]any); ok {
				cleaned := make(map[string]any, len(bucket))
				for name, sub := range bucket {
					cleaned[name] = lockdownValue(sub)
				}
				out[key] = cleaned
				continue
			}
			out[key] = lockdownValue(value)
		case "items", "anyOf", "oneOf", "allOf":
			out[key] = lockdownValue(value)
		default:
			out[key] = lockdownValue(value)
		}
	}

	if isObjectNode(out) {
		out["additionalProperties"] = false
		out["required"] = propertyNames(out)
	}

	return out
}

func isObjectNode(node map[string]any) bool {
	if t, ok := node["type"].(string); ok && t == "object" {
		return true
	}
	_, hasProperties := node["properties"]
	return hasProperties
}

func propertyNames(node map[string]any) []any {
	properties, _ := node["properties"].(map[string]any)
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	required := make([]any, len(names))
	for i, name := range names {
		required[i] = name
	}
	return required
}

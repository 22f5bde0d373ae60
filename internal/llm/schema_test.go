package llm

import (
	"reflect"
	"testing"
)

func TestLockdownSchemaStripsKeywordsRecursively(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{
				"type":        "array",
				"uniqueItems": true,
				"items": map[string]any{
					"type":   "string",
					"format": "uri",
				},
			},
			"title": map[string]any{"type": "string"},
		},
		"required": []any{"title"},
	}

	out := LockdownSchema(input)

	if out["additionalProperties"] != false {
		t.Fatal("root object missing additionalProperties: false")
	}
	if !reflect.DeepEqual(out["required"], []any{"tags", "title"}) {
		t.Fatalf("required not recomputed from properties: %v", out["required"])
	}

	tags := out["properties"].(map[string]any)["tags"].(map[string]any)
	if _, exists := tags["uniqueItems"]; exists {
		t.Fatal("uniqueItems not removed")
	}
	items := tags["items"].(map[string]any)
	if _, exists := items["format"]; exists {
		t.Fatal("nested format not removed")
	}

	// Input must stay untouched.
	originalTags := input["properties"].(map[string]any)["tags"].(map[string]any)
	if _, exists := originalTags["uniqueItems"]; !exists {
		t.Fatal("input schema was mutated")
	}
}

func TestLockdownSchemaHandlesCombinatorsAndDefs(t *testing.T) {
	t.Parallel()

	input := map[string]any{
		"anyOf": []any{
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string", "format": "uri"},
				},
			},
		},
		"$defs": map[string]any{
			"Link": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"href": map[string]any{"type": "string", "format": "uri"},
				},
			},
		},
	}

	out := LockdownSchema(input)

	variant := out["anyOf"].([]any)[0].(map[string]any)
	if variant["additionalProperties"] != false {
		t.Fatal("anyOf variant not locked down")
	}
	if _, exists := variant["properties"].(map[string]any)["url"].(map[string]any)["format"]; exists {
		t.Fatal("format inside anyOf not removed")
	}

	def := out["$defs"].(map[string]any)["Link"].(map[string]any)
	if variant["additionalProperties"] != false {
		t.Fatal("definition not locked down")
	}
	if !reflect.DeepEqual(def["required"], []any{"href"}) {
		t.Fatalf("definition required not recomputed: %v", def["required"])
	}
}

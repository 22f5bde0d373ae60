package pipeline

import "github.com/moodworks/autopub/internal/llm"

// The stage schemas below are submitted with every structured call. The llm
// client applies the strict-mode lockdown before sending, so they can keep
// readable keywords like format here.

func plannerSchema() llm.Schema {
	return llm.Schema{
		Name: "PlannerOutput",
		Definition: map[string]any{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"title":   "PlannerOutput",
			"type":    "object",
			"required": []any{
				"topic", "why_now", "intent", "audience", "outline",
				"internal_links", "update_target_url", "tags", "image_subject", "entity_type",
			},
			"properties": map[string]any{
				"topic":    map[string]any{"type": "string", "minLength": 8, "maxLength": 140},
				"why_now":  map[string]any{"type": "string", "minLength": 20, "maxLength": 400},
				"intent":   map[string]any{"type": "string", "enum": []any{"informational", "howto", "listicle", "analysis", "news"}},
				"audience": map[string]any{"type": "string", "minLength": 5, "maxLength": 140},
				"outline": map[string]any{
					"type":     "array",
					"minItems": 3,
					"items": map[string]any{
						"type":     "object",
						"required": []any{"h2", "bullets"},
						"properties": map[string]any{
							"h2": map[string]any{"type": "string", "minLength": 3, "maxLength": 90},
							"bullets": map[string]any{
								"type":     "array",
								"minItems": 2,
								"maxItems": 6,
								"items":    map[string]any{"type": "string", "minLength": 3, "maxLength": 120},
							},
						},
					},
				},
				"internal_links": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"type": "string"},
				},
				"update_target_url": map[string]any{"type": "string", "format": "uri"},
				"tags": map[string]any{
					"type":     "array",
					"minItems": 3,
					"maxItems": 8,
					"items":    map[string]any{"type": "string", "minLength": 2, "maxLength": 30},
				},
				"image_subject": map[string]any{"type": "string", "minLength": 3, "maxLength": 120},
				"entity_type":   map[string]any{"type": "string", "enum": []any{"person", "brand", "event", "object", "place"}},
			},
		},
	}
}

func writerSchema() llm.Schema {
	return llm.Schema{
		Name: "WriterOutput",
		Definition: map[string]any{
			"$schema": "https://json-schema.org/draft/2020-12/schema",
			"title":   "WriterOutput",
			"type":    "object",
			"required": []any{
				"title_variants", "body_html", "excerpt", "tags", "internal_links", "image_caption",
			},
			"properties": map[string]any{
				"title_variants": map[string]any{
					"type":     "array",
					"minItems": 5,
					"maxItems": 7,
					"items":    map[string]any{"type": "string", "minLength": 8, "maxLength": 70},
				},
				"seo_title":       map[string]any{"type": "string", "minLength": 10, "maxLength": 60},
				"seo_description": map[string]any{"type": "string", "minLength": 50, "maxLength": 160},
				"body_html": map[string]any{
					"type":        "string",
					"minLength":   1200,
					"description": "Only allow <p>, <h3>, <strong>, <em>, <blockquote>, <br>.",
				},
				"excerpt": map[string]any{"type": "string", "minLength": 80, "maxLength": 160},
				"tags": map[string]any{
					"type":     "array",
					"minItems": 3,
					"maxItems": 8,
					"items":    map[string]any{"type": "string", "minLength": 2, "maxLength": 30},
				},
				"internal_links": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"url", "anchor"},
						"properties": map[string]any{
							"url":    map[string]any{"type": "string", "format": "uri"},
							"anchor": map[string]any{"type": "string", "minLength": 2, "maxLength": 80},
						},
					},
				},
				"citations": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string", "format": "uri"},
				},
				"image_caption": map[string]any{"type": "string", "minLength": 10, "maxLength": 140},
			},
		},
	}
}

func editorSchema() llm.Schema {
	return llm.Schema{
		Name: "EditorGate",
		Definition: map[string]any{
			"$schema":  "https://json-schema.org/draft/2020-12/schema",
			"title":    "EditorGate",
			"type":     "object",
			"required": []any{"approval", "reasons", "quality_scores"},
			"properties": map[string]any{
				"approval": map[string]any{"type": "boolean"},
				"reasons": map[string]any{
					"type":     "array",
					"minItems": 0,
					"items":    map[string]any{"type": "string", "minLength": 3},
				},
				"quality_scores": map[string]any{
					"type":     "object",
					"required": []any{"helpful", "originality", "clarity"},
					"properties": map[string]any{
						"helpful":     map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						"originality": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
						"clarity":     map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
				},
				"fixes_suggested": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"headline_to_use":    map[string]any{"type": "string"},
						"sections_to_expand": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"add_faq":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
			},
		},
	}
}

func translationSchema() llm.Schema {
	return llm.Schema{
		Name: "Translation",
		Definition: map[string]any{
			"$schema":  "https://json-schema.org/draft/2020-12/schema",
			"title":    "Translation",
			"type":     "object",
			"required": []any{"translated"},
			"properties": map[string]any{
				"translated": map[string]any{"type": "string", "minLength": 1},
			},
		},
	}
}

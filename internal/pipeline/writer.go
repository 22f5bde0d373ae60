package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/extract"
	"github.com/moodworks/autopub/internal/feeds"
	"github.com/moodworks/autopub/internal/llm"
)

const writerContentLimit = 8000

// DraftLink is an internal link the writer placed in the draft.
type DraftLink struct {
	URL    string `json:"url"`
	Anchor string `json:"anchor"`
}

// Draft is the writer stage output.
type Draft struct {
	TitleVariants  []string    `json:"title_variants"`
	SEOTitle       string      `json:"seo_title"`
	SEODescription string      `json:"seo_description"`
	BodyHTML       string      `json:"body_html"`
	Excerpt        string      `json:"excerpt"`
	Tags           []string    `json:"tags"`
	InternalLinks  []DraftLink `json:"internal_links"`
	Citations      []string    `json:"citations"`
	ImageCaption   string      `json:"image_caption"`
}

// Writer turns a plan into a full draft.
type Writer struct {
	llm    llm.Service
	logger zerolog.Logger
}

func NewWriter(service llm.Service, logger zerolog.Logger) *Writer {
	return &Writer{llm: service, logger: logger}
}

func (w *Writer) Write(ctx context.Context, item feeds.Item, plan Plan, content string) (Draft, error) {
	if w == nil || w.llm == nil {
		return Draft{}, fmt.Errorf("writer is not initialized")
	}

	userPayload, err := json.Marshal(map[string]any{
		"source":  item,
		"plan":    plan,
		"content": truncateRunes(content, writerContentLimit),
	})
	if err != nil {
		return Draft{}, fmt.Errorf("encode writer input: %w", err)
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: "You are a senior lifestyle editor writing in Slovak (sk_SK). " +
				"Produce human-friendly articles with entity names preserved in original language " +
				"and metric conversions in parentheses. Use only <p>, <h3>, <strong>, <em>, <blockquote>, <br> tags. " +
				"Insert an <h3> heading every 3-5 paragraphs. Remove hyperlinks from body.",
		},
		{
			Role:    "user",
			Content: string(userPayload),
		},
	}

	payload, err := w.llm.Structured(ctx, messages, writerSchema())
	if err != nil {
		w.logger.Error().Err(err).
			Str("url", item.URL).
			Msg("writer failed")
		return Draft{}, fmt.Errorf("write draft url=%s: %w", item.URL, err)
	}

	var draft Draft
	if err := decodePayload(payload, &draft); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}

	draft.BodyHTML = strings.TrimSpace(extract.NormalizeBody(draft.BodyHTML))
	return draft, nil
}

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/llm"
)

// QualityScores are the editor's per-dimension gradings in [0, 1].
type QualityScores struct {
	Helpful     float64 `json:"helpful"`
	Originality float64 `json:"originality"`
	Clarity     float64 `json:"clarity"`
}

// SuggestedFixes carries optional editor guidance back to the publisher.
type SuggestedFixes struct {
	HeadlineToUse    string   `json:"headline_to_use"`
	SectionsToExpand []string `json:"sections_to_expand"`
	AddFAQ           []string `json:"add_faq"`
}

// Review is the editorial gate result.
type Review struct {
	Approval      bool           `json:"approval"`
	Reasons       []string       `json:"reasons"`
	QualityScores QualityScores  `json:"quality_scores"`
	Fixes         SuggestedFixes `json:"fixes_suggested"`
}

// Editor grades drafts before publication.
type Editor struct {
	llm    llm.Service
	logger zerolog.Logger
}

func NewEditor(service llm.Service, logger zerolog.Logger) *Editor {
	return &Editor{llm: service, logger: logger}
}

func (e *Editor) Review(ctx context.Context, draft Draft) (Review, error) {
	if e == nil || e.llm == nil {
		return Review{}, fmt.Errorf("editor is not initialized")
	}

	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return Review{}, fmt.Errorf("encode draft for review: %w", err)
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: "You are a quality editor ensuring the article is people-first, original, and clear. " +
				"Approve only if the content is ready to publish; otherwise flag reasons. Respond with JSON only.",
		},
		{
			Role:    "user",
			Content: string(draftJSON),
		},
	}

	payload, err := e.llm.Structured(ctx, messages, editorSchema())
	if err != nil {
		e.logger.Error().Err(err).Msg("editor review failed")
		return Review{}, fmt.Errorf("review draft: %w", err)
	}

	var review Review
	if err := decodePayload(payload, &review); err != nil {
		return Review{}, fmt.Errorf("decode review: %w", err)
	}
	return review, nil
}

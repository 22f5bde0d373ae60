package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/llm"
)

// Translator renders update summaries in the site language.
type Translator struct {
	llm      llm.Service
	language string
	logger   zerolog.Logger
}

func NewTranslator(service llm.Service, language string, logger zerolog.Logger) *Translator {
	if strings.TrimSpace(language) == "" {
		language = "sk"
	}
	return &Translator{llm: service, language: language, logger: logger}
}

// Translate returns the text in the site language. Blank input passes
// through untouched.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if t == nil || t.llm == nil {
		return "", fmt.Errorf("translator is not initialized")
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: fmt.Sprintf(
				"Translate the provided text into %s while keeping named entities in original form.",
				languageName(t.language),
			),
		},
		{
			Role:    "user",
			Content: text,
		},
	}

	payload, err := t.llm.Structured(ctx, messages, translationSchema())
	if err != nil {
		t.logger.Error().Err(err).
			Str("target_lang", t.language).
			Msg("translation failed")
		return "", fmt.Errorf("translate to %s: %w", t.language, err)
	}

	translated, _ := payload["translated"].(string)
	if strings.TrimSpace(translated) == "" {
		return text, nil
	}
	return translated, nil
}

func languageName(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "sk":
		return "Slovak (sk_SK)"
	case "pl":
		return "Polish (pl_PL)"
	case "hu":
		return "Hungarian (hu_HU)"
	case "en":
		return "English (en_US)"
	default:
		return code
	}
}

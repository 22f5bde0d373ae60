// Package pipeline contains the LLM stages that turn a candidate feed item
// into a publishable post: plan, draft, editorial review and translation.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/extract"
	"github.com/moodworks/autopub/internal/feeds"
	"github.com/moodworks/autopub/internal/llm"
)

const plannerContentLimit = 4000

// OutlineSection is one planned article section.
type OutlineSection struct {
	H2      string   `json:"h2"`
	Bullets []string `json:"bullets"`
}

// Plan is the planner stage output.
type Plan struct {
	Topic           string           `json:"topic"`
	WhyNow          string           `json:"why_now"`
	Intent          string           `json:"intent"`
	Audience        string           `json:"audience"`
	Outline         []OutlineSection `json:"outline"`
	InternalLinks   []string         `json:"internal_links"`
	UpdateTargetURL string           `json:"update_target_url"`
	Tags            []string         `json:"tags"`
	ImageSubject    string           `json:"image_subject"`
	EntityType      string           `json:"entity_type"`
}

// Planner produces the structured article plan for a candidate item.
type Planner struct {
	llm    llm.Service
	logger zerolog.Logger
}

func NewPlanner(service llm.Service, logger zerolog.Logger) *Planner {
	return &Planner{llm: service, logger: logger}
}

func (p *Planner) Plan(ctx context.Context, item feeds.Item, content string) (Plan, error) {
	if p == nil || p.llm == nil {
		return Plan{}, fmt.Errorf("planner is not initialized")
	}

	published := ""
	if item.PublishedAt != nil {
		published = item.PublishedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	messages := []llm.Message{
		{
			Role: "system",
			Content: "You are a Slovak editorial strategist for a lifestyle magazine. " +
				"Generate structured plans that highlight new angles, timely context, and internal links. " +
				"Respond strictly via JSON that conforms to the provided schema.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf(
				"Source: %s\nTitle: %s\nURL: %s\nPublished: %s\nSummary: %s\nContent:\n%s",
				item.Source, item.Title, item.URL, published, item.Summary,
				truncateRunes(extract.PlainText(content), plannerContentLimit),
			),
		},
	}

	payload, err := p.llm.Structured(ctx, messages, plannerSchema())
	if err != nil {
		p.logger.Error().Err(err).
			Str("source", item.Source).
			Str("url", item.URL).
			Msg("planner failed")
		return Plan{}, fmt.Errorf("plan item source=%s: %w", item.Source, err)
	}

	var plan Plan
	if err := decodePayload(payload, &plan); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}

	plan.InternalLinks = cleanLinks(plan.InternalLinks)
	return plan, nil
}

// cleanLinks deduplicates internal links and drops anything that does not
// parse as an absolute URL.
func cleanLinks(links []string) []string {
	seen := make(map[string]bool, len(links))
	cleaned := make([]string, 0, len(links))
	for _, link := range links {
		if seen[link] {
			continue
		}
		seen[link] = true
		parsed, err := url.Parse(link)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			continue
		}
		cleaned = append(cleaned, link)
	}
	return cleaned
}

func decodePayload(payload map[string]any, target any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

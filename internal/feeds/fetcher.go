package feeds

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/extract"
	"github.com/moodworks/autopub/internal/fetch"
)

// Fetcher downloads and parses source feeds.
type Fetcher struct {
	parser *gofeed.Parser
	logger zerolog.Logger
}

func NewFetcher(client *fetch.Client, logger zerolog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client.HTTPClient()
	}
	return &Fetcher{
		parser: parser,
		logger: logger,
	}
}

// Fetch pulls up to max items from one source feed. Items without a link or
// a title are dropped.
func (f *Fetcher) Fetch(ctx context.Context, source Source, max int) ([]Item, error) {
	if f == nil || f.parser == nil {
		return nil, fmt.Errorf("fetcher is not initialized")
	}
	if max <= 0 {
		return nil, fmt.Errorf("max must be > 0")
	}

	feed, err := f.parser.ParseURLWithContext(source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed source=%s: %w", source.Key, err)
	}

	items := make([]Item, 0, max)
	for _, entry := range feed.Items {
		if len(items) >= max {
			break
		}
		if entry == nil {
			continue
		}

		link := strings.TrimSpace(entry.Link)
		title := strings.TrimSpace(entry.Title)
		if link == "" || title == "" {
			continue
		}

		item := Item{
			Source:      source.Key,
			URL:         link,
			Title:       title,
			Summary:     extract.PlainText(entry.Description),
			Author:      authorName(entry),
			ImageURL:    entryImage(entry),
			PublishedAt: entry.PublishedParsed,
			Fingerprint: Fingerprint(source.Key, link),
		}
		items = append(items, item)
	}

	f.logger.Debug().
		Str("source", source.Key).
		Int("items", len(items)).
		Msg("fetched feed")

	return items, nil
}

func authorName(entry *gofeed.Item) string {
	for _, author := range entry.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			return strings.TrimSpace(author.Name)
		}
	}
	return ""
}

// entryImage looks for an item image in the usual feed places: enclosures,
// media RSS extensions, then the item-level image.
func entryImage(entry *gofeed.Item) string {
	for _, enclosure := range entry.Enclosures {
		if enclosure == nil || strings.TrimSpace(enclosure.URL) == "" {
			continue
		}
		if enclosure.Type == "" || strings.HasPrefix(enclosure.Type, "image/") {
			return strings.TrimSpace(enclosure.URL)
		}
	}

	if media, ok := entry.Extensions["media"]; ok {
		for _, name := range []string{"content", "thumbnail"} {
			for _, ext := range media[name] {
				if url := strings.TrimSpace(ext.Attrs["url"]); url != "" {
					return url
				}
			}
		}
	}

	if entry.Image != nil && strings.TrimSpace(entry.Image.URL) != "" {
		return strings.TrimSpace(entry.Image.URL)
	}

	return ""
}

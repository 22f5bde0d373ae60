package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/moodworks/autopub/internal/cli"
	"github.com/moodworks/autopub/internal/extract"
	"github.com/moodworks/autopub/internal/feeds"
	"github.com/moodworks/autopub/internal/fetch"
	"github.com/moodworks/autopub/internal/langdetect"
	"github.com/moodworks/autopub/internal/llm"
	"github.com/moodworks/autopub/internal/pipeline"
)

// runPreview fetches one item per enabled source and runs it through the
// plan, draft and review stages without touching the database or the CMS.
func runPreview(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	sourceKey := fs.String("source", "", "Restrict the preview to one source key")
	feedOnly := fs.Bool("feed-only", false, "Print feed items without running the editorial stages")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	keys := cfg.SourceKeys()
	if filter := strings.ToLower(strings.TrimSpace(*sourceKey)); filter != "" {
		keys = []string{filter}
	}
	sources, unknown := feeds.Enabled(keys)
	for _, key := range unknown {
		fmt.Fprintf(os.Stderr, "unknown source %q; available:\n", key)
		for _, s := range feeds.Catalog() {
			fmt.Fprintf(os.Stderr, "  %-16s %s\n", s.Key, s.FeedURL)
		}
		return 2
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "no sources enabled")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client := fetch.NewClient(fetch.Options{})
	fetcher := feeds.NewFetcher(client, logger)

	service := llm.NewClient(llm.Options{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		Temperature: cfg.Temperature,
	}, logger)
	planner := pipeline.NewPlanner(service, logger)
	writer := pipeline.NewWriter(service, logger)
	editor := pipeline.NewEditor(service, logger)

	for _, source := range sources {
		items, err := fetcher.Fetch(ctx, source, 1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: feed fetch failed: %v\n", source.Key, err)
			continue
		}
		if len(items) == 0 {
			fmt.Printf("%s: feed is empty\n\n", source.Key)
			continue
		}

		item := items[0]
		printItem(source, item)
		if *feedOnly {
			fmt.Println()
			continue
		}

		body, _, err := client.Get(ctx, item.URL)
		if err != nil {
			fmt.Printf("    page fetch failed: %v\n\n", err)
			continue
		}
		content := extract.Extract(string(body), item.URL).Content

		plan, err := planner.Plan(ctx, item, content)
		if err != nil {
			fmt.Printf("    plan failed: %v\n\n", err)
			continue
		}
		fmt.Printf("    plan:        %s (%s)\n", plan.Topic, plan.Intent)

		draft, err := writer.Write(ctx, item, plan, content)
		if err != nil {
			fmt.Printf("    draft failed: %v\n\n", err)
			continue
		}
		fmt.Printf("    draft:       %s (%d chars)\n",
			draft.SEOTitle, len([]rune(extract.PlainText(draft.BodyHTML))))

		review, err := editor.Review(ctx, draft)
		if err != nil {
			fmt.Printf("    review failed: %v\n\n", err)
			continue
		}
		fmt.Printf("    approval:    %t", review.Approval)
		if len(review.Reasons) > 0 {
			fmt.Printf(" (%s)", strings.Join(review.Reasons, "; "))
		}
		fmt.Println()
		fmt.Println()
	}
	return 0
}

func printItem(source feeds.Source, item feeds.Item) {
	published := "unknown"
	if item.PublishedAt != nil {
		published = item.PublishedAt.UTC().Format(time.RFC3339)
	}
	lang := langdetect.DetectISO6391(item.Summary)
	if lang == "" {
		lang = "?"
	}

	fmt.Printf("%s: %s\n", source.Key, item.Title)
	fmt.Printf("    url:         %s\n", item.URL)
	fmt.Printf("    published:   %s\n", published)
	fmt.Printf("    language:    %s\n", lang)
	fmt.Printf("    fingerprint: %s\n", item.Fingerprint)
	if item.ImageURL != "" {
		fmt.Printf("    image:       %s\n", item.ImageURL)
	}
}

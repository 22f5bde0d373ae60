package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/moodworks/autopub/internal/cli"
	"github.com/moodworks/autopub/internal/db"
	"github.com/moodworks/autopub/internal/dedup"
	"github.com/moodworks/autopub/internal/feeds"
)

// runEvaluate runs the dedup decision engine against one candidate and prints
// the decision. Debugging aid for operators.
func runEvaluate(args []string) int {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	title := fs.String("title", "", "Candidate title (required)")
	itemURL := fs.String("url", "", "Candidate URL (required)")
	sourceKey := fs.String("source", "", "Source key (required)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *title == "" || *itemURL == "" || *sourceKey == "" {
		fmt.Fprintln(os.Stderr, "--title, --url and --source are required")
		return 2
	}
	if _, ok := feeds.Lookup(*sourceKey); !ok {
		fmt.Fprintf(os.Stderr, "unknown source %q\n", *sourceKey)
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	decision := dedup.NewEngine(pool, logger).Evaluate(ctx, dedup.Candidate{
		Source:      *sourceKey,
		URL:         *itemURL,
		Title:       *title,
		Fingerprint: feeds.Fingerprint(*sourceKey, *itemURL),
	}, dedup.Options{
		Fingerprint: cfg.DedupeFingerprint,
		Title:       cfg.DedupeTitle,
		Embeddings:  cfg.DedupeEmbeddings,
		Blocklist:   cfg.BlocklistTerms(),
	})

	fmt.Printf("action: %s\nreason: %s\n", decision.Action, decision.Reason)
	if decision.PostID != 0 {
		fmt.Printf("post_id: %d\n", decision.PostID)
	}
	return 0
}

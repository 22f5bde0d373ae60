// Package runner orchestrates one ingest run: fetch feeds, decide, generate,
// publish, and account for every item in the run log.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/config"
	"github.com/moodworks/autopub/internal/db"
	"github.com/moodworks/autopub/internal/dedup"
	"github.com/moodworks/autopub/internal/extract"
	"github.com/moodworks/autopub/internal/feeds"
	"github.com/moodworks/autopub/internal/langdetect"
	"github.com/moodworks/autopub/internal/language"
	"github.com/moodworks/autopub/internal/pipeline"
)

// Feeder fetches candidate items for one source.
type Feeder interface {
	Fetch(ctx context.Context, source feeds.Source, max int) ([]feeds.Item, error)
}

// PageFetcher retrieves article pages. fetch.Client satisfies it.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Evaluator is the dedup decision engine.
type Evaluator interface {
	Evaluate(ctx context.Context, candidate dedup.Candidate, opts dedup.Options) dedup.Decision
}

// Stages groups the LLM pipeline stages the runner drives.
type Stages struct {
	Planner interface {
		Plan(ctx context.Context, item feeds.Item, content string) (pipeline.Plan, error)
	}
	Writer interface {
		Write(ctx context.Context, item feeds.Item, plan pipeline.Plan, content string) (pipeline.Draft, error)
	}
	Editor interface {
		Review(ctx context.Context, draft pipeline.Draft) (pipeline.Review, error)
	}
	Translator interface {
		Translate(ctx context.Context, text string) (string, error)
	}
	Images interface {
		Pick(ctx context.Context, candidates []string, opts pipeline.ImageOptions) (pipeline.ResolvedImage, error)
	}
	Publisher interface {
		Publish(ctx context.Context, item feeds.Item, plan pipeline.Plan, draft pipeline.Draft,
			review pipeline.Review, image *pipeline.ResolvedImage, opts pipeline.PublishOptions) (pipeline.PublishResult, error)
		ApplyUpdate(ctx context.Context, postID int64, summary string) error
	}
}

// RunLogStore records run lifecycles.
type RunLogStore interface {
	StartRun(ctx context.Context, trigger string) (int64, string, error)
	FinishRun(ctx context.Context, runLogID int64, status string, counters db.RunCounters, runErr error) error
}

// RunContext carries per-run overrides.
type RunContext struct {
	// Limit overrides MAX_PER_RUN when > 0.
	Limit int
	// Source restricts the run to one source key.
	Source string
	// Trigger names what started the run: cron, manual or cli.
	Trigger string
}

// Result is the per-run tally.
type Result struct {
	RunUUID   string
	Fetched   int
	Published int
	Updated   int
	Skipped   int
	Failed    int
}

// Runner wires the whole pipeline together.
type Runner struct {
	cfg    *config.Config
	feeder Feeder
	pages  PageFetcher
	engine Evaluator
	stages Stages
	runs   RunLogStore
	logger zerolog.Logger
}

func New(
	cfg *config.Config,
	feeder Feeder,
	pages PageFetcher,
	engine Evaluator,
	stages Stages,
	runs RunLogStore,
	logger zerolog.Logger,
) *Runner {
	return &Runner{
		cfg:    cfg,
		feeder: feeder,
		pages:  pages,
		engine: engine,
		stages: stages,
		runs:   runs,
		logger: logger,
	}
}

// RunBatch executes one run. Per-item failures are logged and the run moves
// on; the only condition ending a run early besides the limit is having no
// enabled sources at all.
func (r *Runner) RunBatch(ctx context.Context, rc RunContext) (Result, error) {
	if r == nil || r.cfg == nil {
		return Result{}, fmt.Errorf("runner is not initialized")
	}

	runLogID, runUUID, err := r.runs.StartRun(ctx, rc.Trigger)
	if err != nil {
		return Result{}, fmt.Errorf("start run log: %w", err)
	}

	result := Result{RunUUID: runUUID}
	counters := func() db.RunCounters {
		return db.RunCounters{
			Fetched:   result.Fetched,
			Published: result.Published,
			Updated:   result.Updated,
			Skipped:   result.Skipped,
			Failed:    result.Failed,
		}
	}

	sources := r.enabledSources(rc.Source)
	if len(sources) == 0 {
		r.logger.Warn().Str("run_uuid", runUUID).Msg("no sources enabled")
		err := fmt.Errorf("no sources enabled")
		if finishErr := r.runs.FinishRun(ctx, runLogID, "completed", counters(), err); finishErr != nil {
			r.logger.Error().Err(finishErr).Msg("finish run log failed")
		}
		return result, nil
	}

	limit := rc.Limit
	if limit <= 0 {
		limit = r.cfg.MaxPerRun
	}
	if limit < 1 {
		limit = 1
	}

	dedupOpts := dedup.Options{
		Fingerprint: r.cfg.DedupeFingerprint,
		Title:       r.cfg.DedupeTitle,
		Embeddings:  r.cfg.DedupeEmbeddings,
		Blocklist:   r.cfg.BlocklistTerms(),
	}

	terminal := 0

sourceLoop:
	for _, source := range sources {
		if terminal >= limit {
			break
		}

		items, err := r.feeder.Fetch(ctx, source, limit*2)
		if err != nil {
			r.logger.Warn().Err(err).Str("source", source.Key).Msg("feed fetch failed")
			continue
		}
		result.Fetched += len(items)

		for _, item := range items {
			if terminal >= limit {
				break sourceLoop
			}
			if ctx.Err() != nil {
				break sourceLoop
			}

			decision := r.engine.Evaluate(ctx, dedup.Candidate{
				Source:      item.Source,
				URL:         item.URL,
				Title:       item.Title,
				Fingerprint: item.Fingerprint,
			}, dedupOpts)

			switch decision.Action {
			case dedup.ActionSkip:
				result.Skipped++
				r.logger.Info().
					Str("source", item.Source).
					Str("url", item.URL).
					Str("reason", string(decision.Reason)).
					Msg("item skipped")
			case dedup.ActionUpdate:
				if r.updateExisting(ctx, decision.PostID, item) {
					result.Updated++
					terminal++
				} else {
					result.Failed++
				}
			case dedup.ActionCreate:
				if r.createPost(ctx, item) {
					result.Published++
					terminal++
				} else {
					result.Failed++
				}
			}
		}
	}

	r.logger.Info().
		Str("run_uuid", runUUID).
		Int("published", result.Published).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Int("limit", limit).
		Msg("run completed")

	if err := r.runs.FinishRun(ctx, runLogID, "completed", counters(), nil); err != nil {
		r.logger.Error().Err(err).Msg("finish run log failed")
	}
	return result, nil
}

func (r *Runner) enabledSources(filter string) []feeds.Source {
	keys := r.cfg.SourceKeys()
	if filter = strings.ToLower(strings.TrimSpace(filter)); filter != "" {
		filtered := make([]string, 0, 1)
		for _, key := range keys {
			if key == filter {
				filtered = append(filtered, key)
			}
		}
		keys = filtered
	}

	sources, unknown := feeds.Enabled(keys)
	for _, key := range unknown {
		r.logger.Warn().Str("source", key).Msg("unknown source key in configuration")
	}
	return sources
}

// updateExisting runs the update flow: translate the summary into the site
// language when needed, then prepend it to the existing post.
func (r *Runner) updateExisting(ctx context.Context, postID int64, item feeds.Item) bool {
	summary := item.Summary
	siteLang := language.NormalizeCode(r.cfg.SiteLanguage)

	if summary != "" && langdetect.DetectISO6391(summary) != siteLang {
		translated, err := r.stages.Translator.Translate(ctx, summary)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("url", item.URL).
				Msg("summary translation failed; using original")
		} else {
			summary = translated
		}
	}

	if err := r.stages.Publisher.ApplyUpdate(ctx, postID, summary); err != nil {
		r.logger.Error().Err(err).
			Str("source", item.Source).
			Int64("post_id", postID).
			Msg("update flow failed")
		return false
	}
	return true
}

func (r *Runner) logStageFailure(stage string, item feeds.Item, err error) {
	r.logger.Error().Err(err).
		Str("stage", stage).
		Str("source", item.Source).
		Str("url", item.URL).
		Msg("pipeline stage failed")
}

func (r *Runner) createPost(ctx context.Context, item feeds.Item) bool {
	body, _, err := r.pages.Get(ctx, item.URL)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("source", item.Source).
			Str("url", item.URL).
			Msg("unable to retrieve article body")
		return false
	}

	extracted := extract.Extract(string(body), item.URL)

	plan, err := r.stages.Planner.Plan(ctx, item, extracted.Content)
	if err != nil {
		r.logStageFailure("plan", item, err)
		return false
	}

	draft, err := r.stages.Writer.Write(ctx, item, plan, extracted.Content)
	if err != nil {
		r.logStageFailure("write", item, err)
		return false
	}

	review, err := r.stages.Editor.Review(ctx, draft)
	if err != nil {
		r.logStageFailure("review", item, err)
		return false
	}

	var image *pipeline.ResolvedImage
	resolved, err := r.stages.Images.Pick(ctx, []string{item.ImageURL, extracted.Image}, pipeline.ImageOptions{
		MinWidth:     r.cfg.ImageMinWidth,
		MinHeight:    r.cfg.ImageMinHeight,
		SkipUnderMin: r.cfg.ImageSkipUnderMin,
		ForceRatio:   r.cfg.ImageForceRatio,
	})
	if err != nil {
		if r.cfg.ImageSkipUnderMin {
			r.logger.Warn().Err(err).
				Str("source", item.Source).
				Str("url", item.URL).
				Msg("skipping item without usable image")
			return false
		}
	} else {
		image = &resolved
	}

	_, err = r.stages.Publisher.Publish(ctx, item, plan, draft, review, image, pipeline.PublishOptions{
		PublishLive:       r.cfg.PublishLive(),
		CategoryID:        r.cfg.CMSCategoryID,
		AttributionFooter: r.cfg.AttributionFooter,
	})
	if err != nil {
		r.logger.Error().Err(err).
			Str("source", item.Source).
			Str("url", item.URL).
			Msg("publish failed")
		return false
	}
	return true
}

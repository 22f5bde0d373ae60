package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/cms"
	"github.com/moodworks/autopub/internal/db"
	"github.com/moodworks/autopub/internal/dedup"
	"github.com/moodworks/autopub/internal/extract"
	"github.com/moodworks/autopub/internal/feeds"
	"github.com/moodworks/autopub/internal/globaltime"
)

// minLiveBodyChars is the plain-text floor below which a post is demoted to
// draft no matter what the editor said.
const minLiveBodyChars = 1200

// SiteClient is the slice of the CMS API the publisher needs.
type SiteClient interface {
	CreatePost(ctx context.Context, params cms.PostParams) (cms.Post, error)
	UploadMedia(ctx context.Context, fileName, mime string, data []byte) (int64, error)
	SetFeaturedMedia(ctx context.Context, postID, mediaID int64) error
	GetPostContent(ctx context.Context, postID int64) (string, error)
	UpdatePostContent(ctx context.Context, postID int64, content string) error
	FindPostIDByURL(ctx context.Context, postURL string) (int64, bool, error)
}

// RecordSaver persists publication records for the dedup engine.
type RecordSaver interface {
	SaveRecord(ctx context.Context, params db.SaveRecordParams) error
	TouchRecord(ctx context.Context, postID int64) error
}

// PublishOptions are the publish-time settings from configuration.
type PublishOptions struct {
	PublishLive       bool
	CategoryID        int
	AttributionFooter bool
}

// PublishResult reports what the publisher created.
type PublishResult struct {
	PostID int64
	Status string
}

// Publisher assembles the final post and writes it to the CMS and the
// publication record store.
type Publisher struct {
	site   SiteClient
	store  RecordSaver
	logger zerolog.Logger
}

func NewPublisher(site SiteClient, store RecordSaver, logger zerolog.Logger) *Publisher {
	return &Publisher{site: site, store: store, logger: logger}
}

// Publish creates the post, attaches the featured image when one resolved,
// records the publication, and prepends the update block to a referenced
// older post when the plan asked for one.
func (p *Publisher) Publish(
	ctx context.Context,
	item feeds.Item,
	plan Plan,
	draft Draft,
	review Review,
	image *ResolvedImage,
	opts PublishOptions,
) (PublishResult, error) {
	if p == nil || p.site == nil || p.store == nil {
		return PublishResult{}, fmt.Errorf("publisher is not initialized")
	}

	title := pickTitle(item, draft, review)
	content := draft.BodyHTML

	status := "draft"
	if opts.PublishLive && review.Approval {
		status = "publish"
	}
	if len([]rune(extract.PlainText(content))) < minLiveBodyChars {
		status = "draft"
	}

	if opts.AttributionFooter {
		content += attributionFooter(item.URL)
	}

	excerpt := draft.Excerpt
	if strings.TrimSpace(excerpt) == "" {
		excerpt = extract.PlainText(draft.BodyHTML)
	}

	params := cms.PostParams{
		Title:      title,
		Content:    content,
		Excerpt:    excerpt,
		Status:     status,
		CategoryID: opts.CategoryID,
		Tags:       draft.Tags,
		DateGMT:    item.PublishedAt,
	}

	post, err := p.site.CreatePost(ctx, params)
	if err != nil {
		return PublishResult{}, fmt.Errorf("publish item url=%s: %w", item.URL, err)
	}

	if image != nil {
		if err := p.attachImage(ctx, post.ID, image); err != nil {
			p.logger.Warn().Err(err).
				Int64("post_id", post.ID).
				Str("image_url", image.SourceURL).
				Msg("featured image attach failed")
		}
	}

	publishedAt := globaltime.Now()
	if item.PublishedAt != nil {
		publishedAt = item.PublishedAt.UTC()
	}
	if err := p.store.SaveRecord(ctx, db.SaveRecordParams{
		PostID:         post.ID,
		Fingerprint:    item.Fingerprint,
		Title:          title,
		TitleEmbedding: dedup.Vectorize(title),
		SourceKey:      item.Source,
		SourceURL:      item.URL,
		Status:         status,
		PublishedAtUTC: publishedAt,
	}); err != nil {
		return PublishResult{}, fmt.Errorf("save publication record post=%d: %w", post.ID, err)
	}

	p.maybePrependUpdateBlock(ctx, plan, item)

	p.logger.Info().
		Str("source", item.Source).
		Int64("post_id", post.ID).
		Str("status", status).
		Msg("post created")

	return PublishResult{PostID: post.ID, Status: status}, nil
}

// ApplyUpdate prepends an update block to an existing post and refreshes its
// publication record. The summary should already be in the site language.
func (p *Publisher) ApplyUpdate(ctx context.Context, postID int64, summary string) error {
	if p == nil || p.site == nil || p.store == nil {
		return fmt.Errorf("publisher is not initialized")
	}

	current, err := p.site.GetPostContent(ctx, postID)
	if err != nil {
		return fmt.Errorf("load post %d for update: %w", postID, err)
	}
	if strings.TrimSpace(current) == "" {
		return fmt.Errorf("post %d has no content to update", postID)
	}

	block := updateBlock(summary)
	if err := p.site.UpdatePostContent(ctx, postID, block+current); err != nil {
		return fmt.Errorf("prepend update block post=%d: %w", postID, err)
	}

	if err := p.store.TouchRecord(ctx, postID); err != nil {
		p.logger.Warn().Err(err).
			Int64("post_id", postID).
			Msg("record touch failed after update")
	}

	p.logger.Info().
		Int64("post_id", postID).
		Msg("updated existing post")
	return nil
}

func (p *Publisher) attachImage(ctx context.Context, postID int64, image *ResolvedImage) error {
	mediaID, err := p.site.UploadMedia(ctx, image.FileName, image.Mime, image.Data)
	if err != nil {
		return fmt.Errorf("upload media: %w", err)
	}
	if err := p.site.SetFeaturedMedia(ctx, postID, mediaID); err != nil {
		return fmt.Errorf("set featured media: %w", err)
	}
	return nil
}

// maybePrependUpdateBlock handles the planner pointing at an older post of
// ours: that post gets a short update notice on top. Failures here never fail
// the new post.
func (p *Publisher) maybePrependUpdateBlock(ctx context.Context, plan Plan, item feeds.Item) {
	if strings.TrimSpace(plan.UpdateTargetURL) == "" {
		return
	}

	targetID, found, err := p.site.FindPostIDByURL(ctx, plan.UpdateTargetURL)
	if err != nil || !found {
		if err != nil {
			p.logger.Warn().Err(err).
				Str("target_url", plan.UpdateTargetURL).
				Msg("update target lookup failed")
		}
		return
	}

	current, err := p.site.GetPostContent(ctx, targetID)
	if err != nil || strings.TrimSpace(current) == "" {
		return
	}
	if err := p.site.UpdatePostContent(ctx, targetID, updateBlock(item.Summary)+current); err != nil {
		p.logger.Warn().Err(err).
			Int64("post_id", targetID).
			Msg("update block write failed")
	}
}

func pickTitle(item feeds.Item, draft Draft, review Review) string {
	if headline := strings.TrimSpace(review.Fixes.HeadlineToUse); headline != "" {
		return headline
	}
	if seo := strings.TrimSpace(draft.SEOTitle); seo != "" {
		return seo
	}
	for _, variant := range draft.TitleVariants {
		if strings.TrimSpace(variant) != "" {
			return strings.TrimSpace(variant)
		}
	}
	return strings.TrimSpace(item.Title)
}

func updateBlock(summary string) string {
	return fmt.Sprintf("<p><strong>Aktualizácia:</strong> %s</p>", extract.PlainText(summary))
}

func attributionFooter(sourceURL string) string {
	host := ""
	if parsed, err := url.Parse(sourceURL); err == nil {
		host = parsed.Host
	}
	return fmt.Sprintf(
		`<p><em>Zdroj:</em> <a href="%s" rel="noopener" target="_blank">%s</a></p>`,
		sourceURL, host,
	)
}

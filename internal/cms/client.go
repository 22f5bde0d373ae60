// Package cms is the WordPress REST client the publisher writes through.
// Authentication uses an application password over basic auth.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 30 * time.Second

	apiPosts = "/wp-json/wp/v2/posts"
	apiMedia = "/wp-json/wp/v2/media"
	apiTags  = "/wp-json/wp/v2/tags"
)

// Post is the subset of the post resource the pipeline cares about.
type Post struct {
	ID     int64  `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// PostParams describes a post to create.
type PostParams struct {
	Title      string
	Content    string
	Excerpt    string
	Status     string
	CategoryID int
	Tags       []string
	DateGMT    *time.Time
}

// Client talks to one WordPress site.
type Client struct {
	baseURL     string
	username    string
	appPassword string
	httpClient  *http.Client
	logger      zerolog.Logger
}

func NewClient(baseURL, username, appPassword string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username:    username,
		appPassword: appPassword,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      logger,
	}
}

// CreatePost creates a post. Tag names are resolved to term ids first;
// a tag that cannot be resolved is dropped rather than failing the post.
func (c *Client) CreatePost(ctx context.Context, params PostParams) (Post, error) {
	if err := c.ready(); err != nil {
		return Post{}, err
	}

	body := map[string]any{
		"title":   params.Title,
		"content": params.Content,
		"excerpt": params.Excerpt,
		"status":  params.Status,
	}
	if params.CategoryID > 0 {
		body["categories"] = []int{params.CategoryID}
	}
	if params.DateGMT != nil {
		body["date_gmt"] = params.DateGMT.UTC().Format("2006-01-02T15:04:05")
	}

	if len(params.Tags) > 0 {
		tagIDs := make([]int64, 0, len(params.Tags))
		for _, tag := range params.Tags {
			id, err := c.ensureTag(ctx, tag)
			if err != nil {
				c.logger.Warn().Err(err).Str("tag", tag).Msg("dropping unresolvable tag")
				continue
			}
			tagIDs = append(tagIDs, id)
		}
		if len(tagIDs) > 0 {
			body["tags"] = tagIDs
		}
	}

	var post Post
	if err := c.doJSON(ctx, http.MethodPost, apiPosts, body, &post); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// GetPostContent returns the raw stored content of a post.
func (c *Client) GetPostContent(ctx context.Context, postID int64) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}

	var payload struct {
		Content struct {
			Raw      string `json:"raw"`
			Rendered string `json:"rendered"`
		} `json:"content"`
	}
	path := fmt.Sprintf("%s/%d?context=edit", apiPosts, postID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return "", fmt.Errorf("get post %d: %w", postID, err)
	}
	if payload.Content.Raw != "" {
		return payload.Content.Raw, nil
	}
	return payload.Content.Rendered, nil
}

// UpdatePostContent replaces the content of an existing post.
func (c *Client) UpdatePostContent(ctx context.Context, postID int64, content string) error {
	if err := c.ready(); err != nil {
		return err
	}

	body := map[string]any{"content": content}
	path := fmt.Sprintf("%s/%d", apiPosts, postID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("update post %d: %w", postID, err)
	}
	return nil
}

// UploadMedia sideloads an image and returns the media id.
func (c *Client) UploadMedia(ctx context.Context, fileName, mime string, data []byte) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("media payload is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiMedia, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("build media request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)
	req.Header.Set("Content-Type", mime)
	req.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, fileName))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read media response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("upload media status %d: %s", resp.StatusCode, snippet(raw))
	}

	var media struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &media); err != nil {
		return 0, fmt.Errorf("decode media response: %w", err)
	}
	if media.ID <= 0 {
		return 0, fmt.Errorf("media response missing id")
	}
	return media.ID, nil
}

// SetFeaturedMedia points a post's featured image at an uploaded media item.
func (c *Client) SetFeaturedMedia(ctx context.Context, postID, mediaID int64) error {
	if err := c.ready(); err != nil {
		return err
	}

	body := map[string]any{"featured_media": mediaID}
	path := fmt.Sprintf("%s/%d", apiPosts, postID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("set featured media post=%d media=%d: %w", postID, mediaID, err)
	}
	return nil
}

// FindPostIDByURL resolves a site URL to a post id via its slug.
func (c *Client) FindPostIDByURL(ctx context.Context, postURL string) (int64, bool, error) {
	if err := c.ready(); err != nil {
		return 0, false, err
	}

	slug := slugFromURL(postURL)
	if slug == "" {
		return 0, false, nil
	}

	var posts []Post
	path := apiPosts + "?slug=" + url.QueryEscape(slug)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &posts); err != nil {
		return 0, false, fmt.Errorf("find post by slug %s: %w", slug, err)
	}
	if len(posts) == 0 {
		return 0, false, nil
	}
	return posts[0].ID, true, nil
}

func (c *Client) ensureTag(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("tag name is empty")
	}

	var existing []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	searchPath := apiTags + "?search=" + url.QueryEscape(name)
	if err := c.doJSON(ctx, http.MethodGet, searchPath, nil, &existing); err != nil {
		return 0, err
	}
	for _, tag := range existing {
		if strings.EqualFold(tag.Name, name) {
			return tag.ID, nil
		}
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, apiTags, map[string]any{"name": name}, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

func (c *Client) ready() error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("cms client is not initialized")
	}
	if c.baseURL == "" {
		return fmt.Errorf("cms base URL is not configured")
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.appPassword)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

func slugFromURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	trimmed := strings.Trim(parsed.Path, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}

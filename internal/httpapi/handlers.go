package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/moodworks/autopub/internal/runner"
)

const redacted = "[redacted]"

type triggerRunRequest struct {
	Limit  int    `json:"limit"`
	Source string `json:"source"`
}

// handleSettings returns the effective configuration with secrets masked.
func (s *Server) handleSettings(c echo.Context) error {
	cfg := s.cfg
	return success(c, map[string]any{
		"environment":          cfg.Environment,
		"log_level":            cfg.LogLevel,
		"database_url":         maskSecret(cfg.DatabaseURL),
		"openai_api_key":       maskSecret(cfg.OpenAIAPIKey),
		"openai_model":         cfg.OpenAIModel,
		"openai_base_url":      cfg.OpenAIBaseURL,
		"cms_base_url":         cfg.CMSBaseURL,
		"cms_username":         cfg.CMSUsername,
		"cms_app_password":     maskSecret(cfg.CMSAppPassword),
		"cms_category_id":      cfg.CMSCategoryID,
		"sources":              cfg.SourceKeys(),
		"max_per_run":          cfg.MaxPerRun,
		"cadence":              cfg.Cadence,
		"publish_mode":         cfg.PublishMode,
		"site_language":        cfg.SiteLanguage,
		"dedupe_fingerprint":   cfg.DedupeFingerprint,
		"dedupe_title":         cfg.DedupeTitle,
		"dedupe_embeddings":    cfg.DedupeEmbeddings,
		"title_blocklist":      cfg.BlocklistTerms(),
		"image_min_width":      cfg.ImageMinWidth,
		"image_min_height":     cfg.ImageMinHeight,
		"image_skip_under_min": cfg.ImageSkipUnderMin,
		"image_force_ratio":    cfg.ImageForceRatio,
		"attribution_footer":   cfg.AttributionFooter,
	})
}

func (s *Server) handleRecords(c echo.Context) error {
	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"page_size": err.Error()})
	}

	ctx := c.Request().Context()
	total, err := s.store.CountRecords(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("count records failed")
		return internalError(c, "Failed to load records")
	}

	items, err := s.store.ListRecords(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("list records failed")
		return internalError(c, "Failed to load records")
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return success(c, map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total_items": total,
			"total_pages": totalPages,
		},
	})
}

func (s *Server) handleRuns(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	items, err := s.store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list runs failed")
		return internalError(c, "Failed to load runs")
	}
	return success(c, map[string]any{"items": items})
}

// handleTriggerRun starts a manual run and waits for it to finish.
func (s *Server) handleTriggerRun(c echo.Context) error {
	if s.trigger == nil {
		return internalError(c, "Run trigger is not available")
	}

	var req triggerRunRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be valid JSON"})
	}
	if req.Limit < 0 {
		return failValidation(c, map[string]string{"limit": "must be >= 0"})
	}

	result, err := s.trigger.RunBatch(c.Request().Context(), runner.RunContext{
		Limit:   req.Limit,
		Source:  strings.TrimSpace(req.Source),
		Trigger: "manual",
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("manual run failed")
		return internalError(c, "Run failed")
	}

	return success(c, map[string]any{
		"run_uuid":  result.RunUUID,
		"fetched":   result.Fetched,
		"published": result.Published,
		"updated":   result.Updated,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})
}

func maskSecret(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return redacted
}

package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Cadences accepted by the daemon scheduler.
const (
	CadenceHourly     = "hourly"
	CadenceTwiceDaily = "twicedaily"
	CadenceDaily      = "daily"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"AP_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"AP_DB_MAX_CONNS" default:"8"`

	OpenAIAPIKey  string  `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel   string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string  `envconfig:"OPENAI_BASE_URL" default:""`
	Temperature   float32 `envconfig:"OPENAI_TEMPERATURE" default:"0.1"`

	CMSBaseURL     string `envconfig:"CMS_BASE_URL" default:""`
	CMSUsername    string `envconfig:"CMS_USERNAME" default:""`
	CMSAppPassword string `envconfig:"CMS_APP_PASSWORD" default:""`
	CMSCategoryID  int    `envconfig:"CMS_CATEGORY_ID" default:"0"`

	Sources      string `envconfig:"SOURCES" default:"europawire,ellepolska,fashionpost"`
	MaxPerRun    int    `envconfig:"MAX_PER_RUN" default:"3"`
	Cadence      string `envconfig:"CADENCE" default:"daily"`
	PublishMode  string `envconfig:"PUBLISH_MODE" default:"draft"`
	SiteLanguage string `envconfig:"SITE_LANGUAGE" default:"sk"`

	DedupeFingerprint bool   `envconfig:"DEDUPE_FINGERPRINT" default:"true"`
	DedupeTitle       bool   `envconfig:"DEDUPE_TITLE" default:"true"`
	DedupeEmbeddings  bool   `envconfig:"DEDUPE_EMBEDDINGS" default:"true"`
	TitleBlocklist    string `envconfig:"TITLE_BLOCKLIST" default:""`

	ImageMinWidth     int  `envconfig:"IMAGE_MIN_WIDTH" default:"1200"`
	ImageMinHeight    int  `envconfig:"IMAGE_MIN_HEIGHT" default:"675"`
	ImageSkipUnderMin bool `envconfig:"IMAGE_SKIP_UNDER_MIN" default:"true"`
	ImageForceRatio   bool `envconfig:"IMAGE_FORCE_RATIO" default:"true"`

	AttributionFooter bool `envconfig:"ATTRIBUTION_FOOTER" default:"false"`

	AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("AP_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("AP_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("AP_DB_MIN_CONNS (%d) cannot exceed AP_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.MaxPerRun < 1 {
		return fmt.Errorf("MAX_PER_RUN must be >= 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.Cadence)) {
	case CadenceHourly, CadenceTwiceDaily, CadenceDaily:
	default:
		return fmt.Errorf("CADENCE must be one of hourly, twicedaily, daily")
	}
	switch strings.ToLower(strings.TrimSpace(c.PublishMode)) {
	case "draft", "publish":
	default:
		return fmt.Errorf("PUBLISH_MODE must be draft or publish")
	}
	if c.ImageMinWidth < 0 || c.ImageMinHeight < 0 {
		return fmt.Errorf("image minimum dimensions must not be negative")
	}
	return nil
}

// SourceKeys returns the enabled source keys, trimmed, lowercased, deduplicated.
func (c *Config) SourceKeys() []string {
	return splitCSV(c.Sources, true)
}

// BlocklistTerms returns the configured title blocklist terms.
func (c *Config) BlocklistTerms() []string {
	return splitCSV(c.TitleBlocklist, false)
}

// PublishLive reports whether the configuration allows publishing live posts.
func (c *Config) PublishLive() bool {
	return strings.EqualFold(strings.TrimSpace(c.PublishMode), "publish")
}

func splitCSV(raw string, lower bool) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if lower {
			value = strings.ToLower(value)
		}
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}

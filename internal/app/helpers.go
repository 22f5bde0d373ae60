package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/cli"
	"github.com/moodworks/autopub/internal/cms"
	"github.com/moodworks/autopub/internal/config"
	"github.com/moodworks/autopub/internal/db"
	"github.com/moodworks/autopub/internal/dedup"
	"github.com/moodworks/autopub/internal/feeds"
	"github.com/moodworks/autopub/internal/fetch"
	"github.com/moodworks/autopub/internal/llm"
	"github.com/moodworks/autopub/internal/logging"
	"github.com/moodworks/autopub/internal/pipeline"
	"github.com/moodworks/autopub/internal/runner"
)

// bootstrap loads the environment, configuration and logger shared by every
// command.
func bootstrap(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// buildRunner wires the full pipeline against the shared pool.
func buildRunner(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) *runner.Runner {
	client := fetch.NewClient(fetch.Options{})
	feeder := feeds.NewFetcher(client, logger)
	engine := dedup.NewEngine(pool, logger)

	service := llm.NewClient(llm.Options{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		Temperature: cfg.Temperature,
	}, logger)

	site := cms.NewClient(cfg.CMSBaseURL, cfg.CMSUsername, cfg.CMSAppPassword, logger)

	stages := runner.Stages{
		Planner:    pipeline.NewPlanner(service, logger),
		Writer:     pipeline.NewWriter(service, logger),
		Editor:     pipeline.NewEditor(service, logger),
		Translator: pipeline.NewTranslator(service, cfg.SiteLanguage, logger),
		Images:     pipeline.NewImages(client, logger),
		Publisher:  pipeline.NewPublisher(site, pool, logger),
	}

	return runner.New(cfg, feeder, client, engine, stages, pool, logger)
}

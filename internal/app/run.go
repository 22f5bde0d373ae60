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
	"github.com/moodworks/autopub/internal/runner"
)

func runOnce(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	limit := fs.Int("limit", 0, "Override MAX_PER_RUN for this run (0 keeps the configured value)")
	source := fs.String("source", "", "Restrict the run to one source key")
	timeout := fs.Duration("timeout", 30*time.Minute, "Overall run timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *limit < 0 {
		fmt.Fprintln(os.Stderr, "--limit must be >= 0")
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := buildRunner(cfg, pool, logger).RunBatch(ctx, runner.RunContext{
		Limit:   *limit,
		Source:  *source,
		Trigger: "cli",
	})
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		return 1
	}

	fmt.Printf("Run %s finished: fetched=%d published=%d updated=%d skipped=%d failed=%d\n",
		result.RunUUID, result.Fetched, result.Published, result.Updated, result.Skipped, result.Failed)
	return 0
}

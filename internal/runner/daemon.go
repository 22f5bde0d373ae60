package runner

import (
	"context"
	"time"

	"github.com/moodworks/autopub/internal/config"
)

// CadenceInterval maps a configured cadence to its wall-clock interval.
// Unknown values fall back to daily.
func CadenceInterval(cadence string) time.Duration {
	switch cadence {
	case config.CadenceHourly:
		return time.Hour
	case config.CadenceTwiceDaily:
		return 12 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// RunForever executes one run immediately and then on the configured cadence
// until the context is cancelled.
func (r *Runner) RunForever(ctx context.Context) error {
	interval := CadenceInterval(r.cfg.Cadence)
	r.logger.Info().
		Str("cadence", r.cfg.Cadence).
		Dur("interval", interval).
		Msg("daemon started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunBatch(ctx, RunContext{Trigger: "cron"}); err != nil {
			r.logger.Error().Err(err).Msg("scheduled run failed")
		}

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("daemon stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

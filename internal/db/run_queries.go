package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunListItem is used by the runs admin endpoint and CLI command.
type RunListItem struct {
	RunUUID        string     `json:"run_uuid"`
	Trigger        string     `json:"trigger"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Status         string     `json:"status"`
	ItemsFetched   int        `json:"items_fetched"`
	ItemsPublished int        `json:"items_published"`
	ItemsUpdated   int        `json:"items_updated"`
	ItemsSkipped   int        `json:"items_skipped"`
	ItemsFailed    int        `json:"items_failed"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
}

// RunCounters is the per-run tally recorded when a run finishes.
type RunCounters struct {
	Fetched   int
	Published int
	Updated   int
	Skipped   int
	Failed    int
}

// StartRun inserts a running run-log row and returns its id and uuid.
func (p *Pool) StartRun(ctx context.Context, trigger string) (int64, string, error) {
	if trigger == "" {
		trigger = "cron"
	}

	runUUID := uuid.NewString()

	const q = `
INSERT INTO autopub.run_logs (run_uuid, trigger, status)
VALUES ($1, $2, 'running')
RETURNING run_log_id
`
	var runLogID int64
	if err := p.QueryRow(ctx, q, runUUID, trigger).Scan(&runLogID); err != nil {
		return 0, "", fmt.Errorf("insert run log: %w", err)
	}
	return runLogID, runUUID, nil
}

// FinishRun closes a run-log row with its final status and counters.
func (p *Pool) FinishRun(ctx context.Context, runLogID int64, status string, counters RunCounters, runErr error) error {
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}

	const q = `
UPDATE autopub.run_logs
SET finished_at = now(),
    status = $2,
    items_fetched = $3,
    items_published = $4,
    items_updated = $5,
    items_skipped = $6,
    items_failed = $7,
    error_message = $8
WHERE run_log_id = $1
`
	tag, err := p.Exec(ctx, q, runLogID, status,
		counters.Fetched, counters.Published, counters.Updated, counters.Skipped, counters.Failed,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("finish run log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no run log row for run_log_id=%d", runLogID)
	}
	return nil
}

// ListRuns lists run logs newest-first.
func (p *Pool) ListRuns(ctx context.Context, limit int) ([]RunListItem, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT
	l.run_uuid::text,
	l.trigger,
	l.started_at,
	l.finished_at,
	l.status,
	l.items_fetched,
	l.items_published,
	l.items_updated,
	l.items_skipped,
	l.items_failed,
	l.error_message
FROM autopub.run_logs l
ORDER BY l.started_at DESC, l.run_log_id DESC
LIMIT $1
`
	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query run logs: %w", err)
	}
	defer rows.Close()

	items := make([]RunListItem, 0, limit)
	for rows.Next() {
		var row RunListItem
		if err := rows.Scan(
			&row.RunUUID,
			&row.Trigger,
			&row.StartedAt,
			&row.FinishedAt,
			&row.Status,
			&row.ItemsFetched,
			&row.ItemsPublished,
			&row.ItemsUpdated,
			&row.ItemsSkipped,
			&row.ItemsFailed,
			&row.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan run log row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run log rows: %w", err)
	}
	return items, nil
}

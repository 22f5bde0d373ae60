package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moodworks/autopub/internal/dedup"
	"github.com/moodworks/autopub/internal/globaltime"
)

// RecordListItem is used by the records admin endpoint and CLI command.
type RecordListItem struct {
	RecordUUID     string    `json:"record_uuid"`
	PostID         int64     `json:"post_id"`
	Title          string    `json:"title"`
	SourceKey      string    `json:"source_key"`
	SourceURL      string    `json:"source_url"`
	Status         string    `json:"status"`
	PublishedAtUTC time.Time `json:"published_at_utc"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SaveRecordParams describes a publication record upsert.
type SaveRecordParams struct {
	PostID         int64
	Fingerprint    string
	Title          string
	TitleEmbedding dedup.Vector
	SourceKey      string
	SourceURL      string
	Status         string
	PublishedAtUTC time.Time
}

// FindByFingerprint returns the post bound to an exact source fingerprint.
func (p *Pool) FindByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error) {
	const q = `
SELECT r.post_id
FROM autopub.publication_records r
WHERE r.fingerprint = $1
LIMIT 1
`
	var postID int64
	if err := p.QueryRow(ctx, q, fingerprint).Scan(&postID); err != nil {
		if IsNoRows(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query record by fingerprint: %w", err)
	}
	return postID, true, nil
}

// RecentTitles lists the newest stored titles with their age in whole days.
func (p *Pool) RecentTitles(ctx context.Context, limit int) ([]dedup.TitleRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT r.post_id, r.title, r.published_at_utc
FROM autopub.publication_records r
ORDER BY r.created_at DESC, r.record_id DESC
LIMIT $1
`
	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent titles: %w", err)
	}
	defer rows.Close()

	now := globaltime.Now()
	records := make([]dedup.TitleRecord, 0, limit)
	for rows.Next() {
		var (
			record      dedup.TitleRecord
			publishedAt time.Time
		)
		if err := rows.Scan(&record.PostID, &record.Title, &publishedAt); err != nil {
			return nil, fmt.Errorf("scan recent title row: %w", err)
		}
		ageDays := int(now.Sub(publishedAt).Hours() / 24)
		record.AgeDays = &ageDays
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent title rows: %w", err)
	}
	return records, nil
}

// RecentEmbeddings lists the newest stored title embeddings. Rows without an
// embedding are skipped, so older records from before embeddings were enabled
// do not break the scan.
func (p *Pool) RecentEmbeddings(ctx context.Context, limit int) ([]dedup.EmbeddingRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT r.post_id, r.title_embedding
FROM autopub.publication_records r
WHERE r.title_embedding IS NOT NULL
ORDER BY r.created_at DESC, r.record_id DESC
LIMIT $1
`
	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent embeddings: %w", err)
	}
	defer rows.Close()

	records := make([]dedup.EmbeddingRecord, 0, limit)
	for rows.Next() {
		var (
			postID int64
			raw    []byte
		)
		if err := rows.Scan(&postID, &raw); err != nil {
			return nil, fmt.Errorf("scan recent embedding row: %w", err)
		}
		var vector dedup.Vector
		if err := json.Unmarshal(raw, &vector); err != nil {
			continue
		}
		records = append(records, dedup.EmbeddingRecord{PostID: postID, Vector: vector})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent embedding rows: %w", err)
	}
	return records, nil
}

// SaveRecord upserts the publication record for a fingerprint.
func (p *Pool) SaveRecord(ctx context.Context, params SaveRecordParams) error {
	if params.Fingerprint == "" {
		return fmt.Errorf("fingerprint must not be empty")
	}
	if params.PostID <= 0 {
		return fmt.Errorf("post id must be > 0")
	}

	var embedding any
	if len(params.TitleEmbedding) > 0 {
		raw, err := json.Marshal(params.TitleEmbedding)
		if err != nil {
			return fmt.Errorf("encode title embedding: %w", err)
		}
		embedding = raw
	}

	const q = `
INSERT INTO autopub.publication_records
	(post_id, fingerprint, title, title_embedding, source_key, source_url, status, published_at_utc)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (fingerprint) DO UPDATE SET
	post_id = EXCLUDED.post_id,
	title = EXCLUDED.title,
	title_embedding = EXCLUDED.title_embedding,
	status = EXCLUDED.status,
	updated_at = now()
`
	if _, err := p.Exec(ctx, q,
		params.PostID,
		params.Fingerprint,
		params.Title,
		embedding,
		params.SourceKey,
		params.SourceURL,
		params.Status,
		params.PublishedAtUTC.UTC(),
	); err != nil {
		return fmt.Errorf("upsert publication record: %w", err)
	}
	return nil
}

// TouchRecord marks an existing post's record as updated, refreshing the
// clock the recency window is measured against.
func (p *Pool) TouchRecord(ctx context.Context, postID int64) error {
	const q = `
UPDATE autopub.publication_records
SET status = 'updated', updated_at = now()
WHERE post_id = $1
`
	tag, err := p.Exec(ctx, q, postID)
	if err != nil {
		return fmt.Errorf("touch publication record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no publication record for post_id=%d", postID)
	}
	return nil
}

// ListRecords lists publication records newest-first for the admin surface.
func (p *Pool) ListRecords(ctx context.Context, limit, offset int) ([]RecordListItem, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must be >= 0")
	}

	const q = `
SELECT
	r.record_uuid::text,
	r.post_id,
	r.title,
	r.source_key,
	r.source_url,
	r.status,
	r.published_at_utc,
	r.updated_at
FROM autopub.publication_records r
ORDER BY r.created_at DESC, r.record_id DESC
LIMIT $1 OFFSET $2
`
	rows, err := p.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query publication records: %w", err)
	}
	defer rows.Close()

	items := make([]RecordListItem, 0, limit)
	for rows.Next() {
		var row RecordListItem
		if err := rows.Scan(
			&row.RecordUUID,
			&row.PostID,
			&row.Title,
			&row.SourceKey,
			&row.SourceURL,
			&row.Status,
			&row.PublishedAtUTC,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan publication record row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publication record rows: %w", err)
	}
	return items, nil
}

// CountRecords returns the total number of publication records.
func (p *Pool) CountRecords(ctx context.Context) (int64, error) {
	const q = `SELECT count(*) FROM autopub.publication_records`
	var total int64
	if err := p.QueryRow(ctx, q).Scan(&total); err != nil {
		return 0, fmt.Errorf("count publication records: %w", err)
	}
	return total, nil
}

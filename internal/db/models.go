package db

import (
	"encoding/json"
	"time"
)

// PublicationRecord maps autopub.publication_records. One row per post the
// pipeline has ever created or updated on the site; the dedup engine reads
// this table, the publisher writes it.
type PublicationRecord struct {
	RecordID       int64           `gorm:"column:record_id;primaryKey;autoIncrement"`
	RecordUUID     string          `gorm:"column:record_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	PostID         int64           `gorm:"column:post_id;type:bigint;not null"`
	Fingerprint    string          `gorm:"column:fingerprint;type:text;not null;unique"`
	Title          string          `gorm:"column:title;type:text;not null"`
	TitleEmbedding json.RawMessage `gorm:"column:title_embedding;type:jsonb"`
	SourceKey      string          `gorm:"column:source_key;type:text;not null"`
	SourceURL      string          `gorm:"column:source_url;type:text;not null"`
	Status         string          `gorm:"column:status;type:text;not null;default:draft"`
	PublishedAtUTC time.Time       `gorm:"column:published_at_utc;type:timestamptz;not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (PublicationRecord) TableName() string { return "autopub.publication_records" }

// RunLog maps autopub.run_logs.
type RunLog struct {
	RunLogID       int64      `gorm:"column:run_log_id;primaryKey;autoIncrement"`
	RunUUID        string     `gorm:"column:run_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Trigger        string     `gorm:"column:trigger;type:text;not null;default:cron"`
	StartedAt      time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt     *time.Time `gorm:"column:finished_at;type:timestamptz"`
	Status         string     `gorm:"column:status;type:text;not null;default:running"`
	ItemsFetched   int        `gorm:"column:items_fetched;type:integer;not null;default:0"`
	ItemsPublished int        `gorm:"column:items_published;type:integer;not null;default:0"`
	ItemsUpdated   int        `gorm:"column:items_updated;type:integer;not null;default:0"`
	ItemsSkipped   int        `gorm:"column:items_skipped;type:integer;not null;default:0"`
	ItemsFailed    int        `gorm:"column:items_failed;type:integer;not null;default:0"`
	ErrorMessage   *string    `gorm:"column:error_message;type:text"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (RunLog) TableName() string { return "autopub.run_logs" }

func autoMigrateModels() []any {
	return []any{
		&PublicationRecord{},
		&RunLog{},
	}
}

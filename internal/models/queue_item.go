package models

import "time"

// QueueItemStatus represents the lifecycle state of an inbound queue item
type QueueItemStatus string

const (
	QueueStatusPending    QueueItemStatus = "pending"
	QueueStatusProcessing QueueItemStatus = "processing"
	QueueStatusCompleted  QueueItemStatus = "completed"
	QueueStatusFailed     QueueItemStatus = "failed"
)

// QueueItem is one inbound message awaiting processing.
// Exactly one QueueItem reaches completed per unique message id; attempts only
// ever increases. Items stuck in processing past the staleness threshold are
// swept back to pending.
type QueueItem struct {
	MessageID   string          `json:"message_id" badgerhold:"key"`
	TenantID    string          `json:"tenant_id,omitempty" badgerhold:"index"` // empty until resolved
	BlobBucket  string          `json:"blob_bucket"`
	BlobPath    string          `json:"blob_path"`
	Status      QueueItemStatus `json:"status" badgerhold:"index"`
	Attempts    int             `json:"attempts"`
	LastError   string          `json:"last_error,omitempty"`
	QueuedAt    time.Time       `json:"queued_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"` // processing-started, cleared on reset
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// QueueStorage implements the QueueStorage interface for Badger.
// ClaimBatch and the status transitions run under the store's single-writer
// mutex inside one badger transaction, which makes claiming linearizable:
// concurrent callers never receive overlapping items.
type QueueStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewQueueStorage creates a new QueueStorage instance
func NewQueueStorage(db *BadgerDB, logger arbor.ILogger) interfaces.QueueStorage {
	return &QueueStorage{
		db:     db,
		logger: logger,
	}
}

// Enqueue inserts a pending item. Idempotent on message id.
func (s *QueueStorage) Enqueue(ctx context.Context, item *models.QueueItem) error {
	if item.MessageID == "" {
		return fmt.Errorf("message id is required")
	}

	s.db.Lock()
	defer s.db.Unlock()

	var existing models.QueueItem
	err := s.db.Store().Get(item.MessageID, &existing)
	if err == nil {
		// Already queued in some status - at-least-once upstream delivery
		return nil
	}
	if err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to check existing queue item: %w", err)
	}

	if item.Status == "" {
		item.Status = models.QueueStatusPending
	}
	if item.QueuedAt.IsZero() {
		item.QueuedAt = time.Now().UTC()
	}

	if err := s.db.Store().Insert(item.MessageID, item); err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}
	return nil
}

// ClaimBatch atomically claims up to n pending items, oldest first
func (s *QueueStorage) ClaimBatch(ctx context.Context, n int) ([]*models.QueueItem, error) {
	if n <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}

	s.db.Lock()
	defer s.db.Unlock()

	var claimed []*models.QueueItem
	now := time.Now().UTC()

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		var pending []models.QueueItem
		query := badgerhold.Where("Status").Eq(models.QueueStatusPending).
			SortBy("QueuedAt").Limit(n)
		if err := s.db.Store().TxFind(txn, &pending, query); err != nil {
			return fmt.Errorf("failed to query pending items: %w", err)
		}

		for i := range pending {
			item := pending[i]
			item.Status = models.QueueStatusProcessing
			started := now
			item.StartedAt = &started
			item.Attempts++
			if err := s.db.Store().TxUpdate(txn, item.MessageID, &item); err != nil {
				return fmt.Errorf("failed to mark item processing: %w", err)
			}
			claimed = append(claimed, &item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(claimed) == 0 {
		return nil, interfaces.ErrNoItems
	}
	return claimed, nil
}

// Complete marks an item completed
func (s *QueueStorage) Complete(ctx context.Context, messageID string) error {
	s.db.Lock()
	defer s.db.Unlock()

	var item models.QueueItem
	if err := s.db.Store().Get(messageID, &item); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to get queue item: %w", err)
	}

	now := time.Now().UTC()
	item.Status = models.QueueStatusCompleted
	item.ProcessedAt = &now
	item.LastError = ""

	if err := s.db.Store().Update(messageID, &item); err != nil {
		return fmt.Errorf("failed to complete queue item: %w", err)
	}
	return nil
}

// Fail records the error and either re-queues or permanently fails the item
func (s *QueueStorage) Fail(ctx context.Context, messageID string, errMsg string, maxAttempts int) error {
	s.db.Lock()
	defer s.db.Unlock()

	var item models.QueueItem
	if err := s.db.Store().Get(messageID, &item); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to get queue item: %w", err)
	}

	item.LastError = errMsg
	item.StartedAt = nil

	if item.Attempts >= maxAttempts {
		now := time.Now().UTC()
		item.Status = models.QueueStatusFailed
		item.ProcessedAt = &now
		s.logger.Warn().
			Str("message_id", messageID).
			Int("attempts", item.Attempts).
			Str("error", errMsg).
			Msg("Queue item permanently failed")
	} else {
		item.Status = models.QueueStatusPending
	}

	if err := s.db.Store().Update(messageID, &item); err != nil {
		return fmt.Errorf("failed to record item failure: %w", err)
	}
	return nil
}

// ResetStale returns processing items whose claim is older than threshold back
// to pending, guarding against workers that crashed mid-item.
func (s *QueueStorage) ResetStale(ctx context.Context, threshold time.Duration) (int, error) {
	s.db.Lock()
	defer s.db.Unlock()

	cutoff := time.Now().UTC().Add(-threshold)
	count := 0

	err := s.db.Store().Badger().Update(func(txn *badgerdb.Txn) error {
		var processing []models.QueueItem
		query := badgerhold.Where("Status").Eq(models.QueueStatusProcessing)
		if err := s.db.Store().TxFind(txn, &processing, query); err != nil {
			return fmt.Errorf("failed to query processing items: %w", err)
		}

		for i := range processing {
			item := processing[i]
			if item.StartedAt == nil || item.StartedAt.Before(cutoff) {
				item.Status = models.QueueStatusPending
				item.StartedAt = nil
				if err := s.db.Store().TxUpdate(txn, item.MessageID, &item); err != nil {
					return fmt.Errorf("failed to reset stale item: %w", err)
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info().Int("count", count).Msg("Reset stale processing items to pending")
	}
	return count, nil
}

// Get fetches an item by message id
func (s *QueueStorage) Get(ctx context.Context, messageID string) (*models.QueueItem, error) {
	var item models.QueueItem
	if err := s.db.Store().Get(messageID, &item); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}
	return &item, nil
}

// SetTenant records the resolved owning tenant on an item
func (s *QueueStorage) SetTenant(ctx context.Context, messageID, tenantID string) error {
	s.db.Lock()
	defer s.db.Unlock()

	var item models.QueueItem
	if err := s.db.Store().Get(messageID, &item); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to get queue item: %w", err)
	}

	item.TenantID = tenantID
	if err := s.db.Store().Update(messageID, &item); err != nil {
		return fmt.Errorf("failed to set tenant on queue item: %w", err)
	}
	return nil
}

// CountByStatus reports backlog depth for the operational surface
func (s *QueueStorage) CountByStatus(ctx context.Context, status models.QueueItemStatus) (int, error) {
	count, err := s.db.Store().Count(&models.QueueItem{}, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count queue items: %w", err)
	}
	return int(count), nil
}

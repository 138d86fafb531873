package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// LoadStorage implements the LoadStorage interface for Badger
type LoadStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// loadContent archives a canonical payload keyed by fingerprint
type loadContent struct {
	Fingerprint string    `badgerhold:"key"`
	Payload     []byte    `json:"payload"`
	Version     int       `json:"version"`
	SizeBytes   int       `json:"size_bytes"`
	Provider    string    `json:"provider"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewLoadStorage creates a new LoadStorage instance
func NewLoadStorage(db *BadgerDB, logger arbor.ILogger) interfaces.LoadStorage {
	return &LoadStorage{
		db:     db,
		logger: logger,
	}
}

// GetOrCreateByMessageID upserts keyed on message id. The single-writer mutex
// makes this the idempotency point: at most one LoadRecord exists per message
// id however many times the message is delivered.
func (s *LoadStorage) GetOrCreateByMessageID(ctx context.Context, record *models.LoadRecord) (*models.LoadRecord, bool, error) {
	if record.MessageID == "" {
		return nil, false, fmt.Errorf("message id is required")
	}

	s.db.Lock()
	defer s.db.Unlock()

	var existing []models.LoadRecord
	err := s.db.Store().Find(&existing, badgerhold.Where("MessageID").Eq(record.MessageID).Limit(1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to query load by message id: %w", err)
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return nil, false, fmt.Errorf("failed to insert load record: %w", err)
	}
	return record, true, nil
}

// Update rewrites an existing record
func (s *LoadStorage) Update(ctx context.Context, record *models.LoadRecord) error {
	if err := s.db.Store().Update(record.ID, record); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to update load record: %w", err)
	}
	return nil
}

// Get fetches a record by load id
func (s *LoadStorage) Get(ctx context.Context, id string) (*models.LoadRecord, error) {
	var record models.LoadRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get load record: %w", err)
	}
	return &record, nil
}

// FindOriginalByFingerprint returns the earliest non-duplicate record in the
// tenant with this fingerprint since the given time
func (s *LoadStorage) FindOriginalByFingerprint(ctx context.Context, tenantID, fingerprint string, since time.Time) (*models.LoadRecord, error) {
	var records []models.LoadRecord
	query := badgerhold.Where("Fingerprint").Eq(fingerprint).And("TenantID").Eq(tenantID)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query loads by fingerprint: %w", err)
	}

	var candidates []models.LoadRecord
	for _, r := range records {
		if r.DedupStatus == models.DedupDuplicate {
			continue
		}
		if r.ReceivedAt.Before(since) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil, interfaces.ErrNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ReceivedAt.Before(candidates[j].ReceivedAt)
	})
	return &candidates[0], nil
}

// FindByLegacyHash returns the most recent record in the tenant with this
// legacy hash since the given time
func (s *LoadStorage) FindByLegacyHash(ctx context.Context, tenantID, legacyHash string, since time.Time) (*models.LoadRecord, error) {
	var records []models.LoadRecord
	query := badgerhold.Where("LegacyHash").Eq(legacyHash).And("TenantID").Eq(tenantID)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query loads by legacy hash: %w", err)
	}

	var candidates []models.LoadRecord
	for _, r := range records {
		if r.ReceivedAt.Before(since) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil, interfaces.ErrNotFound
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ReceivedAt.After(candidates[j].ReceivedAt)
	})
	return &candidates[0], nil
}

// UpsertLoadContent archives a canonical payload keyed by fingerprint
func (s *LoadStorage) UpsertLoadContent(ctx context.Context, fingerprint string, payload []byte, version int, provider string) error {
	if fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}

	content := loadContent{
		Fingerprint: fingerprint,
		Payload:     payload,
		Version:     version,
		SizeBytes:   len(payload),
		Provider:    provider,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.db.Store().Upsert(fingerprint, &content); err != nil {
		return fmt.Errorf("failed to upsert load content: %w", err)
	}
	return nil
}

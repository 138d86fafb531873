package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// CooldownStorage implements the atomic should-trigger decision.
// The read-compare-write runs under the single-writer mutex so duplicate
// deliveries racing through concurrent workers cannot both trigger.
type CooldownStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCooldownStorage creates a new CooldownStorage instance
func NewCooldownStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CooldownStorage {
	return &CooldownStorage{
		db:     db,
		logger: logger,
	}
}

func cooldownKey(tenantID, huntID, fingerprint string) string {
	return strings.Join([]string{tenantID, huntID, fingerprint}, "|")
}

// ShouldTrigger decides whether a match may fire for (tenant, hunt,
// fingerprint) and records the trigger when allowed, in one atomic step.
// The cooldown is a minimum: once elapsed time strictly exceeds it the
// trigger is always allowed, however long it has been.
func (s *CooldownStorage) ShouldTrigger(ctx context.Context, tenantID, huntID, fingerprint string, receivedAt time.Time, cooldownSeconds int, loadID string) (bool, error) {
	if tenantID == "" || huntID == "" || fingerprint == "" {
		return false, fmt.Errorf("tenant, hunt and fingerprint are required")
	}
	if receivedAt.IsZero() {
		return false, fmt.Errorf("received-at timestamp is required")
	}

	s.db.Lock()
	defer s.db.Unlock()

	key := cooldownKey(tenantID, huntID, fingerprint)

	var state models.CooldownState
	err := s.db.Store().Get(key, &state)
	if err != nil && err != badgerhold.ErrNotFound {
		return false, fmt.Errorf("failed to read cooldown state: %w", err)
	}

	if err == nil {
		elapsed := receivedAt.Sub(state.LastTriggeredAt)
		cooldown := time.Duration(cooldownSeconds) * time.Second
		// Boundary is exclusive: elapsed must strictly exceed the cooldown
		if elapsed <= cooldown {
			return false, nil
		}
	}

	state = models.CooldownState{
		Key:             key,
		TenantID:        tenantID,
		HuntID:          huntID,
		Fingerprint:     fingerprint,
		LastTriggeredAt: receivedAt,
		LastLoadID:      loadID,
	}
	if err := s.db.Store().Upsert(key, &state); err != nil {
		return false, fmt.Errorf("failed to record cooldown trigger: %w", err)
	}
	return true, nil
}

// Get returns the cooldown state for a (tenant, hunt, fingerprint) triple
func (s *CooldownStorage) Get(ctx context.Context, tenantID, huntID, fingerprint string) (*models.CooldownState, error) {
	var state models.CooldownState
	if err := s.db.Store().Get(cooldownKey(tenantID, huntID, fingerprint), &state); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cooldown state: %w", err)
	}
	return &state, nil
}

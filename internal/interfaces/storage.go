package interfaces

import (
	"context"
	"time"

	"github.com/haulwire/loadscout/internal/models"
)

// QueueStorage manages the inbound message queue. ClaimBatch is the single
// shared-mutation point requiring true atomicity: no two callers may receive
// the same item, and claimed items transition to processing in the same step.
type QueueStorage interface {
	// Enqueue inserts a pending item. Idempotent on message id: enqueueing a
	// message id that already exists in any status is a no-op.
	Enqueue(ctx context.Context, item *models.QueueItem) error

	// ClaimBatch atomically claims up to n pending items, oldest first, and
	// marks them processing. Returns ErrNoItems when the backlog is empty.
	ClaimBatch(ctx context.Context, n int) ([]*models.QueueItem, error)

	// Complete marks an item completed
	Complete(ctx context.Context, messageID string) error

	// Fail records the error. Below the attempt ceiling the item returns to
	// pending for retry; at or beyond it the item is marked failed permanently.
	Fail(ctx context.Context, messageID string, errMsg string, maxAttempts int) error

	// ResetStale returns processing items whose claim is older than threshold
	// back to pending, reporting how many were reset.
	ResetStale(ctx context.Context, threshold time.Duration) (int, error)

	// Get fetches an item by message id
	Get(ctx context.Context, messageID string) (*models.QueueItem, error)

	// SetTenant records the resolved owning tenant on an item
	SetTenant(ctx context.Context, messageID, tenantID string) error

	// CountByStatus reports backlog depth for the operational surface
	CountByStatus(ctx context.Context, status models.QueueItemStatus) (int, error)
}

// LoadStorage persists structured load records
type LoadStorage interface {
	// GetOrCreateByMessageID upserts keyed on message id. Returns the stored
	// record and true when this call created it; a second submission of the
	// same message id returns the existing record and false.
	GetOrCreateByMessageID(ctx context.Context, record *models.LoadRecord) (*models.LoadRecord, bool, error)

	// Update rewrites an existing record (pipeline-owned mutation)
	Update(ctx context.Context, record *models.LoadRecord) error

	// Get fetches a record by load id
	Get(ctx context.Context, id string) (*models.LoadRecord, error)

	// FindOriginalByFingerprint returns the earliest record in the tenant with
	// this fingerprint since the given time that is not itself a duplicate,
	// or ErrNotFound.
	FindOriginalByFingerprint(ctx context.Context, tenantID, fingerprint string, since time.Time) (*models.LoadRecord, error)

	// FindByLegacyHash returns the most recent record in the tenant with this
	// legacy hash since the given time, or ErrNotFound.
	FindByLegacyHash(ctx context.Context, tenantID, legacyHash string, since time.Time) (*models.LoadRecord, error)

	// UpsertLoadContent archives a canonical payload keyed by fingerprint
	UpsertLoadContent(ctx context.Context, fingerprint string, payload []byte, version int, provider string) error
}

// HuntStorage reads tenant hunt plans. The pipeline never writes plans.
type HuntStorage interface {
	ListEnabled(ctx context.Context, tenantID string) ([]*models.HuntPlan, error)
	Upsert(ctx context.Context, plan *models.HuntPlan) error // seed loading only
}

// MatchStorage persists match events
type MatchStorage interface {
	// Exists reports whether an event already exists for the (load, hunt) pair
	Exists(ctx context.Context, loadID, huntID string) (bool, error)
	Insert(ctx context.Context, event *models.MatchEvent) error
}

// GeocodeStorage is the durable tier of the geocode cache
type GeocodeStorage interface {
	Get(ctx context.Context, key string) (*models.GeocodeCacheEntry, error)
	Upsert(ctx context.Context, entry *models.GeocodeCacheEntry) error
	// IncrementHit bumps the hit counter; best-effort, errors are logged only
	IncrementHit(ctx context.Context, key string) error
	Count(ctx context.Context) (int, error)
}

// CooldownStorage owns the atomic should-trigger decision. The decision reads,
// compares and conditionally writes CooldownState in one step; callers treat
// any error as "do not trigger" (fail closed).
type CooldownStorage interface {
	ShouldTrigger(ctx context.Context, tenantID, huntID, fingerprint string, receivedAt time.Time, cooldownSeconds int, loadID string) (bool, error)
	Get(ctx context.Context, tenantID, huntID, fingerprint string) (*models.CooldownState, error)
}

// TenantStorage reads tenant records
type TenantStorage interface {
	Get(ctx context.Context, id string) (*models.Tenant, error)
	ResolveByMailbox(ctx context.Context, address string) (*models.Tenant, error)
	Upsert(ctx context.Context, tenant *models.Tenant) error // seed loading only
}

// HintStorage reads tenant parser hint packs
type HintStorage interface {
	ListForTenant(ctx context.Context, tenantID string, source string) ([]*models.HintPack, error)
	Upsert(ctx context.Context, pack *models.HintPack) error // seed loading only
}

// KeyValuePair is a stored configuration value
type KeyValuePair struct {
	Key       string    `json:"key" badgerhold:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KeyValueStorage stores flat configuration values, including per-tenant
// feature flags under "feature:<tenant>:<key>"
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// StorageManager aggregates the typed storages behind one lifecycle
type StorageManager interface {
	QueueStorage() QueueStorage
	LoadStorage() LoadStorage
	HuntStorage() HuntStorage
	MatchStorage() MatchStorage
	GeocodeStorage() GeocodeStorage
	CooldownStorage() CooldownStorage
	TenantStorage() TenantStorage
	HintStorage() HintStorage
	KeyValueStorage() KeyValueStorage

	// Ping verifies datastore connectivity for the readiness probe
	Ping(ctx context.Context) error
	Close() error
}

// BlobStorage fetches previously-stored raw message payloads. Put exists for
// the upstream ingestion stage and for tests.
type BlobStorage interface {
	Get(ctx context.Context, bucket, path string) ([]byte, error)
	Put(ctx context.Context, bucket, path string, data []byte) error
}

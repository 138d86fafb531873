package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/matching"
	"github.com/haulwire/loadscout/internal/models"
	"github.com/haulwire/loadscout/internal/storage/badger"
	"github.com/haulwire/loadscout/internal/storage/fsblob"
)

// fakeGeocode resolves a fixed city table without any external calls
type fakeGeocode struct{}

func (f *fakeGeocode) Resolve(_ context.Context, city, state string) (models.Coordinates, bool) {
	switch strings.ToLower(strings.TrimSpace(city)) {
	case "dallas":
		return models.Coordinates{Lat: 32.7767, Lng: -96.7970}, true
	case "atlanta":
		return models.Coordinates{Lat: 33.7490, Lng: -84.3880}, true
	}
	return models.Coordinates{}, false
}

func (f *fakeGeocode) ResolveCityFromZip(_ context.Context, zip string) (string, string, bool) {
	if zip == "75201" {
		return "Dallas", "TX", true
	}
	return "", "", false
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) NotifyMatch(_ context.Context, _ *models.Tenant, _ *models.LoadRecord, _ *models.HuntPlan, _ *models.MatchEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	return nil
}

type noopCredit struct{}

func (noopCredit) TriggerCheck(_ context.Context, _, _, _ string) error { return nil }

type noopFeatures struct{}

func (noopFeatures) IsEnabled(_ context.Context, _, _ string) bool { return false }

type testHarness struct {
	manager   interfaces.StorageManager
	blobs     *fsblob.Store
	processor *Processor
	notifier  *countingNotifier
	config    *common.Config
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	logger := arbor.NewLogger()

	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = t.TempDir()
	config.Pipeline.StepTimeout = "5s"

	manager, err := badger.NewManager(logger, &config.Storage.Badger)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	blobs, err := fsblob.NewStore(t.TempDir(), logger)
	require.NoError(t, err)

	notifier := &countingNotifier{}
	matcher := matching.NewService(manager, notifier, noopCredit{}, noopFeatures{}, &config.Matching, logger)
	processor := NewProcessor(blobs, manager, &fakeGeocode{}, matcher, config, logger)

	require.NoError(t, manager.TenantStorage().Upsert(context.Background(), &models.Tenant{
		ID:        "tenant-1",
		Name:      "Acme Carrier",
		Mailboxes: []string{"loads@acmecarrier.test"},
	}))

	return &testHarness{
		manager:   manager,
		blobs:     blobs,
		processor: processor,
		notifier:  notifier,
		config:    config,
	}
}

func rawMessage(messageID, subject, body string) []byte {
	msg := fmt.Sprintf("From: Jane Broker <jane@acmelogistics.test>\r\n"+
		"To: loads@acmecarrier.test\r\n"+
		"Subject: %s\r\n"+
		"Message-ID: <%s@broker.test>\r\n"+
		"Date: Mon, 19 Jan 2026 10:00:00 +0000\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"%s\r\n", subject, messageID, body)
	return []byte(msg)
}

func defaultBody() string {
	return "New load available.\r\n" +
		"Dallas, TX 75201 to Atlanta, GA\r\n" +
		"Weight: 1,200\r\n" +
		"Pickup Date: 01/19/2026\r\n"
}

// queueItem stores the raw payload and enqueues+claims one item for it
func (h *testHarness) queueItem(t *testing.T, messageID string, raw []byte) *models.QueueItem {
	t.Helper()
	ctx := context.Background()
	path := messageID + ".eml"
	require.NoError(t, h.blobs.Put(ctx, "inbound", path, raw))

	require.NoError(t, h.manager.QueueStorage().Enqueue(ctx, &models.QueueItem{
		MessageID:  messageID,
		BlobBucket: "inbound",
		BlobPath:   path,
	}))
	claimed, err := h.manager.QueueStorage().ClaimBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	return claimed[0]
}

// storedLoad fetches the persisted record for a message id
func (h *testHarness) storedLoad(t *testing.T, messageID string) *models.LoadRecord {
	t.Helper()
	record, created, err := h.manager.LoadStorage().GetOrCreateByMessageID(
		context.Background(), &models.LoadRecord{ID: "probe-" + messageID, MessageID: messageID})
	require.NoError(t, err)
	require.False(t, created, "no load persisted for %s", messageID)
	return record
}

func TestProcessItemEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.manager.HuntStorage().Upsert(ctx, &models.HuntPlan{
		ID:           "hunt-1",
		TenantID:     "tenant-1",
		Name:         "DFW sprinters",
		Enabled:      true,
		Lat:          32.7555,
		Lng:          -97.3308,
		RadiusMiles:  100,
		VehicleTypes: []string{"sprinter"},
	}))

	item := h.queueItem(t, "msg-001", rawMessage("msg-001", "Sprinter Load: Dallas, TX to Atlanta, GA", defaultBody()))
	matches, err := h.processor.ProcessItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, 1, matches)

	record := h.storedLoad(t, "msg-001")
	assert.Equal(t, "tenant-1", record.TenantID)
	assert.Equal(t, models.DedupNew, record.DedupStatus)
	assert.Equal(t, models.GeocodeOK, record.GeocodeStatus)
	assert.NotEmpty(t, record.Fingerprint)
	assert.NotEmpty(t, record.LegacyHash)
	assert.Equal(t, "Dallas", record.Parsed.OriginCity)
	assert.Equal(t, "GA", record.Parsed.DestSt)
	assert.Equal(t, "sprinter", record.Parsed.VehicleType)
	assert.InDelta(t, 32.7767, record.OriginLat, 0.001)

	assert.Eventually(t, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return h.notifier.count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProcessItemIdempotentOnRedelivery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	raw := rawMessage("msg-001", "Sprinter Load: Dallas, TX to Atlanta, GA", defaultBody())
	item := h.queueItem(t, "msg-001", raw)

	_, err := h.processor.ProcessItem(ctx, item)
	require.NoError(t, err)
	first := h.storedLoad(t, "msg-001")

	// Re-delivery of the same message id is a no-op completion.
	matches, err := h.processor.ProcessItem(ctx, item)
	require.NoError(t, err)
	assert.Zero(t, matches)

	second := h.storedLoad(t, "msg-001")
	assert.Equal(t, first.ID, second.ID)
}

func TestProcessItemFlagsDuplicate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	subject := "Sprinter Load: Dallas, TX to Atlanta, GA"
	item1 := h.queueItem(t, "msg-001", rawMessage("msg-001", subject, defaultBody()))
	_, err := h.processor.ProcessItem(ctx, item1)
	require.NoError(t, err)

	// Same content under a new message id ten minutes later.
	item2 := h.queueItem(t, "msg-002", rawMessage("msg-002", subject, defaultBody()))
	_, err = h.processor.ProcessItem(ctx, item2)
	require.NoError(t, err)

	original := h.storedLoad(t, "msg-001")
	duplicate := h.storedLoad(t, "msg-002")
	assert.Equal(t, models.DedupDuplicate, duplicate.DedupStatus)
	assert.Equal(t, original.ID, duplicate.OriginalLoadID)
	assert.Equal(t, original.Fingerprint, duplicate.Fingerprint)
}

func TestProcessItemIneligibleDedup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// No destination anywhere in subject or body.
	body := "Hot load out of Dallas.\r\nWeight: 500\r\nPickup Date: 01/19/2026\r\n"
	item := h.queueItem(t, "msg-001", rawMessage("msg-001", "Load available", body))
	_, err := h.processor.ProcessItem(ctx, item)
	require.NoError(t, err)

	record := h.storedLoad(t, "msg-001")
	assert.Equal(t, models.DedupIneligible, record.DedupStatus)
	assert.NotEmpty(t, record.DedupSkipReason)
	assert.Empty(t, record.Fingerprint)
	assert.True(t, record.HasIssues)
}

func TestProcessItemStructuralFailure(t *testing.T) {
	h := newHarness(t)
	item := h.queueItem(t, "msg-001", []byte("not an email at all"))

	_, err := h.processor.ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.ErrorIs(t, err, interfaces.ErrStructural)

	// Nothing was persisted for a structurally failed item.
	_, created, perr := h.manager.LoadStorage().GetOrCreateByMessageID(
		context.Background(), &models.LoadRecord{ID: "probe", MessageID: "msg-001"})
	require.NoError(t, perr)
	assert.True(t, created)
}

func TestProcessItemUnknownMailbox(t *testing.T) {
	h := newHarness(t)
	raw := []byte("From: someone@example.test\r\n" +
		"To: stranger@nowhere.test\r\n" +
		"Subject: Load\r\n" +
		"Content-Type: text/plain\r\n\r\nbody\r\n")
	item := h.queueItem(t, "msg-001", raw)

	_, err := h.processor.ProcessItem(context.Background(), item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tenant owns")
}

func TestProcessItemGeocodeMissStillPersists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	body := "Nowhere, ZZ to Atlanta, GA\r\nPickup Date: 01/19/2026\r\n"
	item := h.queueItem(t, "msg-001", rawMessage("msg-001", "Load: Nowhere, ZZ to Atlanta, GA", body))
	_, err := h.processor.ProcessItem(ctx, item)
	require.NoError(t, err)

	record := h.storedLoad(t, "msg-001")
	assert.Equal(t, models.GeocodeMiss, record.GeocodeStatus)
	assert.True(t, record.HasIssues)
	assert.NotEmpty(t, record.Issues)
}

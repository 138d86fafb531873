package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/models"
	"github.com/haulwire/loadscout/internal/services/status"
)

func newOrchestrator(t *testing.T, h *testHarness) (*Orchestrator, *status.Service) {
	t.Helper()
	metrics := status.NewService(arbor.NewLogger())
	o := NewOrchestrator(h.manager, h.processor, metrics, &h.config.Pipeline, arbor.NewLogger())
	return o, metrics
}

// enqueue stores a payload and enqueues it without claiming, so the
// orchestrator's own ClaimBatch is exercised
func (h *testHarness) enqueue(t *testing.T, messageID string, raw []byte) {
	t.Helper()
	ctx := context.Background()
	path := messageID + ".eml"
	require.NoError(t, h.blobs.Put(ctx, "inbound", path, raw))
	require.NoError(t, h.manager.QueueStorage().Enqueue(ctx, &models.QueueItem{
		MessageID:  messageID,
		BlobBucket: "inbound",
		BlobPath:   path,
	}))
}

func TestRunBatchCompletesItems(t *testing.T) {
	h := newHarness(t)
	o, metrics := newOrchestrator(t, h)

	h.enqueue(t, "msg-001", rawMessage("msg-001", "Sprinter Load: Dallas, TX to Atlanta, GA", defaultBody()))
	h.enqueue(t, "msg-002", rawMessage("msg-002", "Cargo Van: Dallas, TX to Austin, TX", defaultBody()))

	o.runBatch(context.Background())

	for _, id := range []string{"msg-001", "msg-002"} {
		item, err := h.manager.QueueStorage().Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.QueueStatusCompleted, item.Status, "item %s", id)
	}

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.ItemsProcessed)
	assert.Equal(t, int64(0), snap.ItemsFailed)
	assert.Equal(t, 2, snap.LastBatchSize)
}

func TestRunBatchEmptyBacklogIsQuiet(t *testing.T) {
	h := newHarness(t)
	o, metrics := newOrchestrator(t, h)

	o.runBatch(context.Background())

	snap := metrics.Snapshot()
	assert.Equal(t, int64(0), snap.ItemsProcessed)
	assert.Equal(t, 0, snap.LastBatchSize, "an empty claim records no batch")
}

func TestRunBatchFailsBrokenItemWithoutKillingBatch(t *testing.T) {
	h := newHarness(t)
	o, metrics := newOrchestrator(t, h)

	// msg-bad has a stored payload that is not a parseable message
	h.enqueue(t, "msg-bad", []byte("\x00\x01 not an email"))
	h.enqueue(t, "msg-good", rawMessage("msg-good", "Sprinter Load: Dallas, TX to Atlanta, GA", defaultBody()))

	o.runBatch(context.Background())

	bad, err := h.manager.QueueStorage().Get(context.Background(), "msg-bad")
	require.NoError(t, err)
	assert.NotEqual(t, models.QueueStatusCompleted, bad.Status)
	assert.NotEmpty(t, bad.LastError)

	good, err := h.manager.QueueStorage().Get(context.Background(), "msg-good")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusCompleted, good.Status)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ItemsProcessed)
	assert.Equal(t, int64(1), snap.ItemsFailed)
}

func TestSweepStaleRecordsResets(t *testing.T) {
	h := newHarness(t)
	o, metrics := newOrchestrator(t, h)
	ctx := context.Background()

	h.enqueue(t, "msg-001", rawMessage("msg-001", "Sprinter Load: Dallas, TX to Atlanta, GA", defaultBody()))
	claimed, err := h.manager.QueueStorage().ClaimBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// Age the claim past the staleness threshold
	h.config.Pipeline.StaleThreshold = "1ms"
	time.Sleep(5 * time.Millisecond)

	o.sweepStale(ctx)

	item, err := h.manager.QueueStorage().Get(ctx, "msg-001")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusPending, item.Status)
	assert.Equal(t, int64(1), metrics.Snapshot().StaleResets)
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/models"
	"github.com/haulwire/loadscout/internal/services/status"
)

// fakeQueue implements only what the status handler reads
type fakeQueue struct {
	counts map[models.QueueItemStatus]int
	err    error
}

func (f *fakeQueue) Enqueue(context.Context, *models.QueueItem) error { return nil }
func (f *fakeQueue) ClaimBatch(context.Context, int) ([]*models.QueueItem, error) {
	return nil, nil
}
func (f *fakeQueue) Complete(context.Context, string) error          { return nil }
func (f *fakeQueue) Fail(context.Context, string, string, int) error { return nil }
func (f *fakeQueue) ResetStale(context.Context, time.Duration) (int, error) {
	return 0, nil
}
func (f *fakeQueue) Get(context.Context, string) (*models.QueueItem, error) {
	return nil, nil
}
func (f *fakeQueue) SetTenant(context.Context, string, string) error { return nil }
func (f *fakeQueue) CountByStatus(_ context.Context, s models.QueueItemStatus) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[s], nil
}

func TestGetStatusHandler(t *testing.T) {
	svc := status.NewService(arbor.NewLogger())
	svc.RecordProcessed()
	svc.RecordMatches(2)

	h := NewStatusHandler(svc, &fakeQueue{counts: map[models.QueueItemStatus]int{
		models.QueueStatusPending:   4,
		models.QueueStatusFailed:    1,
		models.QueueStatusCompleted: 9,
	}}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetStatusHandler(rec, httptest.NewRequest("GET", "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Pipeline.ItemsProcessed)
	assert.Equal(t, int64(2), resp.Pipeline.MatchesFired)
	assert.Equal(t, 4, resp.Queue.Pending)
	assert.Equal(t, 1, resp.Queue.Failed)
	assert.Equal(t, 9, resp.Queue.Completed)
	assert.Equal(t, 0, resp.Queue.Processing)
}

func TestGetStatusHandlerCountFailureDegrades(t *testing.T) {
	h := NewStatusHandler(status.NewService(arbor.NewLogger()),
		&fakeQueue{err: errors.New("store closed")}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetStatusHandler(rec, httptest.NewRequest("GET", "/api/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code, "count failures degrade to zeros, not errors")
}

func TestGetStatusHandlerRejectsPost(t *testing.T) {
	h := NewStatusHandler(status.NewService(arbor.NewLogger()), &fakeQueue{}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetStatusHandler(rec, httptest.NewRequest("POST", "/api/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetMetricsHandlerResetsOnRead(t *testing.T) {
	svc := status.NewService(arbor.NewLogger())
	svc.RecordProcessed()
	svc.RecordProcessed()
	svc.RecordFailed()

	h := NewMetricsHandler(svc, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetMetricsHandler(rec, httptest.NewRequest("GET", "/api/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var first status.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.Equal(t, int64(2), first.ItemsProcessed)
	assert.Equal(t, int64(1), first.ItemsFailed)

	// Second scrape sees only what happened since the first
	rec = httptest.NewRecorder()
	h.GetMetricsHandler(rec, httptest.NewRequest("GET", "/api/metrics", nil))
	var second status.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, int64(0), second.ItemsProcessed)
	assert.Equal(t, int64(0), second.ItemsFailed)
}

func TestGetMetricsHandlerTextExposition(t *testing.T) {
	svc := status.NewService(arbor.NewLogger())
	svc.RecordMatches(3)

	h := NewMetricsHandler(svc, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetMetricsHandler(rec, httptest.NewRequest("GET", "/api/metrics?format=text", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "loadscout_matches_fired_total 3")
}

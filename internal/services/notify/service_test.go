package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/models"
)

func fixtures() (*models.Tenant, *models.LoadRecord, *models.HuntPlan, *models.MatchEvent) {
	tenant := &models.Tenant{ID: "tenant-1", Name: "Test Carrier"}
	load := &models.LoadRecord{
		ID:       "load_0001",
		TenantID: "tenant-1",
		Parsed: models.ParsedLoad{
			OriginCity:  "Dallas",
			OriginSt:    "TX",
			DestCity:    "Atlanta",
			DestSt:      "GA",
			VehicleType: "sprinter",
		},
	}
	hunt := &models.HuntPlan{ID: "hunt-1", Name: "DFW sprinters"}
	event := &models.MatchEvent{
		ID:            "match_1",
		TenantID:      "tenant-1",
		LoadID:        "load_0001",
		HuntID:        "hunt-1",
		DistanceMiles: 31.2,
		CreatedAt:     time.Now().UTC(),
	}
	return tenant, load, hunt, event
}

func TestNotifyMatchDelivers(t *testing.T) {
	var got matchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tenant, load, hunt, event := fixtures()
	tenant.NotifyURL = server.URL

	svc := NewService(&common.MatchingConfig{NotifyTimeout: "5s"}, arbor.NewLogger())
	require.NoError(t, svc.NotifyMatch(context.Background(), tenant, load, hunt, event))

	assert.Equal(t, "match_1", got.MatchID)
	assert.Equal(t, "Dallas", got.OriginCity)
	assert.Equal(t, "DFW sprinters", got.HuntName)
}

func TestNotifyMatchNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tenant, load, hunt, event := fixtures()
	tenant.NotifyURL = server.URL

	svc := NewService(&common.MatchingConfig{NotifyTimeout: "5s"}, arbor.NewLogger())
	err := svc.NotifyMatch(context.Background(), tenant, load, hunt, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotifyMatchNoWebhook(t *testing.T) {
	tenant, load, hunt, event := fixtures()
	svc := NewService(&common.MatchingConfig{NotifyTimeout: "5s"}, arbor.NewLogger())
	assert.NoError(t, svc.NotifyMatch(context.Background(), tenant, load, hunt, event))
}

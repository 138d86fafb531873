package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/models"
)

// Service delivers match notifications to each tenant's webhook. A tenant
// with no webhook configured gets nothing; that is not an error.
type Service struct {
	httpClient *http.Client
	logger     arbor.ILogger
}

func NewService(config *common.MatchingConfig, logger arbor.ILogger) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: config.NotifyTimeoutDuration(),
		},
		logger: logger,
	}
}

// matchPayload is the webhook body
type matchPayload struct {
	MatchID       string    `json:"match_id"`
	TenantID      string    `json:"tenant_id"`
	HuntID        string    `json:"hunt_id"`
	HuntName      string    `json:"hunt_name"`
	LoadID        string    `json:"load_id"`
	DistanceMiles float64   `json:"distance_miles"`
	OriginCity    string    `json:"origin_city,omitempty"`
	OriginState   string    `json:"origin_state,omitempty"`
	DestCity      string    `json:"dest_city,omitempty"`
	DestState     string    `json:"dest_state,omitempty"`
	VehicleType   string    `json:"vehicle_type,omitempty"`
	PickupDate    string    `json:"pickup_date,omitempty"`
	Rate          string    `json:"rate,omitempty"`
	BrokerCompany string    `json:"broker_company,omitempty"`
	MatchedAt     time.Time `json:"matched_at"`
}

// NotifyMatch POSTs the match to the tenant webhook. Non-2xx responses are
// errors so the supervised dispatch task logs them.
func (s *Service) NotifyMatch(ctx context.Context, tenant *models.Tenant, load *models.LoadRecord, hunt *models.HuntPlan, event *models.MatchEvent) error {
	if tenant == nil || tenant.NotifyURL == "" {
		s.logger.Debug().Str("match_id", event.ID).Msg("No webhook configured for tenant, skipping notification")
		return nil
	}

	payload := matchPayload{
		MatchID:       event.ID,
		TenantID:      event.TenantID,
		HuntID:        hunt.ID,
		HuntName:      hunt.Name,
		LoadID:        load.ID,
		DistanceMiles: event.DistanceMiles,
		OriginCity:    load.Parsed.OriginCity,
		OriginState:   load.Parsed.OriginSt,
		DestCity:      load.Parsed.DestCity,
		DestState:     load.Parsed.DestSt,
		VehicleType:   load.Parsed.VehicleType,
		PickupDate:    load.Parsed.PickupDate,
		Rate:          load.Parsed.Rate,
		BrokerCompany: load.Parsed.BrokerCompany,
		MatchedAt:     event.CreatedAt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tenant.NotifyURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivering notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}

	s.logger.Info().
		Str("match_id", event.ID).
		Str("tenant_id", event.TenantID).
		Msg("Match notification delivered")
	return nil
}

package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/haulwire/loadscout/internal/common"
	"github.com/haulwire/loadscout/internal/dedup"
	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// Service evaluates a geocoded, fingerprinted load against the tenant's
// enabled hunt plans and fires match events through the cooldown gate.
// Matching failures never propagate to the item pipeline; a load that parsed
// and persisted is done regardless of what happens here.
type Service struct {
	hunts     interfaces.HuntStorage
	matches   interfaces.MatchStorage
	cooldowns interfaces.CooldownStorage
	notifier  interfaces.Notifier
	credit    interfaces.CreditChecker
	features  interfaces.FeatureService
	config    *common.MatchingConfig
	logger    arbor.ILogger
}

func NewService(
	storageManager interfaces.StorageManager,
	notifier interfaces.Notifier,
	credit interfaces.CreditChecker,
	features interfaces.FeatureService,
	config *common.MatchingConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		hunts:     storageManager.HuntStorage(),
		matches:   storageManager.MatchStorage(),
		cooldowns: storageManager.CooldownStorage(),
		notifier:  notifier,
		credit:    credit,
		features:  features,
		config:    config,
		logger:    logger,
	}
}

// MatchLoad runs every enabled hunt for the load's tenant and returns how
// many match events fired. Per-hunt failures are logged and skipped; the
// load's processing is unaffected.
func (s *Service) MatchLoad(ctx context.Context, tenant *models.Tenant, load *models.LoadRecord) int {
	if tenant == nil || load == nil || load.TenantID == "" {
		return 0
	}
	if load.GeocodeStatus != models.GeocodeOK {
		s.logger.Debug().Str("load_id", load.ID).Msg("Matching skipped, load has no coordinates")
		return 0
	}

	plans, err := s.hunts.ListEnabled(ctx, load.TenantID)
	if err != nil {
		s.logger.Warn().Err(err).Str("tenant_id", load.TenantID).Msg("Listing hunt plans failed")
		return 0
	}
	if len(plans) == 0 {
		return 0
	}

	canonical := dedup.Canonicalize(&load.Parsed)

	fired := 0
	for _, hunt := range plans {
		if s.evaluateHunt(ctx, tenant, load, canonical, hunt) {
			fired++
		}
	}
	if fired > 0 {
		s.logger.Info().Str("load_id", load.ID).Int("matches", fired).Msg("Load matched hunt plans")
	}
	return fired
}

func (s *Service) evaluateHunt(ctx context.Context, tenant *models.Tenant, load *models.LoadRecord, canonical *dedup.CanonicalPayload, hunt *models.HuntPlan) bool {
	// Tenant isolation is re-checked before anything else; a cross-tenant
	// plan in the enabled list is a storage bug, never a match.
	if hunt.TenantID != load.TenantID {
		s.logger.Warn().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Hunt plan tenant mismatch, skipping")
		return false
	}
	if hunt.FloorLoadID != "" && load.ID <= hunt.FloorLoadID {
		s.logger.Debug().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Skipped, load at or below hunt floor")
		return false
	}
	if !hunt.HasCoordinates() {
		s.logger.Debug().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Skipped, hunt has no coordinates")
		return false
	}

	distance := HaversineMiles(load.OriginLat, load.OriginLng, hunt.Lat, hunt.Lng)
	if !WithinRadius(distance, hunt.RadiusMiles) {
		s.logger.Debug().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Float64("distance_miles", distance).Msg("Skipped, outside hunt radius")
		return false
	}
	if !VehicleMatches(load.Parsed.VehicleType, hunt.VehicleTypes) {
		s.logger.Debug().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Str("vehicle_type", load.Parsed.VehicleType).Msg("Skipped, vehicle type mismatch")
		return false
	}
	if hunt.MaxWeightLbs > 0 && canonical.Weight != nil && *canonical.Weight > hunt.MaxWeightLbs {
		s.logger.Debug().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Float64("weight", *canonical.Weight).Msg("Skipped, over hunt weight ceiling")
		return false
	}

	exists, err := s.matches.Exists(ctx, load.ID, hunt.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Match existence check failed, suppressing")
		return false
	}
	if exists {
		s.logger.Debug().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Skipped, match event already exists")
		return false
	}

	allowed, err := s.gateAllows(ctx, tenant, load, hunt)
	if err != nil {
		s.logger.Warn().Err(err).Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Cooldown gate unhealthy, suppressing match")
		return false
	}
	if !allowed {
		s.logger.Debug().Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Suppressed by cooldown gate")
		return false
	}

	event := &models.MatchEvent{
		ID:            common.NewMatchID(),
		TenantID:      load.TenantID,
		LoadID:        load.ID,
		HuntID:        hunt.ID,
		Fingerprint:   load.Fingerprint,
		DistanceMiles: distance,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.matches.Insert(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("load_id", load.ID).Str("hunt_id", hunt.ID).Msg("Persisting match event failed")
		return false
	}

	s.logger.Info().
		Str("load_id", load.ID).
		Str("hunt_id", hunt.ID).
		Str("hunt_name", hunt.Name).
		Float64("distance_miles", distance).
		Msg("Match event fired")

	s.dispatch(tenant, load, hunt, event)
	return true
}

// gateAllows applies the fail-closed cooldown decision. Missing required
// inputs are an error so the caller suppresses rather than double-notifying.
func (s *Service) gateAllows(ctx context.Context, tenant *models.Tenant, load *models.LoadRecord, hunt *models.HuntPlan) (bool, error) {
	if load.Fingerprint == "" {
		return false, fmt.Errorf("load has no fingerprint")
	}
	if load.ReceivedAt.IsZero() {
		return false, fmt.Errorf("load has no received-at timestamp")
	}

	cooldown := s.config.DefaultCooldownSeconds
	if tenant.DefaultCooldownSeconds > 0 {
		cooldown = tenant.DefaultCooldownSeconds
	}
	if hunt.CooldownSeconds > 0 {
		cooldown = hunt.CooldownSeconds
	}

	return s.cooldowns.ShouldTrigger(ctx, load.TenantID, hunt.ID, load.Fingerprint, load.ReceivedAt, cooldown, load.ID)
}

// dispatch hands the fired event downstream. Both calls are supervised
// background tasks so a slow or failing webhook never blocks the claim loop.
func (s *Service) dispatch(tenant *models.Tenant, load *models.LoadRecord, hunt *models.HuntPlan, event *models.MatchEvent) {
	notifyTimeout := s.config.NotifyTimeoutDuration()

	common.SafeGo(s.logger, "match-notify", func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyMatch(ctx, tenant, load, hunt, event); err != nil {
			s.logger.Warn().Err(err).Str("match_id", event.ID).Msg("Match notification failed")
		}
	})

	if s.config.CreditCheckEnabled && s.features.IsEnabled(context.Background(), load.TenantID, "credit_check") {
		brokerCompany := load.Parsed.BrokerCompany
		brokerMC := load.Parsed.BrokerMC
		common.SafeGo(s.logger, "credit-check", func() {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()
			if err := s.credit.TriggerCheck(ctx, load.TenantID, brokerCompany, brokerMC); err != nil {
				s.logger.Warn().Err(err).Str("load_id", load.ID).Msg("Credit check trigger failed")
			}
		})
	}
}

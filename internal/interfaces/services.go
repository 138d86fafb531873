package interfaces

import (
	"context"

	"github.com/haulwire/loadscout/internal/models"
)

// GeocodeService resolves city/state to coordinates. All failure modes
// collapse to found=false for the caller; the implementation logs them apart.
type GeocodeService interface {
	Resolve(ctx context.Context, city, state string) (models.Coordinates, bool)
	// ResolveCityFromZip backfills a missing city when only a zip was parsed
	ResolveCityFromZip(ctx context.Context, zip string) (city, state string, found bool)
}

// FeatureService answers per-tenant feature flag checks
type FeatureService interface {
	IsEnabled(ctx context.Context, tenantID, key string) bool
}

// Notifier delivers match events downstream. Dispatch is fire-and-forget
// relative to item completion; failures are logged, never propagated.
type Notifier interface {
	NotifyMatch(ctx context.Context, tenant *models.Tenant, load *models.LoadRecord, hunt *models.HuntPlan, event *models.MatchEvent) error
}

// CreditChecker triggers a broker credit check when a match fires. Only the
// trigger contract matters to the pipeline.
type CreditChecker interface {
	TriggerCheck(ctx context.Context, tenantID, brokerCompany, brokerMC string) error
}

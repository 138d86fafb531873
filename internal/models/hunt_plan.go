package models

import "time"

// HuntPlan is a tenant's standing search for loads. Read-only from the
// pipeline's perspective; plans are seeded from the hunts directory or managed
// elsewhere.
type HuntPlan struct {
	ID       string `json:"id" toml:"id" badgerhold:"key"`
	TenantID string `json:"tenant_id" toml:"tenant_id" badgerhold:"index"`
	Name     string `json:"name" toml:"name"`
	Enabled  bool   `json:"enabled" toml:"enabled" badgerhold:"index"`

	// Target location
	Lat         float64 `json:"lat" toml:"lat"`
	Lng         float64 `json:"lng" toml:"lng"`
	RadiusMiles float64 `json:"radius_miles" toml:"radius_miles"`

	// Equipment and capacity
	VehicleTypes []string `json:"vehicle_types" toml:"vehicle_types"`
	MaxWeightLbs float64  `json:"max_weight_lbs,omitempty" toml:"max_weight_lbs"` // 0 = no ceiling

	// Loads with a numeric suffix at or below the floor are ignored, so a
	// re-enabled hunt does not replay history.
	FloorLoadID string `json:"floor_load_id,omitempty" toml:"floor_load_id"`

	// CooldownSeconds overrides the tenant default when > 0
	CooldownSeconds int `json:"cooldown_seconds,omitempty" toml:"cooldown_seconds"`

	CreatedAt time.Time `json:"created_at" toml:"-"`
}

// HasCoordinates reports whether the hunt has a usable target location
func (h *HuntPlan) HasCoordinates() bool {
	return h.Lat != 0 || h.Lng != 0
}

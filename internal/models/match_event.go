package models

import "time"

// MatchEvent records a load matching a hunt plan. At most one active event
// exists per (load, hunt) pair; re-triggering for duplicate loads sharing a
// fingerprint is governed by the cooldown gate.
type MatchEvent struct {
	ID            string    `json:"id" badgerhold:"key"`
	TenantID      string    `json:"tenant_id" badgerhold:"index"`
	LoadID        string    `json:"load_id" badgerhold:"index"`
	HuntID        string    `json:"hunt_id" badgerhold:"index"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	DistanceMiles float64   `json:"distance_miles"`
	CreatedAt     time.Time `json:"created_at"`
}

// CooldownState tracks the last trigger per (tenant, hunt, fingerprint).
// Mutated only through the atomic should-trigger decision.
type CooldownState struct {
	Key             string    `json:"key" badgerhold:"key"` // tenant|hunt|fingerprint
	TenantID        string    `json:"tenant_id"`
	HuntID          string    `json:"hunt_id"`
	Fingerprint     string    `json:"fingerprint"`
	LastTriggeredAt time.Time `json:"last_triggered_at"`
	LastLoadID      string    `json:"last_load_id"`
}

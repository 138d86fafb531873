package models

import "time"

// GeocodeCacheEntry memoizes one location lookup. Created on first successful
// resolve, hit count updated on every subsequent hit, never deleted by the
// pipeline.
type GeocodeCacheEntry struct {
	Key       string    `json:"key" badgerhold:"key"` // normalized "city, st"
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	HitCount  int64     `json:"hit_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Coordinates is a resolved lat/lng pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

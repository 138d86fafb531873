// Package common provides shared utilities and default configuration.
package common

import "time"

// Pipeline defaults
const (
	DefaultBatchSize      = 25
	DefaultConcurrency    = 5
	DefaultMaxAttempts    = 5
	DefaultPollInterval   = 5 * time.Second
	DefaultStepTimeout    = 30 * time.Second
	DefaultStaleThreshold = 5 * time.Minute

	// DefaultStaleSweepSchedule reclaims items stuck in processing
	DefaultStaleSweepSchedule = "@every 1m"
)

// Dedup defaults
const (
	// DefaultFingerprintWindow bounds the lookback for strict duplicate detection
	DefaultFingerprintWindow = 7 * 24 * time.Hour

	// DefaultLegacyHashWindow bounds the lookback for loose update detection
	DefaultLegacyHashWindow = 48 * time.Hour

	// DefaultGraceWindow extends absent or already-expired load expirations
	DefaultGraceWindow = 6 * time.Hour
)

// Matching defaults
const (
	// DefaultCooldownSeconds applies when neither the hunt nor the tenant
	// declares a cooldown
	DefaultCooldownSeconds = 300
)

// Geocode defaults
const (
	DefaultGeocodeTimeout   = 15 * time.Second
	DefaultGeocodeRateLimit = 5 // requests per second
	DefaultGeocodeMemTTL    = 30 * time.Minute
)

// ParseDurationOr parses a duration string, falling back to def when the
// string is empty or invalid.
func ParseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

package dedup

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// LegacyHash computes the looser update-detection hash over route, pickup
// date, order number, and equipment only. Two postings that differ in rate or
// notes but share this hash are treated as an update to the same load, within
// a shorter lookback window than the strict fingerprint.
func LegacyHash(c *CanonicalPayload) string {
	parts := []string{
		orEmpty(c.OriginCity),
		orEmpty(c.OriginSt),
		orEmpty(c.DestCity),
		orEmpty(c.DestSt),
		orEmpty(c.PickupDate),
		orEmpty(c.OrderNumber),
		orEmpty(c.VehicleType),
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(parts, "|")))
}

func orEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

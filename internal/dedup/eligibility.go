package dedup

// Dedup skip reason codes, recorded on the load when eligibility fails.
const (
	ReasonMissingOrigin      = "missing_origin_location"
	ReasonMissingDestination = "missing_destination_location"
	ReasonMissingBroker      = "missing_broker_identity"
	ReasonMissingPickupDate  = "missing_pickup_date"
)

// IsDedupEligible reports whether a canonical payload carries enough identity
// to be compared against history. Incomplete loads are never deduped; a
// false-positive duplicate is worse than a missed one. The returned reason is
// empty when eligible.
func IsDedupEligible(c *CanonicalPayload) (bool, string) {
	if c.OriginCity == nil || c.OriginSt == nil {
		return false, ReasonMissingOrigin
	}
	if c.DestCity == nil || c.DestSt == nil {
		return false, ReasonMissingDestination
	}
	if c.BrokerCompany == nil && c.BrokerName == nil && c.BrokerEmail == nil && c.BrokerMC == nil {
		return false, ReasonMissingBroker
	}
	if c.PickupDate == nil {
		return false, ReasonMissingPickupDate
	}
	return true, ""
}

package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FingerprintVersion tags every fingerprint with the canonicalization rule
// revision that produced it. Bump it whenever a normalizer changes so new
// fingerprints never silently collide with old ones.
const FingerprintVersion = 1

// Serialize renders a canonical payload with keys sorted at every nesting
// level, so the bytes are deterministic regardless of input field order.
// Absent fields are omitted entirely.
func Serialize(c *CanonicalPayload) ([]byte, error) {
	// json.Marshal emits map keys in sorted order at every level.
	return json.Marshal(payloadMap(c))
}

// Fingerprint computes the strict-match digest of a canonical payload,
// prefixed with the rule version.
func Fingerprint(c *CanonicalPayload) (string, error) {
	raw, err := Serialize(c)
	if err != nil {
		return "", fmt.Errorf("serializing canonical payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("v%d:%s", FingerprintVersion, hex.EncodeToString(sum[:])), nil
}

func payloadMap(c *CanonicalPayload) map[string]any {
	m := map[string]any{}
	putString(m, "broker_company", c.BrokerCompany)
	putString(m, "broker_name", c.BrokerName)
	putString(m, "broker_email", c.BrokerEmail)
	putString(m, "broker_mc", c.BrokerMC)
	putString(m, "order_number", c.OrderNumber)
	putString(m, "origin_city", c.OriginCity)
	putString(m, "origin_state", c.OriginSt)
	putString(m, "origin_zip", c.OriginZip)
	putString(m, "dest_city", c.DestCity)
	putString(m, "dest_state", c.DestSt)
	putString(m, "dest_zip", c.DestZip)
	putString(m, "pickup_date", c.PickupDate)
	putString(m, "delivery_date", c.DeliveryDate)
	putString(m, "vehicle_type", c.VehicleType)
	putFloat(m, "weight", c.Weight)
	putFloat(m, "pieces", c.Pieces)
	putFloat(m, "rate", c.Rate)
	putFloat(m, "miles", c.Miles)
	if c.Hazmat != nil {
		m["hazmat"] = *c.Hazmat
	}
	if len(c.Stops) > 0 {
		stops := make([]map[string]any, 0, len(c.Stops))
		for _, s := range c.Stops {
			sm := map[string]any{"sequence": s.Sequence}
			putString(sm, "type", s.Type)
			putString(sm, "city", s.City)
			putString(sm, "state", s.State)
			putString(sm, "zip", s.Zip)
			putString(sm, "date", s.Date)
			stops = append(stops, sm)
		}
		m["stops"] = stops
	}
	return m
}

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func putFloat(m map[string]any, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

package dedup

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/haulwire/loadscout/internal/models"
	"github.com/haulwire/loadscout/internal/parsers"
)

// CanonicalPayload is the fully-normalized projection of a ParsedLoad used
// only for hashing and comparison. Every field is either a canonical value or
// nil. Absence is never encoded as an empty string or a zero: a load with no
// weight must not hash equal to a load weighing zero pounds.
type CanonicalPayload struct {
	BrokerCompany *string
	BrokerName    *string
	BrokerEmail   *string
	BrokerMC      *string
	OrderNumber   *string

	OriginCity *string
	OriginSt   *string
	OriginZip  *string
	DestCity   *string
	DestSt     *string
	DestZip    *string
	Stops      []CanonicalStop

	PickupDate   *string
	DeliveryDate *string

	VehicleType *string
	Weight      *float64
	Pieces      *float64
	Rate        *float64
	Miles       *float64
	Hazmat      *bool
}

// CanonicalStop is one normalized stop, re-sequenced into route order.
type CanonicalStop struct {
	Sequence int
	Type     *string
	City     *string
	State    *string
	Zip      *string
	Date     *string
}

// Canonicalize maps a ParsedLoad onto its canonical projection. Each field
// goes through a type-specific normalizer; fields that fail to normalize are
// treated as absent rather than carried through raw.
func Canonicalize(p *models.ParsedLoad) *CanonicalPayload {
	c := &CanonicalPayload{
		BrokerCompany: foldedString(p.BrokerCompany),
		BrokerName:    foldedString(p.BrokerName),
		BrokerEmail:   foldedString(p.BrokerEmail),
		BrokerMC:      trimmedString(p.BrokerMC),
		OrderNumber:   trimmedString(p.OrderNumber),

		OriginCity: foldedString(p.OriginCity),
		OriginSt:   foldedString(p.OriginSt),
		OriginZip:  trimmedString(p.OriginZip),
		DestCity:   foldedString(p.DestCity),
		DestSt:     foldedString(p.DestSt),
		DestZip:    trimmedString(p.DestZip),

		PickupDate:   canonicalDate(p.PickupDate),
		DeliveryDate: canonicalDate(p.DeliveryDate),

		VehicleType: foldedString(p.VehicleType),
		Weight:      canonicalNumber(p.Weight),
		Pieces:      canonicalNumber(p.Pieces),
		Rate:        canonicalNumber(p.Rate),
		Miles:       canonicalNumber(p.Miles),
		Hazmat:      canonicalBool(p.Hazmat),
	}

	if len(p.Stops) > 0 {
		stops := make([]models.Stop, len(p.Stops))
		copy(stops, p.Stops)
		sort.SliceStable(stops, func(i, j int) bool { return stops[i].Sequence < stops[j].Sequence })
		for i, s := range stops {
			c.Stops = append(c.Stops, CanonicalStop{
				Sequence: i + 1,
				Type:     foldedString(string(s.Type)),
				City:     foldedString(s.City),
				State:    foldedString(s.State),
				Zip:      trimmedString(s.Zip),
				Date:     canonicalDate(s.Date),
			})
		}
	}

	return c
}

// trimmedString trims whitespace; empty results are absent.
func trimmedString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// foldedString trims and lower-cases case-insensitive fields.
func foldedString(v string) *string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return nil
	}
	return &v
}

var numericStripRe = regexp.MustCompile(`[^0-9.,\-]`)

// canonicalNumber parses locale variants of a numeric string, comma decimals
// and thousands separators and currency symbols included, rounding to two
// decimal places. "2,850.00" and "2850" normalize to the same value.
func canonicalNumber(v string) *float64 {
	v = numericStripRe.ReplaceAllString(strings.TrimSpace(v), "")
	if v == "" || v == "-" {
		return nil
	}

	lastComma := strings.LastIndex(v, ",")
	lastDot := strings.LastIndex(v, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The rightmost separator is the decimal point.
		if lastComma > lastDot {
			v = strings.ReplaceAll(v, ".", "")
			v = strings.Replace(v, ",", ".", 1)
		} else {
			v = strings.ReplaceAll(v, ",", "")
		}
	case lastComma >= 0:
		// A lone comma is a decimal point only when it looks like one;
		// "2,850" is a thousands separator, "28,5" is a decimal.
		if strings.Count(v, ",") == 1 && len(v)-lastComma-1 != 3 {
			v = strings.Replace(v, ",", ".", 1)
		} else {
			v = strings.ReplaceAll(v, ",", "")
		}
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	f = math.Round(f*100) / 100
	return &f
}

// canonicalDate normalizes any recognized date spelling to YYYY-MM-DD.
func canonicalDate(v string) *string {
	normalized := parsers.NormalizeDate(v)
	if normalized == "" {
		return nil
	}
	return &normalized
}

var (
	truthySpellings = map[string]bool{"true": true, "yes": true, "y": true, "1": true, "x": true, "hazmat": true}
	falsySpellings  = map[string]bool{"false": true, "no": true, "n": true, "0": true, "none": true, "non-hazmat": true}
)

// canonicalBool accepts common truthy/falsy string and number spellings;
// anything unrecognized is absent, not false.
func canonicalBool(v string) *bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return nil
	}
	if truthySpellings[v] {
		t := true
		return &t
	}
	if falsySpellings[v] {
		f := false
		return &f
	}
	return nil
}

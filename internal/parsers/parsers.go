// Package parsers converts broker load-opportunity emails into partially
// populated load records. Each source format is an isolated pure function; a
// permissive subject-line parser runs first, the format parser fills only the
// fields the subject left absent, and tenant-configured hints are the final
// fallback. A stronger signal is never overwritten by a weaker one.
package parsers

import (
	"strings"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

// FormatParser is a pure function mapping an envelope to a partial load record
type FormatParser func(env *mailparse.Envelope) *models.ParsedLoad

// formatParsers routes a detected source to its body parser
var formatParsers = map[models.LoadSource]FormatParser{
	models.SourceSylectus:   ParseSylectus,
	models.SourceFullCircle: ParseFullCircle,
	models.SourceDAT:        ParseDAT,
	models.SourceGeneric:    ParseGeneric,
}

// Detect selects the source format from sender domain, body markers and
// subject shape. Detection runs before parsing and never fails: unknown
// messages fall through to the generic parser.
func Detect(env *mailparse.Envelope) models.LoadSource {
	domain := env.SenderDomain()
	subject := strings.ToLower(env.Subject)
	body := env.Text
	if body == "" {
		body = env.HTML
	}
	bodyLower := strings.ToLower(body)

	switch {
	case strings.HasSuffix(domain, "sylectus.com"),
		strings.Contains(bodyLower, "sylectus"),
		strings.Contains(subject, "load opportunity"):
		return models.SourceSylectus

	case strings.HasSuffix(domain, "fullcircletms.com"),
		strings.Contains(bodyLower, "full circle tms"),
		strings.Contains(bodyLower, "order number:") && strings.Contains(bodyLower, "pickup:"):
		return models.SourceFullCircle

	case strings.HasSuffix(domain, "dat.com"),
		strings.Contains(subject, "dat one"),
		strings.Contains(bodyLower, "*trip:"):
		return models.SourceDAT

	default:
		return models.SourceGeneric
	}
}

// Parse runs the layered parsing strategy against one envelope:
// subject parser, then the detected format's body parser, then hints.
func Parse(env *mailparse.Envelope, hints []*models.HintPack) *models.ParsedLoad {
	source := Detect(env)

	load := ParseSubject(env.Subject)
	load.Source = source

	if body := formatParsers[source](env); body != nil {
		Merge(load, body)
	}

	ApplyHints(load, env, hints)

	// First pickup/first delivery populate the scalar route fields when the
	// body parser produced stops but no scalars
	applyStopsToRoute(load)

	load.Source = source
	return load
}

// Merge fills only the fields dst left absent. Field-level precedence keeps
// the stronger signal intact.
func Merge(dst, src *models.ParsedLoad) {
	fillString(&dst.BrokerCompany, src.BrokerCompany)
	fillString(&dst.BrokerName, src.BrokerName)
	fillString(&dst.BrokerEmail, src.BrokerEmail)
	fillString(&dst.BrokerPhone, src.BrokerPhone)
	fillString(&dst.BrokerMC, src.BrokerMC)
	fillString(&dst.OrderNumber, src.OrderNumber)

	fillString(&dst.OriginCity, src.OriginCity)
	fillString(&dst.OriginSt, src.OriginSt)
	fillString(&dst.OriginZip, src.OriginZip)
	fillString(&dst.DestCity, src.DestCity)
	fillString(&dst.DestSt, src.DestSt)
	fillString(&dst.DestZip, src.DestZip)

	fillString(&dst.PickupDate, src.PickupDate)
	fillString(&dst.PickupTime, src.PickupTime)
	fillString(&dst.DeliveryDate, src.DeliveryDate)
	fillString(&dst.DeliveryTime, src.DeliveryTime)

	fillString(&dst.VehicleType, src.VehicleType)
	fillString(&dst.Weight, src.Weight)
	fillString(&dst.Pieces, src.Pieces)
	fillString(&dst.Dimensions, src.Dimensions)
	fillString(&dst.Miles, src.Miles)
	fillString(&dst.Rate, src.Rate)
	fillString(&dst.Hazmat, src.Hazmat)
	fillString(&dst.Notes, src.Notes)

	if dst.PostedAt == nil && src.PostedAt != nil {
		dst.PostedAt = src.PostedAt
	}
	if dst.ExpiresAt == nil && src.ExpiresAt != nil {
		dst.ExpiresAt = src.ExpiresAt
	}
	if len(dst.Stops) == 0 && len(src.Stops) > 0 {
		dst.Stops = src.Stops
	}
}

// SetField sets a named ParsedLoad field if it is still absent. Used by the
// hint layer, which addresses fields by name.
func SetField(load *models.ParsedLoad, field, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}

	target := fieldRef(load, field)
	if target == nil || *target != "" {
		return false
	}
	*target = value
	return true
}

func fieldRef(load *models.ParsedLoad, field string) *string {
	switch field {
	case "broker_company":
		return &load.BrokerCompany
	case "broker_name":
		return &load.BrokerName
	case "broker_email":
		return &load.BrokerEmail
	case "broker_phone":
		return &load.BrokerPhone
	case "broker_mc":
		return &load.BrokerMC
	case "order_number":
		return &load.OrderNumber
	case "origin_city":
		return &load.OriginCity
	case "origin_state":
		return &load.OriginSt
	case "origin_zip":
		return &load.OriginZip
	case "dest_city":
		return &load.DestCity
	case "dest_state":
		return &load.DestSt
	case "dest_zip":
		return &load.DestZip
	case "pickup_date":
		return &load.PickupDate
	case "pickup_time":
		return &load.PickupTime
	case "delivery_date":
		return &load.DeliveryDate
	case "delivery_time":
		return &load.DeliveryTime
	case "vehicle_type":
		return &load.VehicleType
	case "weight":
		return &load.Weight
	case "pieces":
		return &load.Pieces
	case "dimensions":
		return &load.Dimensions
	case "miles":
		return &load.Miles
	case "rate":
		return &load.Rate
	case "hazmat":
		return &load.Hazmat
	case "notes":
		return &load.Notes
	default:
		return nil
	}
}

// applyStopsToRoute fills scalar origin/destination from the first pickup and
// first delivery stop when the scalars are still absent
func applyStopsToRoute(load *models.ParsedLoad) {
	if len(load.Stops) == 0 {
		return
	}
	for _, stop := range load.Stops {
		if stop.Type == models.StopPickup && load.OriginCity == "" {
			load.OriginCity = stop.City
			load.OriginSt = stop.State
			fillString(&load.OriginZip, stop.Zip)
			fillString(&load.PickupDate, stop.Date)
			fillString(&load.PickupTime, stop.Time)
			break
		}
	}
	for _, stop := range load.Stops {
		if stop.Type == models.StopDelivery && load.DestCity == "" {
			load.DestCity = stop.City
			load.DestSt = stop.State
			fillString(&load.DestZip, stop.Zip)
			fillString(&load.DeliveryDate, stop.Date)
			fillString(&load.DeliveryTime, stop.Time)
			break
		}
	}
}

func fillString(dst *string, v string) {
	if *dst == "" {
		v = strings.TrimSpace(v)
		if v != "" {
			*dst = v
		}
	}
}

package parsers

import (
	"strings"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

// Full Circle TMS posts plain-text bodies of "Label: value" lines, one field
// per line, pickup before delivery.

// fullCircleAliases maps lower-cased line labels to handler keys shared with
// the Sylectus field switch
var fullCircleAliases = map[string]string{
	"order number":    "order #",
	"order":           "order #",
	"reference":       "order #",
	"pickup":          "pick-up at",
	"pickup location": "pick-up at",
	"origin":          "pick-up at",
	"pickup date":     "pick-up date",
	"pickup time":     "pickup time",
	"delivery":        "deliver to",
	"drop":            "deliver to",
	"destination":     "deliver to",
	"delivery date":   "delivery date",
	"delivery time":   "delivery time",
	"vehicle type":    "vehicle required",
	"vehicle":         "vehicle required",
	"equipment":       "vehicle required",
	"weight":          "weight",
	"pieces":          "pieces",
	"dims":            "dimensions",
	"dimensions":      "dimensions",
	"miles":           "miles",
	"rate":            "rate",
	"broker":          "broker",
	"company":         "broker",
	"agent":           "contact",
	"contact":         "contact",
	"mc number":       "mc #",
	"hazmat":          "hazmat",
	"posted":          "posted",
	"expires":         "expires",
	"notes":           "notes",
}

// ParseFullCircle parses a Full Circle TMS plain-text body
func ParseFullCircle(env *mailparse.Envelope) *models.ParsedLoad {
	load := &models.ParsedLoad{Source: models.SourceFullCircle}

	body := env.Text
	if body == "" && env.HTML != "" {
		body = FlattenHTML(env.HTML)
	}
	if body == "" {
		return load
	}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		label = strings.ToLower(strings.TrimSpace(label))
		value = strings.TrimSpace(value)

		key, known := fullCircleAliases[label]
		if !known {
			continue
		}

		switch key {
		case "pickup time":
			load.PickupTime = value
		case "delivery time":
			load.DeliveryTime = value
		default:
			applySylectusField(load, key, value)
		}
	}

	return load
}

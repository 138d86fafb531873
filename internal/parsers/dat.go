package parsers

import (
	"regexp"
	"strings"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

// DAT One alert emails use asterisk-prefixed lines with coded equipment
// ("*Trip: Dallas, TX to Atlanta, GA", "*Equipment: SV").

var datTripRe = regexp.MustCompile(`(?i)^\*?\s*trip:\s*(.+?)\s+(?:to|->)\s+(.+)$`)

// datEquipmentCodes maps DAT equipment codes to normalized vehicle tokens
var datEquipmentCodes = map[string]string{
	"SV": "sprinter",
	"CV": "cargo van",
	"SB": "small straight",
	"LB": "large straight",
	"ST": "straight truck",
	"V":  "van",
	"F":  "flatbed",
	"R":  "reefer",
}

// ParseDAT parses a DAT One alert plain-text body
func ParseDAT(env *mailparse.Envelope) *models.ParsedLoad {
	load := &models.ParsedLoad{Source: models.SourceDAT}

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

		if m := datTripRe.FindStringSubmatch(line); m != nil {
			applyLocation(m[1], &load.OriginCity, &load.OriginSt, &load.OriginZip)
			applyLocation(m[2], &load.DestCity, &load.DestSt, &load.DestZip)
			continue
		}

		label, value, found := strings.Cut(strings.TrimPrefix(line, "*"), ":")
		if !found {
			continue
		}
		label = strings.ToLower(strings.TrimSpace(label))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch label {
		case "equipment":
			code := strings.ToUpper(value)
			if token, ok := datEquipmentCodes[code]; ok {
				load.VehicleType = token
			} else {
				load.VehicleType = strings.ToLower(value)
			}
		case "pickup", "pickup date", "date":
			load.PickupDate, load.PickupTime = splitDateTime(value)
		case "delivery", "delivery date":
			load.DeliveryDate, load.DeliveryTime = splitDateTime(value)
		case "weight":
			load.Weight = value
		case "length":
			load.Dimensions = value
		case "rate":
			load.Rate = value
		case "trip miles", "miles":
			load.Miles = value
		case "company", "broker":
			load.BrokerCompany = value
		case "contact":
			parseContact(load, value)
		case "mc", "mc#":
			load.BrokerMC = value
		case "reference", "reference id", "posting id":
			load.OrderNumber = value
		case "comments":
			load.Notes = value
		}
	}

	return load
}

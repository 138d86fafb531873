package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

// Sylectus load opportunity emails are HTML tables of label/value rows, with
// an optional multi-stop table of (sequence, type, location, date/time) rows.

var (
	cityStZipRe = regexp.MustCompile(`(?i)^([A-Za-z .'\-]+?),\s*([A-Za-z]{2})(?:\s+(\d{5}))?$`)
	emailRe     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe     = regexp.MustCompile(`\(?\d{3}\)?[ .\-]?\d{3}[ .\-]?\d{4}`)
	dateTimeRe  = regexp.MustCompile(`^(\S+)\s+(\d{1,2}:\d{2}(?:\s*[AP]M)?(?:\s+[A-Z]{2,4})?)$`)
)

// ParseSylectus parses a Sylectus-format HTML body. Returns an empty record
// when the body has no HTML (a forwarded plain-text copy falls through to the
// hint layer).
func ParseSylectus(env *mailparse.Envelope) *models.ParsedLoad {
	load := &models.ParsedLoad{Source: models.SourceSylectus}
	if env.HTML == "" {
		return load
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.HTML))
	if err != nil {
		return load
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		switch cells.Length() {
		case 2:
			label := normalizeLabel(cells.Eq(0).Text())
			value := strings.TrimSpace(cells.Eq(1).Text())
			applySylectusField(load, label, value)
		case 4:
			if stop, ok := parseStopRow(cells); ok {
				load.Stops = append(load.Stops, stop)
			}
		}
	})

	resequenceStops(load.Stops)
	return load
}

func applySylectusField(load *models.ParsedLoad, label, value string) {
	if value == "" {
		return
	}

	switch label {
	case "posted":
		if t := ParseTimestamp(value); t != nil {
			load.PostedAt = t
		}
	case "expires", "expiration":
		if t := ParseTimestamp(value); t != nil {
			load.ExpiresAt = t
		}
	case "broker", "company", "posted by":
		load.BrokerCompany = value
	case "contact":
		parseContact(load, value)
	case "order", "order #", "order number", "load #", "pro #":
		load.OrderNumber = value
	case "mc #", "mc number", "docket":
		load.BrokerMC = value
	case "pick-up at", "pickup at", "origin":
		applyLocation(value, &load.OriginCity, &load.OriginSt, &load.OriginZip)
	case "pick-up date", "pickup date":
		load.PickupDate, load.PickupTime = splitDateTime(value)
	case "deliver to", "delivery at", "destination":
		applyLocation(value, &load.DestCity, &load.DestSt, &load.DestZip)
	case "delivery date", "deliver date":
		load.DeliveryDate, load.DeliveryTime = splitDateTime(value)
	case "vehicle required", "vehicle", "equipment", "load type":
		load.VehicleType = strings.ToLower(value)
	case "weight":
		load.Weight = value
	case "pieces", "pcs":
		load.Pieces = value
	case "dimensions", "dims":
		load.Dimensions = value
	case "miles", "distance":
		load.Miles = value
	case "rate", "pay":
		load.Rate = value
	case "hazmat":
		load.Hazmat = value
	case "notes", "comments":
		load.Notes = value
	}
}

// parseStopRow reads one (sequence, type, location, date/time) stop row
func parseStopRow(cells *goquery.Selection) (models.Stop, bool) {
	seqText := strings.TrimSpace(cells.Eq(0).Text())
	seq, err := strconv.Atoi(seqText)
	if err != nil {
		return models.Stop{}, false
	}

	stop := models.Stop{Sequence: seq}

	switch strings.ToLower(strings.TrimSpace(cells.Eq(1).Text())) {
	case "pick-up", "pickup", "p":
		stop.Type = models.StopPickup
	case "delivery", "deliver", "drop", "d":
		stop.Type = models.StopDelivery
	default:
		return models.Stop{}, false
	}

	location := strings.TrimSpace(cells.Eq(2).Text())
	applyLocation(location, &stop.City, &stop.State, &stop.Zip)

	stop.Date, stop.Time = splitDateTime(strings.TrimSpace(cells.Eq(3).Text()))
	return stop, true
}

// resequenceStops sorts stops into route order and renumbers from 1
func resequenceStops(stops []models.Stop) {
	for i := 0; i < len(stops); i++ {
		for j := i + 1; j < len(stops); j++ {
			if stops[j].Sequence < stops[i].Sequence {
				stops[i], stops[j] = stops[j], stops[i]
			}
		}
	}
	for i := range stops {
		stops[i].Sequence = i + 1
	}
}

// parseContact splits a free-form contact cell into name/phone/email
func parseContact(load *models.ParsedLoad, value string) {
	if m := emailRe.FindString(value); m != "" {
		load.BrokerEmail = strings.ToLower(m)
		value = strings.Replace(value, m, "", 1)
	}
	if m := phoneRe.FindString(value); m != "" {
		load.BrokerPhone = m
		value = strings.Replace(value, m, "", 1)
	}
	load.BrokerName = strings.Trim(strings.TrimSpace(value), "-,()")
}

// applyLocation parses "City, ST 12345" into the given fields
func applyLocation(value string, city, state, zip *string) {
	m := cityStZipRe.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return
	}
	*city = strings.TrimSpace(m[1])
	*state = strings.ToUpper(m[2])
	if m[3] != "" {
		*zip = m[3]
	}
}

// splitDateTime splits "01/19/2026 14:00 EST" into date and time parts
func splitDateTime(value string) (date, clock string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if m := dateTimeRe.FindStringSubmatch(value); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	return value, ""
}

// normalizeLabel lower-cases a label cell and strips the trailing colon
func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.TrimSpace(strings.TrimSuffix(label, ":"))
}

package parsers

import (
	"regexp"
	"strings"

	"github.com/haulwire/loadscout/internal/models"
)

// Subject lines are cheap and high-signal for route and equipment, so this
// parser runs first and wins over the body parsers on any field it fills.

var (
	// "Dallas, TX to Atlanta, GA", "DALLAS, TX 75201 -> ATLANTA, GA"
	subjectRouteRe = regexp.MustCompile(`(?i)([A-Za-z .'\-]+?),\s*([A-Za-z]{2})(?:\s+(\d{5}))?\s*(?:to|->|=>|–|—)\s*([A-Za-z .'\-]+?),\s*([A-Za-z]{2})(?:\s+(\d{5}))?(?:\s|$|[,;|-])`)

	subjectWeightRe = regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(?:lbs?|#|pounds)`)
	subjectPiecesRe = regexp.MustCompile(`(?i)(\d+)\s*(?:pcs?|pieces|skids?|pallets?)`)
	subjectMilesRe  = regexp.MustCompile(`(?i)([\d,]+)\s*(?:mi|miles)\b`)
	// the capture must contain a digit so "Load: Dallas" is not an order number
	subjectOrderRe = regexp.MustCompile(`(?i)(?:order|load|ref|pro)\s*#?\s*[:\-]?\s*([A-Z\-]*\d[A-Z0-9\-]+)`)
)

// equipmentTokens maps subject spellings to a normalized vehicle-type token.
// Longer spellings are checked first so "large straight" never half-matches
// "straight".
var equipmentTokens = []struct {
	spelling string
	token    string
}{
	{"small straight", "small straight"},
	{"large straight", "large straight"},
	{"straight truck", "straight truck"},
	{"cargo van", "cargo van"},
	{"sprinter van", "sprinter"},
	{"box truck", "box truck"},
	{"tractor trailer", "tractor"},
	{"sprinter", "sprinter"},
	{"straight", "straight truck"},
	{"tractor", "tractor"},
	{"flatbed", "flatbed"},
	{"reefer", "reefer"},
	{"van", "van"},
}

// ParseSubject extracts route, equipment and freight hints from a subject line
func ParseSubject(subject string) *models.ParsedLoad {
	load := &models.ParsedLoad{}
	if strings.TrimSpace(subject) == "" {
		return load
	}

	if m := subjectRouteRe.FindStringSubmatch(subject + " "); m != nil {
		load.OriginCity = cleanCity(m[1])
		load.OriginSt = strings.ToUpper(m[2])
		load.OriginZip = m[3]
		load.DestCity = cleanCity(m[4])
		load.DestSt = strings.ToUpper(m[5])
		load.DestZip = m[6]
	}

	lower := strings.ToLower(subject)
	for _, eq := range equipmentTokens {
		if strings.Contains(lower, eq.spelling) {
			load.VehicleType = eq.token
			break
		}
	}

	if m := subjectWeightRe.FindStringSubmatch(subject); m != nil {
		load.Weight = m[1]
	}
	if m := subjectPiecesRe.FindStringSubmatch(subject); m != nil {
		load.Pieces = m[1]
	}
	if m := subjectMilesRe.FindStringSubmatch(subject); m != nil {
		load.Miles = m[1]
	}
	if m := subjectOrderRe.FindStringSubmatch(subject); m != nil {
		load.OrderNumber = m[1]
	}

	return load
}

// cleanCity trims leading noise words a subject prefix can leave on the city
// capture ("New Load Opportunity: Dallas" -> "Dallas")
func cleanCity(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndexAny(raw, ":;"); idx >= 0 {
		raw = strings.TrimSpace(raw[idx+1:])
	}
	return raw
}

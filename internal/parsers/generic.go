package parsers

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/haulwire/loadscout/internal/mailparse"
	"github.com/haulwire/loadscout/internal/models"
)

// The generic parser is the fallback for unrecognized senders: a small set of
// loose patterns over the flattened body. Most of its gaps are expected to be
// filled by tenant hints.

var (
	genericRouteRe  = regexp.MustCompile(`(?i)(?:from\s+)?([A-Za-z .'\-]+?),\s*([A-Za-z]{2})(?:\s+(\d{5}))?\s+(?:to|->)\s+([A-Za-z .'\-]+?),\s*([A-Za-z]{2})(?:\s+(\d{5}))?`)
	genericWeightRe = regexp.MustCompile(`(?i)(?:weight|wt)[:\s]+([\d,]+(?:\.\d+)?)`)
	genericDateRe   = regexp.MustCompile(`(?i)(?:pick\s*-?\s*up|ready)(?:\s*date)?[:\s]+([0-9/\-]+)`)
	genericZipRe    = regexp.MustCompile(`(?i)(?:pick\s*-?\s*up|origin)\s*zip[:\s]+(\d{5})`)

	htmlConverter = md.NewConverter("", true, nil)
)

// FlattenHTML converts an HTML body to plain text for the text-oriented
// parsers and the hint layer
func FlattenHTML(html string) string {
	text, err := htmlConverter.ConvertString(html)
	if err != nil {
		return ""
	}
	return text
}

// trimRouteNoise drops sentence lead-in the route pattern can capture along
// with the origin city ("Can you cover a run from Oklahoma City" -> "Oklahoma
// City"). The markers are the connectives free-form emails put before a city.
func trimRouteNoise(city string) string {
	city = strings.TrimSpace(city)
	lower := strings.ToLower(city)
	for _, marker := range []string{" from ", " for "} {
		if idx := strings.LastIndex(lower, marker); idx >= 0 {
			city = strings.TrimSpace(city[idx+len(marker):])
			lower = strings.ToLower(city)
		}
	}
	return city
}

// ParseGeneric applies loose patterns to an unrecognized message body
func ParseGeneric(env *mailparse.Envelope) *models.ParsedLoad {
	load := &models.ParsedLoad{Source: models.SourceGeneric}

	body := env.Text
	if body == "" && env.HTML != "" {
		body = FlattenHTML(env.HTML)
	}
	if body == "" {
		return load
	}

	if m := genericRouteRe.FindStringSubmatch(body); m != nil {
		load.OriginCity = trimRouteNoise(m[1])
		load.OriginSt = strings.ToUpper(m[2])
		load.OriginZip = m[3]
		load.DestCity = strings.TrimSpace(m[4])
		load.DestSt = strings.ToUpper(m[5])
		load.DestZip = m[6]
	}
	if m := genericWeightRe.FindStringSubmatch(body); m != nil {
		load.Weight = m[1]
	}
	if m := genericDateRe.FindStringSubmatch(body); m != nil {
		load.PickupDate = m[1]
	}
	if m := genericZipRe.FindStringSubmatch(body); m != nil && load.OriginZip == "" {
		load.OriginZip = m[1]
	}

	// The sender is often the broker on direct emails
	if env.FromName != "" {
		load.BrokerName = env.FromName
	}
	if env.From != "" {
		load.BrokerEmail = env.From
	}

	return load
}

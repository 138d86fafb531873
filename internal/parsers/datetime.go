package parsers

import (
	"strings"
	"time"
)

// tzOffsets is the fixed abbreviation-to-offset table used when a broker
// timestamp carries a US timezone abbreviation. Abbreviations are ambiguous
// globally; these are pinned to their North American meanings because that is
// where the load boards operate.
var tzOffsets = map[string]int{
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
	"ET":  -5 * 3600,
	"CT":  -6 * 3600,
	"MT":  -7 * 3600,
	"PT":  -8 * 3600,
	"UTC": 0,
	"GMT": 0,
}

// dateLayouts are tried in order when normalizing a bare date
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// timestampLayouts are tried (with the zone abbreviation stripped and applied
// separately) when parsing a full timestamp
var timestampLayouts = []string{
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01/02/2006 3:04 PM",
	"1/2/2006 3:04 PM",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
}

// NormalizeDate converts a raw date string to ISO "2006-01-02", or returns
// empty when the input is unparseable. Two-digit years land in 20xx.
func NormalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}

	// Month/day without a year: assume the current year
	for _, layout := range []string{"01/02", "1/2"} {
		if t, err := time.Parse(layout, raw); err == nil {
			now := time.Now().UTC()
			return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).
				Format("2006-01-02")
		}
	}

	return ""
}

// ParseTimestamp converts a raw timestamp with an optional timezone
// abbreviation into an absolute UTC instant, or nil when unparseable.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	// Split off a trailing zone abbreviation if present
	offset := 0
	hasZone := false
	fields := strings.Fields(raw)
	if len(fields) > 1 {
		last := strings.ToUpper(fields[len(fields)-1])
		if off, ok := tzOffsets[last]; ok {
			offset = off
			hasZone = true
			raw = strings.Join(fields[:len(fields)-1], " ")
		}
	}

	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if hasZone {
			t = t.Add(-time.Duration(offset) * time.Second)
		}
		utc := t.UTC()
		return &utc
	}

	return nil
}

// CorrectExpiration defensively fixes a load expiration so a malformed or
// late-arriving timestamp does not silently kill a live opportunity:
// absent -> posted + grace; at or before posted -> posted + grace; already in
// the past at processing time -> now + grace.
func CorrectExpiration(expires, posted *time.Time, now time.Time, grace time.Duration) *time.Time {
	base := now
	if posted != nil {
		base = *posted
	}

	if expires == nil {
		t := base.Add(grace)
		return &t
	}
	if posted != nil && !expires.After(*posted) {
		t := posted.Add(grace)
		return &t
	}
	if !expires.After(now) {
		t := now.Add(grace)
		return &t
	}
	return expires
}

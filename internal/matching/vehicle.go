package matching

import "strings"

// vehicleFamilies maps family keywords to the tokens that imply them. Two
// types sharing a family keyword are considered compatible.
var vehicleFamilies = map[string][]string{
	"van":      {"van", "cargo van", "sprinter", "sprinter van"},
	"straight": {"straight", "straight truck", "small straight", "large straight", "box truck"},
	"sprinter": {"sprinter", "sprinter van"},
	"flatbed":  {"flatbed", "flat bed"},
	"reefer":   {"reefer", "refrigerated"},
	"tractor":  {"tractor", "tractor trailer", "semi"},
}

// VehicleMatches reports whether a load's vehicle type satisfies any of the
// hunt's accepted types. Matching is fuzzy: exact token equality, substring in
// either direction, or a shared family keyword. An empty accepted set accepts
// everything; a load with no vehicle type only matches an empty set.
func VehicleMatches(loadType string, accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	loadType = normalizeVehicle(loadType)
	if loadType == "" {
		return false
	}
	for _, want := range accepted {
		want = normalizeVehicle(want)
		if want == "" {
			continue
		}
		if loadType == want {
			return true
		}
		if strings.Contains(loadType, want) || strings.Contains(want, loadType) {
			return true
		}
		if sharesFamily(loadType, want) {
			return true
		}
	}
	return false
}

func normalizeVehicle(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

func sharesFamily(a, b string) bool {
	for keyword, members := range vehicleFamilies {
		if inFamily(a, keyword, members) && inFamily(b, keyword, members) {
			return true
		}
	}
	return false
}

func inFamily(token, keyword string, members []string) bool {
	if strings.Contains(token, keyword) {
		return true
	}
	for _, m := range members {
		if token == m {
			return true
		}
	}
	return false
}

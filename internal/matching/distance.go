package matching

import "math"

const earthRadiusMiles = 3958.8

// HaversineMiles computes great-circle distance between two coordinate pairs.
func HaversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WithinRadius applies the radius filter. The boundary is inclusive: a load
// at exactly the hunt's radius matches.
func WithinRadius(distanceMiles, radiusMiles float64) bool {
	return distanceMiles <= radiusMiles
}

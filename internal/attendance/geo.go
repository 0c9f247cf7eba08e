package attendance

import "math"

// earthRadiusMeters is the mean Earth radius used by the haversine
// formula.
const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two
// coordinates. Inputs are assumed valid; coordinate ranges are checked at
// session-creation time.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius reports whether (lat1, lon1) lies within radiusMeters of
// (lat2, lon2).
func WithinRadius(lat1, lon1, lat2, lon2, radiusMeters float64) bool {
	return HaversineMeters(lat1, lon1, lat2, lon2) <= radiusMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

package geodesy

import "math"

// Mean Earth radius, meters.
const earthRadiusM = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// Destination solves the direct geodesic problem on a sphere: the point
// reached by travelling distanceMeters from (lat, lon) along the given
// compass bearing. Longitude is reconstructed with atan2, so a wrap across
// the antimeridian cannot divide by zero.
func Destination(lat, lon, bearingDeg, distanceMeters float64) (float64, float64) {
	if distanceMeters == 0 {
		return lat, lon
	}

	theta := toRad(NormalizeBearing(bearingDeg))
	delta := distanceMeters / earthRadiusM

	phi1 := toRad(lat)
	lambda1 := toRad(lon)

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(sinPhi2)

	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*sinPhi2,
	)

	return toDeg(phi2), normalizeLon(toDeg(lambda2))
}

// NormalizeBearing wraps a compass bearing into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func normalizeLon(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

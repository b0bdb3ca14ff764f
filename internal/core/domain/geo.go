package domain

import (
	"fmt"

	"github.com/aitorle/geovault/internal/pkg/geodesy"
)

// Coordinate is a geographic point (WGS 84). It is a value type: every
// operation that derives a point returns a new value.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewCoordinate validates latitude and longitude ranges.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("%w: latitude must be [-90, 90] and longitude [-180, 180], got %f,%f",
			ErrInvalidCoordinate, lat, lon)
	}
	return c, nil
}

// Valid reports whether the coordinate is within WGS 84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Distance returns the great-circle distance in meters between two
// coordinates. Symmetric; zero for identical points.
func Distance(a, b Coordinate) float64 {
	return geodesy.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Destination returns the coordinate reached by travelling distanceMeters
// from origin along the given compass bearing.
func Destination(origin Coordinate, bearingDeg, distanceMeters float64) Coordinate {
	lat, lon := geodesy.Destination(origin.Lat, origin.Lon, bearingDeg, distanceMeters)
	return Coordinate{Lat: lat, Lon: lon}
}

// Centroid returns the planar average of the given coordinates. This is the
// re-centering rule after a corner drag, not a spherical centroid; it is only
// meaningful for city-scale shapes away from the poles and the date line.
func Centroid(corners []Coordinate) (Coordinate, error) {
	if len(corners) == 0 {
		return Coordinate{}, ErrEmptyInput
	}
	var lat, lon float64
	for _, c := range corners {
		lat += c.Lat
		lon += c.Lon
	}
	n := float64(len(corners))
	return Coordinate{Lat: lat / n, Lon: lon / n}, nil
}

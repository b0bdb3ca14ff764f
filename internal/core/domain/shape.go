package domain

import (
	"fmt"
)

// ShapeKind discriminates the shape union.
type ShapeKind string

const (
	ShapeCircle        ShapeKind = "circle"
	ShapeQuadrilateral ShapeKind = "quadrilateral"
)

// QuadCorners is the number of corners a quadrilateral zone carries.
const QuadCorners = 4

// Shape is a tagged union over the two supported zone geometries. Construct
// values with NewCircle or NewQuadrilateral so the invariants hold; Contains
// never sees a malformed shape.
type Shape struct {
	Kind         ShapeKind    `json:"kind"`
	RadiusMeters float64      `json:"radius_meters,omitempty"`
	Corners      []Coordinate `json:"corners,omitempty"`
}

// NewCircle builds a circular shape. The radius must be positive; the
// [50, 1000] m clamp is an editing-workflow policy, not enforced here.
func NewCircle(radiusMeters float64) (Shape, error) {
	if radiusMeters <= 0 {
		return Shape{}, fmt.Errorf("%w: circle radius must be positive, got %f", ErrInvalidShape, radiusMeters)
	}
	return Shape{Kind: ShapeCircle, RadiusMeters: radiusMeters}, nil
}

// NewQuadrilateral builds a four-corner polygon shape. Corners are an ordered
// ring in caller winding order; convexity and simplicity are not validated.
func NewQuadrilateral(corners []Coordinate) (Shape, error) {
	if len(corners) != QuadCorners {
		return Shape{}, fmt.Errorf("%w: quadrilateral requires exactly %d corners, got %d",
			ErrInvalidShape, QuadCorners, len(corners))
	}
	ring := make([]Coordinate, QuadCorners)
	copy(ring, corners)
	return Shape{Kind: ShapeQuadrilateral, Corners: ring}, nil
}

// IsCircle reports whether native OS region monitoring applies to this shape.
// Quadrilateral zones require the continuous-polling fallback.
func (s Shape) IsCircle() bool {
	return s.Kind == ShapeCircle
}

// Zone pairs a shape with its center. For circles the center is geometric;
// for quadrilaterals it is whatever the editing workflow tracks (typically
// the corner centroid), kept in sync by the caller after corner edits.
type Zone struct {
	Center Coordinate `json:"center"`
	Shape  Shape      `json:"shape"`
}

// Contains reports whether the point is inside the zone. Pure and safe for
// concurrent use.
//
// Circles use the great-circle distance with an inclusive boundary. The
// polygon test is even-odd ray casting in raw degree space — fine for
// city-scale zones, a known approximation near the poles and the date line.
// Polygon boundary membership follows the even-odd convention and is
// consistent rather than inclusive.
func (z Zone) Contains(p Coordinate) bool {
	switch z.Shape.Kind {
	case ShapeCircle:
		return Distance(z.Center, p) <= z.Shape.RadiusMeters
	case ShapeQuadrilateral:
		return pointInRing(p, z.Shape.Corners)
	default:
		return false
	}
}

// pointInRing is the even-odd rule with a ray cast toward increasing
// longitude at the point's latitude. Latitude is the crossing axis and
// longitude the ray axis at every call site. The (lat_i > lat) != (lat_j > lat)
// guard skips edges whose endpoints share a latitude, so a ray-parallel edge
// never divides by zero.
func pointInRing(p Coordinate, ring []Coordinate) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			crossLon := b.Lon + (p.Lat-b.Lat)*(a.Lon-b.Lon)/(a.Lat-b.Lat)
			if p.Lon < crossLon {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Viewport margin factors used to frame a zone on a map camera.
const (
	metersPerDegreeLat = 111000.0
	circleSpanMargin   = 4.0
	quadSpanMargin     = 1.5
)

// ViewportSpan returns latitude and longitude deltas sized so the whole
// shape is visible with margin. A degree-based approximation: this frames a
// camera, it does not navigate.
func (z Zone) ViewportSpan() (latDelta, lonDelta float64) {
	switch z.Shape.Kind {
	case ShapeCircle:
		d := z.Shape.RadiusMeters / metersPerDegreeLat * circleSpanMargin
		return d, d
	case ShapeQuadrilateral:
		minLat, maxLat := z.Shape.Corners[0].Lat, z.Shape.Corners[0].Lat
		minLon, maxLon := z.Shape.Corners[0].Lon, z.Shape.Corners[0].Lon
		for _, c := range z.Shape.Corners[1:] {
			if c.Lat < minLat {
				minLat = c.Lat
			}
			if c.Lat > maxLat {
				maxLat = c.Lat
			}
			if c.Lon < minLon {
				minLon = c.Lon
			}
			if c.Lon > maxLon {
				maxLon = c.Lon
			}
		}
		return (maxLat - minLat) * quadSpanMargin, (maxLon - minLon) * quadSpanMargin
	default:
		return 0, 0
	}
}

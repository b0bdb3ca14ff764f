package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Persisted shape encoding, shared with the device-side store:
//
//	kind "circle"        data "<radius>"                         e.g. "153.4"
//	kind "quadrilateral" data "lat,lon;lat,lon;lat,lon;lat,lon"
//
// The encoding round-trips losslessly: floats are formatted with the
// shortest representation that parses back to the same value.

// EncodeShapeData serializes a shape to its textual persistence form.
func EncodeShapeData(s Shape) (kind, data string, err error) {
	switch s.Kind {
	case ShapeCircle:
		return string(ShapeCircle), formatFloat(s.RadiusMeters), nil
	case ShapeQuadrilateral:
		parts := make([]string, 0, len(s.Corners))
		for _, c := range s.Corners {
			parts = append(parts, formatFloat(c.Lat)+","+formatFloat(c.Lon))
		}
		return string(ShapeQuadrilateral), strings.Join(parts, ";"), nil
	default:
		return "", "", fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, s.Kind)
	}
}

// ParseShapeData decodes the textual persistence form back into a Shape.
// Malformed input fails with ErrShapeData — corrupted rows surface instead
// of silently becoming a default-radius circle.
func ParseShapeData(kind, data string) (Shape, error) {
	switch ShapeKind(kind) {
	case ShapeCircle:
		radius, err := strconv.ParseFloat(strings.TrimSpace(data), 64)
		if err != nil {
			return Shape{}, fmt.Errorf("%w: circle radius %q: %v", ErrShapeData, data, err)
		}
		s, err := NewCircle(radius)
		if err != nil {
			return Shape{}, fmt.Errorf("%w: %v", ErrShapeData, err)
		}
		return s, nil

	case ShapeQuadrilateral:
		pairs := strings.Split(data, ";")
		if len(pairs) != QuadCorners {
			return Shape{}, fmt.Errorf("%w: expected %d corner pairs, got %d", ErrShapeData, QuadCorners, len(pairs))
		}
		corners := make([]Coordinate, 0, QuadCorners)
		for _, pair := range pairs {
			lat, lon, err := parseLatLon(pair)
			if err != nil {
				return Shape{}, err
			}
			c, err := NewCoordinate(lat, lon)
			if err != nil {
				return Shape{}, fmt.Errorf("%w: %v", ErrShapeData, err)
			}
			corners = append(corners, c)
		}
		s, err := NewQuadrilateral(corners)
		if err != nil {
			return Shape{}, fmt.Errorf("%w: %v", ErrShapeData, err)
		}
		return s, nil

	default:
		return Shape{}, fmt.Errorf("%w: unknown kind %q", ErrShapeData, kind)
	}
}

func parseLatLon(pair string) (float64, float64, error) {
	fields := strings.Split(strings.TrimSpace(pair), ",")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: corner %q is not \"lat,lon\"", ErrShapeData, pair)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q: %v", ErrShapeData, fields[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q: %v", ErrShapeData, fields[1], err)
	}
	return lat, lon, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

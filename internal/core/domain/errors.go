package domain

import "errors"

// Sentinel errors for the geometry core. Callers match these with errors.Is.
var (
	// ErrInvalidCoordinate is returned for out-of-range latitude or longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidShape is returned when a shape violates its construction
	// invariant: non-positive circle radius, or a quadrilateral without
	// exactly four corners.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrEmptyInput is returned by Centroid for an empty corner sequence.
	ErrEmptyInput = errors.New("empty input")

	// ErrShapeData is returned when a persisted shape encoding cannot be
	// parsed. Unparsable data is surfaced, never replaced with a default.
	ErrShapeData = errors.New("malformed shape data")

	// ErrNotCircular is returned by region-monitoring collaborators that
	// only accept circular regions.
	ErrNotCircular = errors.New("shape is not circular")
)

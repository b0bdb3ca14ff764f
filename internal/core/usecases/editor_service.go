package usecases

import (
	"fmt"
	"math"

	"github.com/aitorle/geovault/internal/core/domain"
)

// The resize handle sits at a fixed bearing from a circle's center so it
// lands in a predictable corner of the map view.
const resizeHandleBearing = 45.0

// EditorService backs the map-editing UI: handle placement, default corner
// layout, re-centering after a drag, and camera framing. All operations are
// pure computations over the supplied values.
type EditorService struct{}

// NewEditorService creates a new EditorService.
func NewEditorService() *EditorService {
	return &EditorService{}
}

// ResizeHandle returns where to draw a circle's draggable resize handle.
func (s *EditorService) ResizeHandle(zone domain.Zone) (domain.Coordinate, error) {
	if !zone.Shape.IsCircle() {
		return domain.Coordinate{}, fmt.Errorf("%w: resize handle applies to circles", domain.ErrNotCircular)
	}
	return domain.Destination(zone.Center, resizeHandleBearing, zone.Shape.RadiusMeters), nil
}

// RadiusFromHandle derives the new radius while the user drags the handle.
// The result is clamped to the editing-workflow bounds.
func (s *EditorService) RadiusFromHandle(center, handle domain.Coordinate) float64 {
	return ClampRadius(domain.Distance(center, handle))
}

// DefaultQuadrilateral lays out a square-ish quadrilateral around a center,
// with corners at the four diagonal bearings. sizeMeters is the half-width;
// the corner distance is the resulting half-diagonal.
func (s *EditorService) DefaultQuadrilateral(center domain.Coordinate, sizeMeters float64) (domain.Shape, error) {
	if sizeMeters <= 0 {
		return domain.Shape{}, fmt.Errorf("%w: size must be positive", domain.ErrInvalidShape)
	}

	diag := sizeMeters * math.Sqrt2
	corners := []domain.Coordinate{
		domain.Destination(center, 315, diag), // NW
		domain.Destination(center, 45, diag),  // NE
		domain.Destination(center, 135, diag), // SE
		domain.Destination(center, 225, diag), // SW
	}
	return domain.NewQuadrilateral(corners)
}

// Recenter returns the corner centroid, the value the editing workflow
// stores as a quadrilateral's center after any corner drag.
func (s *EditorService) Recenter(corners []domain.Coordinate) (domain.Coordinate, error) {
	return domain.Centroid(corners)
}

// Viewport returns camera-framing latitude/longitude deltas for a zone.
func (s *EditorService) Viewport(zone domain.Zone) (latDelta, lonDelta float64) {
	return zone.ViewportSpan()
}

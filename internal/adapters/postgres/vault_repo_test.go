package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/aitorle/geovault/internal/core/domain"
)

func TestDecodeShape_Circle(t *testing.T) {
	shape, err := decodeShape("v1", "circle", "153.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shape.IsCircle() {
		t.Fatal("expected a circle")
	}
	if shape.RadiusMeters != 153.4 {
		t.Errorf("expected radius 153.4, got %v", shape.RadiusMeters)
	}
}

func TestDecodeShape_Quadrilateral(t *testing.T) {
	data := "43.26,-2.94;43.26,-2.93;43.27,-2.93;43.27,-2.94"
	shape, err := decodeShape("v1", "quadrilateral", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shape.IsCircle() {
		t.Fatal("expected a quadrilateral")
	}
	if len(shape.Corners) != domain.QuadCorners {
		t.Errorf("expected %d corners, got %d", domain.QuadCorners, len(shape.Corners))
	}
}

func TestDecodeShape_MalformedNamesRow(t *testing.T) {
	_, err := decodeShape("vault-7", "circle", "not-a-number")
	if err == nil {
		t.Fatal("expected error for malformed radius")
	}
	if !errors.Is(err, domain.ErrShapeData) {
		t.Errorf("expected ErrShapeData, got %v", err)
	}
	if !strings.Contains(err.Error(), "vault-7") {
		t.Errorf("expected error to name the row, got %q", err.Error())
	}
}

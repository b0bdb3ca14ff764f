package domain

import (
	"errors"
	"math"
	"testing"
)

func TestShapeCodec_CircleRoundTrip(t *testing.T) {
	s := mustCircle(t, 153.4)

	kind, data, err := EncodeShapeData(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if kind != "circle" {
		t.Errorf("kind: expected circle, got %s", kind)
	}
	if data != "153.4" {
		t.Errorf("data: expected 153.4, got %s", data)
	}

	decoded, err := ParseShapeData(kind, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if decoded.RadiusMeters != 153.4 {
		t.Errorf("radius: expected 153.4, got %v", decoded.RadiusMeters)
	}
}

func TestShapeCodec_QuadRoundTrip(t *testing.T) {
	corners := []Coordinate{
		{43.2630001, -2.9350002},
		{43.2640003, -2.9340004},
		{43.2620005, -2.9330006},
		{43.2610007, -2.9360008},
	}
	s := mustQuad(t, corners)

	kind, data, err := EncodeShapeData(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if kind != "quadrilateral" {
		t.Errorf("kind: expected quadrilateral, got %s", kind)
	}

	decoded, err := ParseShapeData(kind, data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i, c := range decoded.Corners {
		if math.Abs(c.Lat-corners[i].Lat) > 1e-9 || math.Abs(c.Lon-corners[i].Lon) > 1e-9 {
			t.Errorf("corner %d: expected %v, got %v", i, corners[i], c)
		}
	}
}

func TestParseShapeData_Errors(t *testing.T) {
	cases := []struct {
		name string
		kind string
		data string
	}{
		{"unknown kind", "hexagon", "1;2;3"},
		{"garbage radius", "circle", "abc"},
		{"empty radius", "circle", ""},
		{"negative radius", "circle", "-10"},
		{"zero radius", "circle", "0"},
		{"too few corners", "quadrilateral", "1,2;3,4;5,6"},
		{"too many corners", "quadrilateral", "1,2;3,4;5,6;7,8;9,10"},
		{"bad pair", "quadrilateral", "1,2;3,4;5;7,8"},
		{"garbage corner", "quadrilateral", "1,2;3,4;5,x;7,8"},
		{"out of range corner", "quadrilateral", "91,0;0,1;1,1;1,0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseShapeData(tc.kind, tc.data); !errors.Is(err, ErrShapeData) {
				t.Errorf("expected ErrShapeData, got %v", err)
			}
		})
	}
}

func TestParseShapeData_WhitespaceTolerated(t *testing.T) {
	s, err := ParseShapeData("quadrilateral", "0.01, -0.01; 0.01, 0.01; -0.01, 0.01; -0.01, -0.01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(s.Corners) != 4 {
		t.Fatalf("expected 4 corners, got %d", len(s.Corners))
	}
}

func TestEncodeShapeData_UnknownKind(t *testing.T) {
	if _, _, err := EncodeShapeData(Shape{Kind: "blob"}); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("expected ErrInvalidShape, got %v", err)
	}
}

package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/nandanugg/geofence-map/module/core/domain"
)

const tolerance = 1e-6

func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func TestBearingDegrees_Cardinal(t *testing.T) {
	origin := domain.Coordinate{Latitude: 0, Longitude: 0}
	tests := []struct {
		name string
		to   domain.Coordinate
		want float64
	}{
		{"north", domain.Coordinate{Latitude: 1, Longitude: 0}, 0},
		{"east", domain.Coordinate{Latitude: 0, Longitude: 1}, 90},
		{"south", domain.Coordinate{Latitude: -1, Longitude: 0}, 180},
		{"west", domain.Coordinate{Latitude: 0, Longitude: -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearingDegrees(origin, tt.to)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if angleDiff(got, tt.want) > tolerance {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestBearingDegrees_Range(t *testing.T) {
	points := []domain.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 89.9, Longitude: 179.9},
		{Latitude: -89.9, Longitude: -179.9},
		{Latitude: -6.2088, Longitude: 106.8456},
		{Latitude: 37.78825, Longitude: -122.4324},
		{Latitude: 10, Longitude: 180},
		{Latitude: 10, Longitude: -180},
	}
	for _, a := range points {
		for _, b := range points {
			got, err := BearingDegrees(a, b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got < 0 || got >= 360 {
				t.Errorf("bearing %v -> %v out of range: %f", a, b, got)
			}
		}
	}
}

func TestBearingDegrees_SamePoint(t *testing.T) {
	p := domain.Coordinate{Latitude: 10, Longitude: 10}
	got, err := BearingDegrees(p, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestBearingDegrees_InvalidArgument(t *testing.T) {
	ok := domain.Coordinate{Latitude: 1, Longitude: 1}
	bad := []domain.Coordinate{
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.Inf(1)},
	}
	for _, b := range bad {
		if _, err := BearingDegrees(ok, b); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for to=%v, got %v", b, err)
		}
		if _, err := BearingDegrees(b, ok); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for from=%v, got %v", b, err)
		}
	}
}

func TestDestinationPoint_ZeroDistance(t *testing.T) {
	origins := []domain.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 10, Longitude: 10},
		{Latitude: -45.5, Longitude: 170.25},
	}
	for _, o := range origins {
		for _, b := range []float64{0, 45, 180, 359.9} {
			got, err := DestinationPoint(o, 0, b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got.Latitude-o.Latitude) > tolerance || math.Abs(got.Longitude-o.Longitude) > tolerance {
				t.Errorf("expected %v, got %v", o, got)
			}
		}
	}
}

func TestDestinationPoint_RoundTrip(t *testing.T) {
	origins := []domain.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 10, Longitude: 10},
		{Latitude: -6.2088, Longitude: 106.8456},
		{Latitude: 60, Longitude: -179.999},
	}
	distances := []float64{1, 50, 200, 1000, 10000}
	bearings := []float64{0, 1, 45, 90, 135.5, 180, 270, 359}

	for _, a := range origins {
		for _, d := range distances {
			for _, b := range bearings {
				dest, err := DestinationPoint(a, d, b)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got, err := BearingDegrees(a, dest)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if angleDiff(got, b) > 1e-4 {
					t.Errorf("origin %v d=%f: expected bearing %f, got %f", a, d, b, got)
				}
				if dist := Distance(a, dest); math.Abs(dist-d) > 1e-3 {
					t.Errorf("origin %v b=%f: expected distance %f, got %f", a, b, d, dist)
				}
			}
		}
	}
}

func TestDestinationPoint_WrapsLongitude(t *testing.T) {
	got, err := DestinationPoint(domain.Coordinate{Latitude: 0, Longitude: 179.9999}, 1000, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Longitude > 180 || got.Longitude < -180 {
		t.Errorf("longitude out of range: %f", got.Longitude)
	}
}

func TestDestinationPoint_InvalidArgument(t *testing.T) {
	origin := domain.Coordinate{Latitude: 10, Longitude: 10}
	tests := []struct {
		name     string
		origin   domain.Coordinate
		distance float64
		bearing  float64
	}{
		{"nan origin", domain.Coordinate{Latitude: math.NaN()}, 10, 0},
		{"nan distance", origin, math.NaN(), 0},
		{"negative distance", origin, -1, 0},
		{"inf bearing", origin, 10, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DestinationPoint(tt.origin, tt.distance, tt.bearing)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	// same point should be 0
	d := Distance(domain.Coordinate{Latitude: -6.2088, Longitude: 106.8456}, domain.Coordinate{Latitude: -6.2088, Longitude: 106.8456})
	if d != 0 {
		t.Errorf("expected 0, got %f", d)
	}

	// roughly 133m between these two points
	d = Distance(domain.Coordinate{Latitude: -6.2088, Longitude: 106.8456}, domain.Coordinate{Latitude: -6.2100, Longitude: 106.8456})
	if d < 100 || d > 200 {
		t.Errorf("expected ~133m, got %f", d)
	}
}

package geoscore

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name string
		a, b Coord
		want float64
		tol  float64
	}{
		{
			name: "same point",
			a:    Coord{Lat: 51.505, Lng: -0.09},
			b:    Coord{Lat: 51.505, Lng: -0.09},
			want: 0,
			tol:  1e-12,
		},
		{
			name: "London short walk",
			a:    Coord{Lat: 51.505, Lng: -0.09},
			b:    Coord{Lat: 51.51, Lng: -0.1},
			want: 0.8877,
			tol:  0.001,
		},
		{
			name: "Paris to London",
			a:    Coord{Lat: 48.8566, Lng: 2.3522},
			b:    Coord{Lat: 51.5074, Lng: -0.1278},
			want: 343.56,
			tol:  0.05,
		},
		{
			name: "antipodes",
			a:    Coord{Lat: 0, Lng: 0},
			b:    Coord{Lat: 0, Lng: 180},
			want: math.Pi * EarthRadiusKm,
			tol:  1e-6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("DistanceKm() = %v, want %v (±%v)", got, tt.want, tt.tol)
			}
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	points := []Coord{
		{Lat: 51.505, Lng: -0.09},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 35.6762, Lng: 139.6503},
		{Lat: 89.9, Lng: -179.9},
		{Lat: 0, Lng: 0},
	}
	for _, a := range points {
		if d := DistanceKm(a, a); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			if ab, ba := DistanceKm(a, b), DistanceKm(b, a); math.Abs(ab-ba) > 1e-9 {
				t.Errorf("DistanceKm not symmetric for %v/%v: %v vs %v", a, b, ab, ba)
			}
		}
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		maxKm    float64
		want     int
	}{
		{"zero distance", 0, DefaultMaxKm, 100},
		{"at cap", 10, DefaultMaxKm, 350},
		{"beyond cap", 42, DefaultMaxKm, 350},
		{"rounds down", 0.8877, DefaultMaxKm, 122},
		{"rounds up", 0.96, DefaultMaxKm, 124},
		{"half point", 0.02, DefaultMaxKm, 101},
		{"negative distance", -3, DefaultMaxKm, 100},
		{"custom cap", 8, 5, 225},
		{"zero cap uses default", 12, 0, 350},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Points(tt.distance, tt.maxKm); got != tt.want {
				t.Errorf("Points(%v, %v) = %d, want %d", tt.distance, tt.maxKm, got, tt.want)
			}
		})
	}
}

func TestPointsClampIdempotent(t *testing.T) {
	for d := 0.0; d <= 30; d += 0.37 {
		if got, want := Points(d, DefaultMaxKm), Points(math.Min(d, DefaultMaxKm), DefaultMaxKm); got != want {
			t.Fatalf("Points(%v) = %d, Points(min(%v, 10)) = %d", d, got, d, want)
		}
	}
}

func TestPointsBetween(t *testing.T) {
	user := Coord{Lat: 51.505, Lng: -0.09}
	place := Coord{Lat: 51.51, Lng: -0.1}
	if got := PointsBetween(user, place, DefaultMaxKm); got != 122 {
		t.Errorf("PointsBetween() = %d, want 122", got)
	}
}

func TestFormatDistance(t *testing.T) {
	if got := FormatDistance(0.4567); got != "457m" {
		t.Errorf("FormatDistance(0.4567) = %q", got)
	}
	if got := FormatDistance(3.14159); got != "3.14km" {
		t.Errorf("FormatDistance(3.14159) = %q", got)
	}
}

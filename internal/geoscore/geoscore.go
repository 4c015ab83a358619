package geoscore

import (
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the sphere radius used for walking distances.
	EarthRadiusKm = 6371.0

	// BasePoints is awarded for any completed challenge, however short.
	BasePoints = 100
	// PointsPerKm is added for every kilometre up to the cap.
	PointsPerKm = 25.0
	// DefaultMaxKm caps the distance that earns points.
	DefaultMaxKm = 10.0
)

// Coord is a WGS84 latitude/longitude pair in degrees.
type Coord struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Haversine distance (km) between two lat/lng points (degrees).
// Out-of-range input is not rejected; the result is just meaningless.
func DistanceKm(a, b Coord) float64 {
	φ1 := a.Lat * math.Pi / 180.0
	φ2 := b.Lat * math.Pi / 180.0
	dφ := (b.Lat - a.Lat) * math.Pi / 180.0
	dλ := (b.Lng - a.Lng) * math.Pi / 180.0

	sinDφ := math.Sin(dφ / 2)
	sinDλ := math.Sin(dλ / 2)

	h := sinDφ*sinDφ + math.Cos(φ1)*math.Cos(φ2)*sinDλ*sinDλ
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// ClampKm bounds a distance to [0, maxKm]. A non-positive maxKm means DefaultMaxKm.
func ClampKm(distanceKm, maxKm float64) float64 {
	if maxKm <= 0 {
		maxKm = DefaultMaxKm
	}
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		return 0
	}
	return math.Min(distanceKm, maxKm)
}

// Points returns round(100 + min(d, maxKm) * 25).
// With the default cap the result is in [100, 350].
func Points(distanceKm, maxKm float64) int {
	clamped := ClampKm(distanceKm, maxKm)
	return int(math.Round(BasePoints + clamped*PointsPerKm))
}

// PointsBetween scores a walk from one coordinate to another.
func PointsBetween(from, to Coord, maxKm float64) int {
	return Points(DistanceKm(from, to), maxKm)
}

// FormatDistance formats distance in a human-readable way.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0fm", km*1000)
	}
	return fmt.Sprintf("%.2fkm", km)
}

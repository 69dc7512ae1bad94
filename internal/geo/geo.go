// Package geo provides great-circle distance and travel-time arithmetic for
// the route solver.
package geo

import (
	"errors"
	"math"

	"routeopt/internal/model"
)

const earthRadiusKm = 6371.0

// ErrInvalidSpeed reports a non-positive vehicle speed. Speed is validated at
// settings load, so the solver never sees it at runtime.
var ErrInvalidSpeed = errors.New("geo: speed must be positive")

// DistanceKm returns the haversine distance in kilometers between two points.
// Symmetric, zero iff a == b, and satisfies the triangle inequality, so it is
// an admissible lower bound for pruning.
func DistanceKm(a, b model.GeoPoint) float64 {
	lat1r := a.Lat * math.Pi / 180
	lat2r := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// TravelMinutes returns the travel time in minutes between two points at the
// given speed.
func TravelMinutes(a, b model.GeoPoint, speedKmph float64) (float64, error) {
	if speedKmph <= 0 {
		return 0, ErrInvalidSpeed
	}
	return DistanceKm(a, b) / speedKmph * 60, nil
}

// Matrix holds precomputed pairwise distances and travel times for a solve.
type Matrix struct {
	Points  []model.GeoPoint
	DistKm  [][]float64
	Minutes [][]float64
}

// BuildMatrix computes the full pairwise distance and time matrices.
func BuildMatrix(points []model.GeoPoint, speedKmph float64) (*Matrix, error) {
	if speedKmph <= 0 {
		return nil, ErrInvalidSpeed
	}
	n := len(points)
	m := &Matrix{
		Points:  points,
		DistKm:  make([][]float64, n),
		Minutes: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		m.DistKm[i] = make([]float64, n)
		m.Minutes[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := DistanceKm(points[i], points[j])
			m.DistKm[i][j] = d
			m.Minutes[i][j] = d / speedKmph * 60
		}
	}
	return m, nil
}

// ValidCoordinates reports whether lat/lng are within range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

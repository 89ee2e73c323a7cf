// Package geo holds the spherical geometry used to draw geofence crossings.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/nandanugg/geofence-map/module/core/domain"
)

// EarthRadiusMeters is Earth's mean radius.
const EarthRadiusMeters = 6371000.0

var ErrInvalidArgument = errors.New("invalid argument")

func latLng(c domain.Coordinate) (s2.LatLng, error) {
	if !finite(c.Latitude) {
		return s2.LatLng{}, fmt.Errorf("%w: latitude %v", ErrInvalidArgument, c.Latitude)
	}
	if !finite(c.Longitude) {
		return s2.LatLng{}, fmt.Errorf("%w: longitude %v", ErrInvalidArgument, c.Longitude)
	}
	return s2.LatLngFromDegrees(c.Latitude, c.Longitude), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BearingDegrees returns the great-circle initial bearing from one coordinate to
// another, in [0, 360). The bearing from a point to itself is 0.
func BearingDegrees(from, to domain.Coordinate) (float64, error) {
	p1, err := latLng(from)
	if err != nil {
		return 0, fmt.Errorf("from: %w", err)
	}
	p2, err := latLng(to)
	if err != nil {
		return 0, fmt.Errorf("to: %w", err)
	}

	lat1 := p1.Lat.Radians()
	lat2 := p2.Lat.Radians()
	lonDiff := p2.Lng.Radians() - p1.Lng.Radians()

	y := math.Sin(lonDiff) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lonDiff)

	return normalizeDegrees((s1.Angle(math.Atan2(y, x))).Degrees()), nil
}

// DestinationPoint returns the point reached by travelling distanceMeters from origin
// along the given initial bearing.
func DestinationPoint(origin domain.Coordinate, distanceMeters, bearingDegrees float64) (domain.Coordinate, error) {
	p, err := latLng(origin)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("origin: %w", err)
	}
	if !finite(distanceMeters) || distanceMeters < 0 {
		return domain.Coordinate{}, fmt.Errorf("%w: distance %v", ErrInvalidArgument, distanceMeters)
	}
	if !finite(bearingDegrees) {
		return domain.Coordinate{}, fmt.Errorf("%w: bearing %v", ErrInvalidArgument, bearingDegrees)
	}
	if distanceMeters == 0 {
		return origin, nil
	}

	brng := (s1.Angle(normalizeDegrees(bearingDegrees)) * s1.Degree).Radians()
	angular := distanceMeters / EarthRadiusMeters
	lat1 := p.Lat.Radians()
	lon1 := p.Lng.Radians()

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angular) +
		math.Cos(lat1)*math.Sin(angular)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angular)*math.Cos(lat1),
		math.Cos(angular)-math.Sin(lat1)*math.Sin(lat2),
	)

	dest := s2.LatLng{Lat: s1.Angle(lat2), Lng: s1.Angle(lon2)}.Normalized()
	return domain.Coordinate{Latitude: dest.Lat.Degrees(), Longitude: dest.Lng.Degrees()}, nil
}

// Distance returns the great-circle distance in meters. Non-finite input yields NaN.
func Distance(a, b domain.Coordinate) float64 {
	p1, err := latLng(a)
	if err != nil {
		return math.NaN()
	}
	p2, err := latLng(b)
	if err != nil {
		return math.NaN()
	}
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}

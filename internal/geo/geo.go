// Package geo holds the coordinate rules shared by the alert ledger: range
// validation, great-circle distance and the bounding box used to prefilter
// proximity queries in SQL.
package geo

import (
	"errors"
	"math"
)

const earthRadiusMeters = 6371000.0

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Point is a WGS84 position. Longitude comes first, matching the
// [longitude, latitude] pair the store keeps.
type Point struct {
	Longitude float64
	Latitude  float64
}

func NewPoint(longitude, latitude float64) (Point, error) {
	p := Point{Longitude: longitude, Latitude: latitude}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// Coordinates returns the ordered (longitude, latitude) pair.
func (p Point) Coordinates() [2]float64 {
	return [2]float64{p.Longitude, p.Latitude}
}

// DistanceMeters is the haversine distance between two points.
func DistanceMeters(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// BoundingBox covers every point within radiusMeters of center. Longitude
// bounds are clamped to [-180, 180] rather than wrapped, so a box crossing the
// antimeridian over-selects; callers filter by exact distance afterwards.
type BoundingBox struct {
	MinLongitude float64
	MaxLongitude float64
	MinLatitude  float64
	MaxLatitude  float64
}

func BoundingBoxAround(center Point, radiusMeters float64) BoundingBox {
	latDelta := radiusMeters / earthRadiusMeters * 180 / math.Pi

	minLat := math.Max(center.Latitude-latDelta, -90)
	maxLat := math.Min(center.Latitude+latDelta, 90)

	// Near the poles every longitude is within reach.
	cosLat := math.Cos(toRadians(center.Latitude))
	if minLat == -90 || maxLat == 90 || cosLat < 1e-9 {
		return BoundingBox{MinLongitude: -180, MaxLongitude: 180, MinLatitude: minLat, MaxLatitude: maxLat}
	}

	lonDelta := latDelta / cosLat
	minLon := center.Longitude - lonDelta
	maxLon := center.Longitude + lonDelta
	if minLon < -180 || maxLon > 180 {
		minLon, maxLon = -180, 180
	}

	return BoundingBox{MinLongitude: minLon, MaxLongitude: maxLon, MinLatitude: minLat, MaxLatitude: maxLat}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

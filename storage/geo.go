package storage

import (
	"math"
)

const earthRadiusMeters = 6371000.0

// Exact great-circle distance between two points, in meters.
func HaversineMeters(aLat, aLon, bLat, bLon float64) float64 {
	aLatRad := aLat * math.Pi / 180
	aLonRad := aLon * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	bLonRad := bLon * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLon := aLonRad - bLonRad

	a := math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2) + math.Pow(math.Sin(deltaLat/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return c * earthRadiusMeters
}

// A coarse lat/lon rectangle used to prefilter candidates before the
// exact haversine distance is computed.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoxAround builds a box guaranteed to contain every point within
// radiusMeters of (lat, lon). The degree conversion deliberately
// over-estimates (smallest meters-per-degree on Earth, cosine taken at
// the box edge) so the exact pass never misses a candidate.
func BoxAround(lat, lon, radiusMeters float64) BoundingBox {
	// 1 degree of latitude is at least 110574 meters everywhere.
	latMargin := radiusMeters / 110574.0

	box := BoundingBox{
		MinLat: math.Max(lat-latMargin, -90),
		MaxLat: math.Min(lat+latMargin, 90),
	}

	// Longitude degrees shrink with the cosine of the latitude; use
	// the box latitude closest to a pole so the margin only grows.
	edgeLat := math.Max(math.Abs(box.MinLat), math.Abs(box.MaxLat))
	cosLat := math.Cos(edgeLat * math.Pi / 180)
	if cosLat < 0.01 {
		// Near the poles the box degenerates; take all longitudes.
		box.MinLon, box.MaxLon = -180, 180
		return box
	}

	lonMargin := radiusMeters / (111320.0 * cosLat)
	box.MinLon = math.Max(lon-lonMargin, -180)
	box.MaxLon = math.Min(lon+lonMargin, 180)
	return box
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Whole covers every valid coordinate.
func (b BoundingBox) Whole() bool {
	return b.MinLat == -90 && b.MaxLat == 90 && b.MinLon == -180 && b.MaxLon == 180
}

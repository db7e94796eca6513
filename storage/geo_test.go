package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineMeters(t *testing.T) {
	// Same point.
	assert.Equal(t, 0.0, HaversineMeters(47.6097, -122.3381, 47.6097, -122.3381))

	// Seattle to Portland, roughly 233 km.
	d := HaversineMeters(47.6062, -122.3321, 45.5152, -122.6784)
	assert.InDelta(t, 233000, d, 2000)

	// One degree of latitude at the equator, roughly 111.2 km.
	d = HaversineMeters(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 100)

	// Symmetry.
	assert.InDelta(t,
		HaversineMeters(40.7128, -74.0060, 51.5074, -0.1278),
		HaversineMeters(51.5074, -0.1278, 40.7128, -74.0060),
		1e-6)
}

func TestBoxAroundContainsRadius(t *testing.T) {
	// Every point within the radius must land inside the box. Check
	// the four cardinal offsets at a few latitudes and radii.
	for _, lat := range []float64{0, 47.6, -33.9, 69.6} {
		for _, radius := range []float64{100, 1000, 50000} {
			box := BoxAround(lat, 10.0, radius)

			latOffset := radius / 110574.0
			assert.True(t, box.Contains(lat+latOffset*0.999, 10.0))
			assert.True(t, box.Contains(lat-latOffset*0.999, 10.0))

			// A generous eastward offset still fits because the
			// conversion over-estimates.
			assert.True(t, box.Contains(lat, 10.0+radius/111320.0))
		}
	}
}

func TestBoxAroundClamping(t *testing.T) {
	box := BoxAround(89.9, 0, 100000)
	assert.Equal(t, 90.0, box.MaxLat)
	// Near the pole the box covers all longitudes.
	assert.Equal(t, -180.0, box.MinLon)
	assert.Equal(t, 180.0, box.MaxLon)
	assert.False(t, box.Whole())

	box = BoxAround(0, 0, 30000000)
	assert.True(t, box.Whole())
}

func TestBoxAroundExcludesFarPoints(t *testing.T) {
	box := BoxAround(47.6, -122.3, 500)
	assert.True(t, box.Contains(47.6, -122.3))
	assert.False(t, box.Contains(47.7, -122.3))
	assert.False(t, box.Contains(47.6, -121.0))
}

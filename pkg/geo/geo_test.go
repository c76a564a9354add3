package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKmIdentityAndSymmetry(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 12.9716, Lng: 77.5946},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: 89.9, Lng: 179.9},
	}
	for _, a := range points {
		assert.Zero(t, DistanceKm(a, a))
		for _, b := range points {
			assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
		}
	}
}

func TestDistanceKmKnownValues(t *testing.T) {
	london := Point{Lat: 51.5074, Lng: -0.1278}
	paris := Point{Lat: 48.8566, Lng: 2.3522}
	assert.InDelta(t, 343.5, DistanceKm(london, paris), 1.0)

	// one degree of latitude along a meridian
	assert.InDelta(t, 111.19, DistanceKm(Point{Lat: 0, Lng: 0}, Point{Lat: 1, Lng: 0}), 0.01)

	antipodal := DistanceKm(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 180})
	assert.InDelta(t, math.Pi*EarthRadiusKm, antipodal, 1e-6)
}

func TestDistanceKmNaNPropagates(t *testing.T) {
	d := DistanceKm(Point{Lat: math.NaN(), Lng: 0}, Point{Lat: 1, Lng: 1})
	assert.True(t, math.IsNaN(d))
}

func TestParsePoint(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  Point
		ok    bool
	}{
		{"wkt", "POINT(77.5946 12.9716)", Point{Lat: 12.9716, Lng: 77.5946}, true},
		{"wkt with srid", "SRID=4326;POINT(-0.1278 51.5074)", Point{Lat: 51.5074, Lng: -0.1278}, true},
		{"wkt lowercase spaced", " point ( 2.35 48.85 ) ", Point{Lat: 48.85, Lng: 2.35}, true},
		{"json", `{"latitude": 12.5, "longitude": 77.25}`, Point{Lat: 12.5, Lng: 77.25}, true},
		{"json short keys", `{"lat": -1.5, "lng": 36.8}`, Point{Lat: -1.5, Lng: 36.8}, true},
		{"json missing key", `{"latitude": 12.5}`, Point{}, false},
		{"json out of range", `{"latitude": 120, "longitude": 0}`, Point{}, false},
		{"wkt out of range", "POINT(200 10)", Point{}, false},
		{"free text", "MG Road, Bengaluru", Point{}, false},
		{"empty", "   ", Point{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParsePoint(tc.input)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want.Lat, got.Lat, 1e-9)
				assert.InDelta(t, tc.want.Lng, got.Lng, 1e-9)
			}
		})
	}
}

func TestPointWKTRoundTrip(t *testing.T) {
	p := Point{Lat: 12.9716, Lng: 77.5946}
	assert.Equal(t, "POINT(77.5946 12.9716)", p.WKT())
	parsed, ok := ParsePoint(p.WKT())
	require.True(t, ok)
	assert.Equal(t, p, parsed)
}

func TestParseLatLng(t *testing.T) {
	p, err := ParseLatLng("12.97, 77.59")
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 12.97, Lng: 77.59}, p)

	_, err = ParseLatLng("12.97")
	require.Error(t, err)
	_, err = ParseLatLng("95,10")
	require.Error(t, err)
}

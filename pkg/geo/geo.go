// Package geo holds the coordinate types and pure helpers used for proximity matching.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Point is a WGS84 latitude/longitude pair.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether the point lies within the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// WKT renders the point as POINT(lng lat).
func (p Point) WKT() string {
	return fmt.Sprintf("POINT(%s %s)", formatCoord(p.Lng), formatCoord(p.Lat))
}

func (p Point) String() string {
	return formatCoord(p.Lat) + "," + formatCoord(p.Lng)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DistanceKm returns the haversine great-circle distance between a and b.
// NaN inputs yield NaN.
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair above 1 for antipodal points
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

var wktPoint = regexp.MustCompile(`(?i)^\s*(?:SRID=\d+;)?\s*POINT\s*\(\s*(-?[\d.]+(?:[eE][-+]?\d+)?)\s+(-?[\d.]+(?:[eE][-+]?\d+)?)\s*\)\s*$`)

// ParsePoint accepts either a WKT "POINT(lng lat)" string or a JSON object
// with latitude/longitude (lat/lng also accepted). It returns false for
// anything else, including out-of-range coordinates.
func ParsePoint(raw string) (Point, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Point{}, false
	}
	if m := wktPoint.FindStringSubmatch(raw); m != nil {
		lng, errLng := strconv.ParseFloat(m[1], 64)
		lat, errLat := strconv.ParseFloat(m[2], 64)
		if errLng != nil || errLat != nil {
			return Point{}, false
		}
		p := Point{Lat: lat, Lng: lng}
		return p, p.Valid()
	}
	if strings.HasPrefix(raw, "{") {
		return parseJSONPoint(raw)
	}
	return Point{}, false
}

type jsonPoint struct {
	Latitude  *json.Number `json:"latitude"`
	Longitude *json.Number `json:"longitude"`
	Lat       *json.Number `json:"lat"`
	Lng       *json.Number `json:"lng"`
}

func parseJSONPoint(raw string) (Point, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var jp jsonPoint
	if err := dec.Decode(&jp); err != nil {
		return Point{}, false
	}
	latNum, lngNum := jp.Latitude, jp.Longitude
	if latNum == nil {
		latNum = jp.Lat
	}
	if lngNum == nil {
		lngNum = jp.Lng
	}
	if latNum == nil || lngNum == nil {
		return Point{}, false
	}
	lat, errLat := latNum.Float64()
	lng, errLng := lngNum.Float64()
	if errLat != nil || errLng != nil {
		return Point{}, false
	}
	p := Point{Lat: lat, Lng: lng}
	return p, p.Valid()
}

// ParseLatLng parses "lat,lng" pairs as typed on a command line.
func ParseLatLng(raw string) (Point, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("expected lat,lng got %q", raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse longitude: %w", err)
	}
	p := Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return Point{}, fmt.Errorf("coordinates out of range: %s", raw)
	}
	return p, nil
}

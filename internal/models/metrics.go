package models

import "time"

// SystemMetrics is the lightweight counter snapshot served to admins.
type SystemMetrics struct {
	RequestsTotal        uint64    `json:"requestsTotal"`
	TransitionsTotal     uint64    `json:"transitionsTotal"`
	GeocodeRequests      uint64    `json:"geocodeRequests"`
	GeocodeFailures      uint64    `json:"geocodeFailures"`
	GeocodeCacheHits     uint64    `json:"geocodeCacheHits"`
	GeocodeCacheMisses   uint64    `json:"geocodeCacheMisses"`
	GeocodeCacheHitRatio float64   `json:"geocodeCacheHitRatio"`
	Goroutines           int       `json:"goroutines"`
	GeneratedAt          time.Time `json:"generatedAt"`
}

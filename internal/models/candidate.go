package models

import (
	"database/sql"

	"github.com/noah-isme/food-rescue-api/pkg/geo"
)

// CandidateKind distinguishes the candidate pools.
type CandidateKind string

const (
	CandidateVolunteer CandidateKind = "volunteer"
	CandidateReceiver  CandidateKind = "receiver"
)

// Candidate is a volunteer or receiving organisation evaluated for proximity.
type Candidate struct {
	ID        string          `db:"id" json:"id"`
	Kind      CandidateKind   `db:"-" json:"kind"`
	Name      string          `db:"name" json:"name"`
	Phone     string          `db:"phone" json:"phone,omitempty"`
	Email     string          `db:"email" json:"email,omitempty"`
	Address   string          `db:"address" json:"address"`
	Location  sql.NullString  `db:"location" json:"-"`
	Latitude  sql.NullFloat64 `db:"latitude" json:"-"`
	Longitude sql.NullFloat64 `db:"longitude" json:"-"`
}

// KnownPoint returns pre-resolved coordinates from the numeric columns.
func (c Candidate) KnownPoint() (geo.Point, bool) {
	if !c.Latitude.Valid || !c.Longitude.Valid {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: c.Latitude.Float64, Lng: c.Longitude.Float64}
	return p, p.Valid()
}

// LocationQuery is the text handed to the resolver when no numeric coordinates
// are stored: the raw location column if set, otherwise the address.
func (c Candidate) LocationQuery() string {
	if c.Location.Valid && c.Location.String != "" {
		return c.Location.String
	}
	return c.Address
}

// RankedCandidate pairs a candidate with its transient distance from a reference point.
type RankedCandidate struct {
	Candidate
	Coordinates geo.Point `json:"coordinates"`
	DistanceKm  float64   `json:"distanceKm"`
}

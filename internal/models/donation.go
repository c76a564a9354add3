package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/food-rescue-api/pkg/geo"
)

// DonationStatus captures workflow states for a donation. Values are persisted verbatim.
type DonationStatus string

const (
	DonationStatusPending           DonationStatus = "pending"
	DonationStatusApproved          DonationStatus = "approved"
	DonationStatusRejected          DonationStatus = "rejected"
	DonationStatusApprovedF         DonationStatus = "approvedF"
	DonationStatusRejectedF         DonationStatus = "rejectedF"
	DonationStatusPendingOtherNGO   DonationStatus = "pending_other_ngo"
	DonationStatusCancelled         DonationStatus = "cancelled"
	DonationStatusVolunteerAssigned DonationStatus = "volunteer is assigned"
	DonationStatusOnTheWayToReceive DonationStatus = "on the way to receive food"
	DonationStatusFoodCollected     DonationStatus = "food collected"
	DonationStatusOnTheWayToDeliver DonationStatus = "on the way to deliver food"
	DonationStatusDelivered         DonationStatus = "delivered the food"
	DonationStatusReceiverConfirmed DonationStatus = "receiver confirmed"
)

// AllDonationStatuses lists every known status in workflow order.
var AllDonationStatuses = []DonationStatus{
	DonationStatusPending,
	DonationStatusApproved,
	DonationStatusRejected,
	DonationStatusApprovedF,
	DonationStatusRejectedF,
	DonationStatusPendingOtherNGO,
	DonationStatusCancelled,
	DonationStatusVolunteerAssigned,
	DonationStatusOnTheWayToReceive,
	DonationStatusFoodCollected,
	DonationStatusOnTheWayToDeliver,
	DonationStatusDelivered,
	DonationStatusReceiverConfirmed,
}

// Valid reports whether s is a known status.
func (s DonationStatus) Valid() bool {
	for _, known := range AllDonationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s DonationStatus) Terminal() bool {
	switch s {
	case DonationStatusRejected, DonationStatusCancelled, DonationStatusReceiverConfirmed:
		return true
	}
	return false
}

// HasVolunteer reports whether a donation in status s carries a volunteer.
func (s DonationStatus) HasVolunteer() bool {
	switch s {
	case DonationStatusVolunteerAssigned,
		DonationStatusOnTheWayToReceive,
		DonationStatusFoodCollected,
		DonationStatusOnTheWayToDeliver,
		DonationStatusDelivered,
		DonationStatusReceiverConfirmed:
		return true
	}
	return false
}

// Donation is a surplus food offer tracked through the hand-off workflow.
type Donation struct {
	ID            string          `db:"id" json:"id"`
	Description   string          `db:"description" json:"description"`
	FoodTypes     pq.StringArray  `db:"food_type" json:"foodTypes"`
	Quantity      string          `db:"quantity" json:"quantity"`
	Instructions  string          `db:"instructions" json:"instructions"`
	DonorName     string          `db:"donor_name" json:"donorName"`
	DonorContact  string          `db:"donor_contact" json:"donorContact"`
	Images        pq.StringArray  `db:"images" json:"images"`
	Location      string          `db:"location" json:"location"`
	Latitude      sql.NullFloat64 `db:"latitude" json:"-"`
	Longitude     sql.NullFloat64 `db:"longitude" json:"-"`
	ProducingTime *time.Time      `db:"producing_time" json:"producingTime,omitempty"`
	LastingTime   *time.Time      `db:"lasting_time" json:"lastingTime,omitempty"`
	Status        DonationStatus  `db:"status" json:"status"`
	DonorID       string          `db:"donor_id" json:"donorId"`
	NGOID         *string         `db:"ngo_id" json:"ngoId,omitempty"`
	VolunteerID   *string         `db:"volunteer_id" json:"volunteerId,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`

	Coordinates *geo.Point `db:"-" json:"coordinates,omitempty"`
}

// Point returns the stored coordinates, if any.
func (d *Donation) Point() (geo.Point, bool) {
	if d == nil || !d.Latitude.Valid || !d.Longitude.Valid {
		return geo.Point{}, false
	}
	return geo.Point{Lat: d.Latitude.Float64, Lng: d.Longitude.Float64}, true
}

// SetPoint stores p on the donation.
func (d *Donation) SetPoint(p geo.Point) {
	d.Latitude = sql.NullFloat64{Float64: p.Lat, Valid: true}
	d.Longitude = sql.NullFloat64{Float64: p.Lng, Valid: true}
	d.Coordinates = &p
}

// HydrateCoordinates fills the JSON coordinates field from the nullable columns.
func (d *Donation) HydrateCoordinates() {
	if p, ok := d.Point(); ok {
		d.Coordinates = &p
	}
}

// DonationFilter constrains listing queries. Empty fields are ignored.
type DonationFilter struct {
	Status      []DonationStatus
	DonorID     string
	NGOID       string
	VolunteerID string
	// OrStatus widens the scoped filter (NGO or volunteer) with unclaimed rows
	// in these statuses, e.g. open offers a receiver may accept.
	OrStatus []DonationStatus
	Limit    int
	Offset   int
}

// DonationUpdate is a compare-and-swap status write. The update only applies
// while the stored status still equals ExpectedStatus.
type DonationUpdate struct {
	ID             string
	ExpectedStatus DonationStatus
	Status         DonationStatus
	SetVolunteerID *string
	SetNGOID       *string
	ClearNGOID     bool
	UpdatedAt      time.Time
}

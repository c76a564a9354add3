package models

import "time"

// Audience is the role class a notification targets.
type Audience string

const (
	AudienceAdmin     Audience = "admin"
	AudienceDonor     Audience = "donor"
	AudienceReceiver  Audience = "receiver"
	AudienceVolunteer Audience = "volunteer"
)

// Notification types.
const (
	NotificationStatusUpdate  = "status_update"
	NotificationDonationOffer = "donation_offer"
	NotificationNewDonation   = "new_donation"
)

// Notification is an inbox entry emitted by donation workflow transitions.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	For         Audience  `db:"for" json:"for"`
	Type        string    `db:"type" json:"type"`
	DonationID  string    `db:"donation_id" json:"donationId"`
	RecipientID *string   `db:"recipient_id" json:"recipientId,omitempty"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// NotificationFilter scopes an inbox query. With RecipientID set, rows
// addressed to that recipient and role-wide rows (no recipient) both match.
type NotificationFilter struct {
	For         Audience
	RecipientID string
	UnreadOnly  bool
	Limit       int
	Offset      int
}

package dto

import (
	"time"

	"github.com/noah-isme/food-rescue-api/internal/models"
)

// CreateDonationRequest is the payload a donor submits when offering food.
type CreateDonationRequest struct {
	Description   string     `json:"description" validate:"required,max=500"`
	FoodTypes     []string   `json:"foodTypes" validate:"required,min=1,dive,required"`
	Quantity      string     `json:"quantity" validate:"required,max=100"`
	Instructions  string     `json:"instructions" validate:"max=1000"`
	DonorName     string     `json:"donorName" validate:"required,max=200"`
	DonorContact  string     `json:"donorContact" validate:"required,max=100"`
	Images        []string   `json:"images" validate:"omitempty,dive,url"`
	Location      string     `json:"location" validate:"required"`
	Latitude      *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64   `json:"longitude" validate:"omitempty,longitude"`
	ProducingTime *time.Time `json:"producingTime"`
	LastingTime   *time.Time `json:"lastingTime"`
}

// DonationQuery filters donation listings.
type DonationQuery struct {
	Status []string `form:"status"`
	Limit  int      `form:"limit"`
	Offset int      `form:"offset"`
}

// TransitionRequest moves a donation to a new status.
type TransitionRequest struct {
	Status      string `json:"status" validate:"required"`
	VolunteerID string `json:"volunteerId"`
	NGOID       string `json:"ngoId"`
}

// AssignVolunteerRequest picks a volunteer from the ranked candidates.
type AssignVolunteerRequest struct {
	VolunteerID string `json:"volunteerId" validate:"required"`
}

// VolunteerMatchResponse lists volunteers near a donation, nearest first.
type VolunteerMatchResponse struct {
	DonationID string                   `json:"donationId"`
	RadiusKm   float64                  `json:"radiusKm"`
	Candidates []models.RankedCandidate `json:"candidates"`
}

// ReofferResponse reports which NGOs were offered a declined donation.
type ReofferResponse struct {
	Donation *models.Donation         `json:"donation"`
	RadiusKm float64                  `json:"radiusKm"`
	Offered  []models.RankedCandidate `json:"offered"`
}

// DonationExportQuery selects rows and format for the admin export.
type DonationExportQuery struct {
	Format string   `form:"format"`
	Status []string `form:"status"`
}

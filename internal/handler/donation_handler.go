package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/food-rescue-api/internal/dto"
	"github.com/noah-isme/food-rescue-api/internal/models"
	"github.com/noah-isme/food-rescue-api/internal/service"
	appErrors "github.com/noah-isme/food-rescue-api/pkg/errors"
	"github.com/noah-isme/food-rescue-api/pkg/response"
)

type donationService interface {
	Create(ctx context.Context, req dto.CreateDonationRequest, actor models.Actor) (*models.Donation, error)
	Get(ctx context.Context, id string, actor models.Actor) (*models.Donation, error)
	List(ctx context.Context, query dto.DonationQuery, actor models.Actor) ([]models.Donation, *models.Pagination, error)
	Transition(ctx context.Context, id string, target models.DonationStatus, actor models.Actor, opts service.TransitionOptions) (*models.Donation, error)
	MatchVolunteers(ctx context.Context, id string, radiusKm float64, actor models.Actor) ([]models.RankedCandidate, float64, error)
	AssignVolunteer(ctx context.Context, id, volunteerID string, actor models.Actor) (*models.Donation, error)
	OfferToOtherNGOs(ctx context.Context, id string, actor models.Actor) (*service.OfferResult, error)
}

// DonationHandler exposes the donation workflow.
type DonationHandler struct {
	service donationService
}

// NewDonationHandler builds a new handler.
func NewDonationHandler(service donationService) *DonationHandler {
	return &DonationHandler{service: service}
}

// Create godoc
// @Summary Submit a donation
// @Tags Donations
// @Accept json
// @Produce json
// @Param payload body dto.CreateDonationRequest true "Donation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /donations [post]
func (h *DonationHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid donation payload"))
		return
	}
	donation, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, donation)
}

// List godoc
// @Summary List donations visible to the caller
// @Tags Donations
// @Produce json
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /donations [get]
func (h *DonationHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.DonationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid query parameters"))
		return
	}
	donations, pagination, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, donations, pagination)
}

// Get godoc
// @Summary Get a donation
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /donations/{id} [get]
func (h *DonationHandler) Get(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	donation, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, donation)
}

// Transition godoc
// @Summary Move a donation to a new status
// @Tags Donations
// @Accept json
// @Produce json
// @Param id path string true "Donation ID"
// @Param payload body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /donations/{id}/transition [post]
func (h *DonationHandler) Transition(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid transition payload"))
		return
	}
	if req.Status == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status is required"))
		return
	}
	donation, err := h.service.Transition(c.Request.Context(), c.Param("id"), models.DonationStatus(req.Status), actor,
		service.TransitionOptions{VolunteerID: req.VolunteerID, NGOID: req.NGOID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, donation)
}

// Volunteers godoc
// @Summary Rank volunteers near a donation
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Param radiusKm query number false "Search radius in km"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /donations/{id}/volunteers [get]
func (h *DonationHandler) Volunteers(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	radius, err := floatQuery(c, "radiusKm")
	if err != nil {
		response.Error(c, err)
		return
	}
	id := c.Param("id")
	candidates, used, err := h.service.MatchVolunteers(c.Request.Context(), id, radius, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	if candidates == nil {
		candidates = []models.RankedCandidate{}
	}
	response.OK(c, dto.VolunteerMatchResponse{DonationID: id, RadiusKm: used, Candidates: candidates})
}

// Assign godoc
// @Summary Assign a volunteer to a ready donation
// @Tags Donations
// @Accept json
// @Produce json
// @Param id path string true "Donation ID"
// @Param payload body dto.AssignVolunteerRequest true "Volunteer"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /donations/{id}/assign [post]
func (h *DonationHandler) Assign(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.AssignVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid assignment payload"))
		return
	}
	donation, err := h.service.AssignVolunteer(c.Request.Context(), c.Param("id"), req.VolunteerID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, donation)
}

// Reoffer godoc
// @Summary Offer a declined donation to nearby NGOs
// @Tags Donations
// @Produce json
// @Param id path string true "Donation ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /donations/{id}/reoffer [post]
func (h *DonationHandler) Reoffer(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.OfferToOtherNGOs(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.NoCandidates {
		response.Error(c, appErrors.ErrNoCandidates)
		return
	}
	response.OK(c, dto.ReofferResponse{Donation: result.Donation, RadiusKm: result.RadiusKm, Offered: result.Offered})
}

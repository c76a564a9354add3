package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/food-rescue-api/internal/dto"
	"github.com/noah-isme/food-rescue-api/internal/models"
	"github.com/noah-isme/food-rescue-api/internal/service"
	"github.com/noah-isme/food-rescue-api/pkg/response"
)

type exportService interface {
	Donations(ctx context.Context, query dto.DonationExportQuery, actor models.Actor) (*service.ExportFile, error)
}

// ExportHandler streams admin exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Donations godoc
// @Summary Export donations
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Param status query []string false "Status filter" collectionFormat(multi)
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /admin/donations/export [get]
func (h *ExportHandler) Donations(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.DonationExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, invalidPayload(err, "invalid export parameters"))
		return
	}
	file, err := h.service.Donations(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Export-Rows", strconv.Itoa(file.Rows))
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

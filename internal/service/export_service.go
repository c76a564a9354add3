package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/food-rescue-api/internal/dto"
	"github.com/noah-isme/food-rescue-api/internal/models"
	appErrors "github.com/noah-isme/food-rescue-api/pkg/errors"
	"github.com/noah-isme/food-rescue-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

const exportPageSize = 500

type donationLister interface {
	List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Rows        int
}

// ExportService renders donation listings for administrators.
type ExportService struct {
	donations donationLister
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(donations donationLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		donations: donations,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var donationExportHeaders = []string{"ID", "Status", "Description", "Quantity", "Donor", "Contact", "Location", "Coordinates", "NGO", "Volunteer", "Created", "Updated"}

// Donations renders every donation matching the status filter.
func (s *ExportService) Donations(ctx context.Context, query dto.DonationExportQuery, actor models.Actor) (*ExportFile, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", query.Format))
	}

	filter := models.DonationFilter{Limit: exportPageSize}
	for _, raw := range query.Status {
		status := models.DonationStatus(strings.TrimSpace(raw))
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", raw))
		}
		filter.Status = append(filter.Status, status)
	}

	dataset := export.Dataset{Headers: donationExportHeaders}
	for {
		page, err := s.donations.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load donations")
		}
		for i := range page {
			dataset.Rows = append(dataset.Rows, donationRow(&page[i]))
		}
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}

	var (
		content []byte
		err     error
		mime    string
	)
	switch format {
	case ExportFormatCSV:
		content, err = s.csv.Render(dataset)
		mime = "text/csv"
	case ExportFormatPDF:
		content, err = s.pdf.Render(dataset, "Donations")
		mime = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("donation export generated", zap.String("format", format), zap.Int("rows", len(dataset.Rows)), zap.String("actor_id", actor.UserID))
	return &ExportFile{
		Filename:    fmt.Sprintf("donations_%s.%s", s.now().Format("20060102_150405"), format),
		ContentType: mime,
		Content:     content,
		Rows:        len(dataset.Rows),
	}, nil
}

func donationRow(d *models.Donation) map[string]string {
	coords := ""
	if p, ok := d.Point(); ok {
		coords = p.String()
	}
	return map[string]string{
		"ID":          d.ID,
		"Status":      string(d.Status),
		"Description": d.Description,
		"Quantity":    d.Quantity,
		"Donor":       d.DonorName,
		"Contact":     d.DonorContact,
		"Location":    d.Location,
		"Coordinates": coords,
		"NGO":         deref(d.NGOID),
		"Volunteer":   deref(d.VolunteerID),
		"Created":     formatTimestamp(d.CreatedAt),
		"Updated":     formatTimestamp(d.UpdatedAt),
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/food-rescue-api/internal/models"
	"github.com/noah-isme/food-rescue-api/pkg/geo"
)

const donationColumns = `id, description, food_type, quantity, instructions, donor_name, donor_contact, images,
       location, latitude, longitude, producing_time, lasting_time, status, donor_id, ngo_id, volunteer_id,
       created_at, updated_at`

// DonationRepository persists donations.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository constructs the repository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a new donation row.
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	if donation.Status == "" {
		donation.Status = models.DonationStatusPending
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now().UTC()
	}
	if donation.UpdatedAt.IsZero() {
		donation.UpdatedAt = donation.CreatedAt
	}
	const query = `INSERT INTO donation
	(id, description, food_type, quantity, instructions, donor_name, donor_contact, images, location, latitude, longitude,
	 producing_time, lasting_time, status, donor_id, ngo_id, volunteer_id, created_at, updated_at)
	VALUES (:id, :description, :food_type, :quantity, :instructions, :donor_name, :donor_contact, :images, :location, :latitude, :longitude,
	 :producing_time, :lasting_time, :status, :donor_id, :ngo_id, :volunteer_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, donation); err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

// GetByID fetches a donation by identifier. sql.ErrNoRows is returned as-is.
func (r *DonationRepository) GetByID(ctx context.Context, id string) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donation WHERE id = $1`
	var donation models.Donation
	if err := r.db.GetContext(ctx, &donation, query, id); err != nil {
		return nil, err
	}
	return &donation, nil
}

// List returns donations matching the filter, newest first.
func (r *DonationRepository) List(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 8)
	builder.WriteString(`SELECT ` + donationColumns + ` FROM donation`)

	placeholders := func(statuses []models.DonationStatus) string {
		parts := make([]string, len(statuses))
		for i, status := range statuses {
			args = append(args, string(status))
			parts[i] = fmt.Sprintf("$%d", len(args))
		}
		return strings.Join(parts, ",")
	}
	scoped := func(column, owner string) string {
		args = append(args, owner)
		cond := fmt.Sprintf("%s = $%d", column, len(args))
		if len(filter.OrStatus) > 0 {
			cond = fmt.Sprintf("(%s OR (%s IS NULL AND status IN (%s)))", cond, column, placeholders(filter.OrStatus))
		}
		return cond
	}

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", placeholders(filter.Status)))
	}
	if filter.DonorID != "" {
		args = append(args, filter.DonorID)
		conditions = append(conditions, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	if filter.NGOID != "" {
		conditions = append(conditions, scoped("ngo_id", filter.NGOID))
	}
	if filter.VolunteerID != "" {
		conditions = append(conditions, scoped("volunteer_id", filter.VolunteerID))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC, id")

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var donations []models.Donation
	if err := r.db.SelectContext(ctx, &donations, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}

// UpdateStatus applies a conditional status write and returns the stored row.
// It returns sql.ErrNoRows when the donation is missing or its status no
// longer equals update.ExpectedStatus.
func (r *DonationRepository) UpdateStatus(ctx context.Context, update models.DonationUpdate) (*models.Donation, error) {
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = time.Now().UTC()
	}
	args := []interface{}{string(update.Status), update.UpdatedAt}
	setParts := []string{"status = $1", "updated_at = $2"}
	if update.SetVolunteerID != nil {
		args = append(args, *update.SetVolunteerID)
		setParts = append(setParts, fmt.Sprintf("volunteer_id = $%d", len(args)))
	}
	switch {
	case update.SetNGOID != nil:
		args = append(args, *update.SetNGOID)
		setParts = append(setParts, fmt.Sprintf("ngo_id = $%d", len(args)))
	case update.ClearNGOID:
		setParts = append(setParts, "ngo_id = NULL")
	}
	args = append(args, update.ID, string(update.ExpectedStatus))
	query := fmt.Sprintf("UPDATE donation SET %s WHERE id = $%d AND status = $%d RETURNING %s",
		strings.Join(setParts, ", "), len(args)-1, len(args), donationColumns)

	var donation models.Donation
	if err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&donation); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("update donation status: %w", err)
	}
	return &donation, nil
}

// UpdateCoordinates stores resolved coordinates for a donation.
func (r *DonationRepository) UpdateCoordinates(ctx context.Context, id string, point geo.Point, updatedAt time.Time) error {
	const query = `UPDATE donation SET latitude = $1, longitude = $2, updated_at = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, point.Lat, point.Lng, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update donation coordinates: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check donation coordinate rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

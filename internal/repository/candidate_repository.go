package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/food-rescue-api/internal/models"
)

var candidateTables = map[models.CandidateKind]string{
	models.CandidateVolunteer: "volunteer",
	models.CandidateReceiver:  "receiver",
}

// CandidateRepository reads the volunteer and receiver pools.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs the repository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// ListCandidates returns every registered candidate of the given kind.
func (r *CandidateRepository) ListCandidates(ctx context.Context, kind models.CandidateKind) ([]models.Candidate, error) {
	table, ok := candidateTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown candidate kind %q", kind)
	}
	query := fmt.Sprintf(`SELECT id, name, COALESCE(phone, '') AS phone, COALESCE(email, '') AS email,
       COALESCE(address, '') AS address, location, latitude, longitude
	FROM %s ORDER BY id`, table)

	var candidates []models.Candidate
	if err := r.db.SelectContext(ctx, &candidates, query); err != nil {
		return nil, fmt.Errorf("list %s candidates: %w", kind, err)
	}
	for i := range candidates {
		candidates[i].Kind = kind
	}
	return candidates, nil
}

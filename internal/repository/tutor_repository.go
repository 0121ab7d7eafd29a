package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
)

// TutorRepository reads tutors.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs a TutorRepository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// FindByID fetches a tutor by ID.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	const query = `SELECT id, full_name, email, calendar_token, created_at, updated_at FROM tutors WHERE id = $1`
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		return nil, err
	}
	return &tutor, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
)

const courseColumns = "id, tutor_id, title, description, status, open_day, number_lessons, end_date, meeting_link, created_at, updated_at"

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID fetches a course by ID. It returns sql.ErrNoRows when absent.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := "SELECT " + courseColumns + " FROM courses WHERE id = $1"
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// UpdateTimetable writes the fields derived from a generated timetable. exec is usually a transaction.
func (r *CourseRepository) UpdateTimetable(ctx context.Context, exec sqlx.ExtContext, update models.CourseTimetableUpdate) error {
	const query = `UPDATE courses SET status = :status, open_day = :open_day, number_lessons = :number_lessons,
		end_date = :end_date, meeting_link = COALESCE(:meeting_link, meeting_link), updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, exec, query, update)
	if err != nil {
		return fmt.Errorf("update course timetable: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update course timetable: course %s not found", update.ID)
	}
	return nil
}

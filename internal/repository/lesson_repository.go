package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/timetable"
)

// LessonRepository manages persisted lesson occurrences.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

type bookedRow struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
}

// ListBookedByTutor returns the tutor's active lessons ending after from, skipping inactive
// courses and, when excludeCourseID is set, that course's own lessons.
func (r *LessonRepository) ListBookedByTutor(ctx context.Context, tutorID string, from time.Time, excludeCourseID string) ([]timetable.BookedInterval, error) {
	query := `SELECT l.id, l.course_id, l.start_time, l.end_time FROM lessons l
		JOIN courses c ON c.id = l.course_id
		WHERE l.tutor_id = $1 AND l.status = $2 AND c.status <> $3 AND l.end_time > $4`
	args := []interface{}{tutorID, models.LessonStatusActive, models.CourseStatusInactive, from}
	if excludeCourseID != "" {
		query += " AND l.course_id <> $5"
		args = append(args, excludeCourseID)
	}
	query += " ORDER BY l.start_time ASC, l.id ASC"

	var rows []bookedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tutor bookings: %w", err)
	}
	bookings := make([]timetable.BookedInterval, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, timetable.BookedInterval{
			ID:       row.ID,
			CourseID: row.CourseID,
			Start:    row.StartTime,
			End:      row.EndTime,
		})
	}
	return bookings, nil
}

// ListByCourse returns a course's active lessons in chronological order.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	const query = `SELECT id, course_id, tutor_id, start_time, end_time, status, created_at FROM lessons
		WHERE course_id = $1 AND status = $2 ORDER BY start_time ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseID, models.LessonStatusActive); err != nil {
		return nil, fmt.Errorf("list course lessons: %w", err)
	}
	return lessons, nil
}

// DeleteFromByCourse removes a course's lessons starting at or after from.
func (r *LessonRepository) DeleteFromByCourse(ctx context.Context, exec sqlx.ExecerContext, courseID string, from time.Time) (int64, error) {
	const query = `DELETE FROM lessons WHERE course_id = $1 AND start_time >= $2`
	res, err := exec.ExecContext(ctx, query, courseID, from)
	if err != nil {
		return 0, fmt.Errorf("delete course lessons: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete course lessons: %w", err)
	}
	return affected, nil
}

// BulkCreate inserts lessons in a single statement.
func (r *LessonRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, lessons []models.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	const query = `INSERT INTO lessons (id, course_id, tutor_id, start_time, end_time, status, created_at)
		VALUES (:id, :course_id, :tutor_id, :start_time, :end_time, :status, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, lessons); err != nil {
		return fmt.Errorf("insert lessons: %w", err)
	}
	return nil
}

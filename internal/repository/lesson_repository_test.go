package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
)

func TestLessonRepositoryListBookedByTutorExcludesCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "course_id", "start_time", "end_time"}).
		AddRow("lesson-1", "course-2", start, start.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("AND l.end_time > $4 AND l.course_id <> $5 ORDER BY l.start_time ASC, l.id ASC")).
		WithArgs("tutor-1", "ACTIVE", "INACTIVE", from, "course-1").
		WillReturnRows(rows)

	bookings, err := repo.ListBookedByTutor(context.Background(), "tutor-1", from, "course-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "lesson-1", bookings[0].ID)
	assert.Equal(t, "course-2", bookings[0].CourseID)
	assert.True(t, bookings[0].End.Equal(start.Add(time.Hour)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListBookedByTutorAllCourses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND l.end_time > $4 ORDER BY")).
		WithArgs("tutor-1", "ACTIVE", "INACTIVE", from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "start_time", "end_time"}))

	bookings, err := repo.ListBookedByTutor(context.Background(), "tutor-1", from, "")
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryListBookedByTutorError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery("FROM lessons l").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListBookedByTutor(context.Background(), "tutor-1", time.Now(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list tutor bookings")
}

func TestLessonRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "course_id", "tutor_id", "start_time", "end_time", "status", "created_at"}).
		AddRow("lesson-1", "course-1", "tutor-1", start, start.Add(time.Hour), "ACTIVE", start).
		AddRow("lesson-2", "course-1", "tutor-1", start.AddDate(0, 0, 7), start.AddDate(0, 0, 7).Add(time.Hour), "ACTIVE", start)
	mock.ExpectQuery("SELECT id, course_id, tutor_id, start_time, end_time, status, created_at FROM lessons").
		WithArgs("course-1", "ACTIVE").
		WillReturnRows(rows)

	lessons, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, models.LessonStatusActive, lessons[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryReplaceInTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	from := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	lessons := []models.Lesson{
		{ID: "l1", CourseID: "course-1", TutorID: "tutor-1", StartTime: from, EndTime: from.Add(time.Hour), Status: models.LessonStatusActive, CreatedAt: from},
		{ID: "l2", CourseID: "course-1", TutorID: "tutor-1", StartTime: from.AddDate(0, 0, 7), EndTime: from.AddDate(0, 0, 7).Add(time.Hour), Status: models.LessonStatusActive, CreatedAt: from},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lessons WHERE course_id = $1 AND start_time >= $2")).
		WithArgs("course-1", from).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO lessons").
		WithArgs(
			"l1", "course-1", "tutor-1", sqlmock.AnyArg(), sqlmock.AnyArg(), "ACTIVE", sqlmock.AnyArg(),
			"l2", "course-1", "tutor-1", sqlmock.AnyArg(), sqlmock.AnyArg(), "ACTIVE", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	deleted, err := repo.DeleteFromByCourse(context.Background(), tx, "course-1", from)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	require.NoError(t, repo.BulkCreate(context.Background(), tx, lessons))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryBulkCreateEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	require.NoError(t, repo.BulkCreate(context.Background(), db, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

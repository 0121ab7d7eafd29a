package models

import "time"

// LessonStatus marks whether a lesson still occupies the tutor's schedule.
type LessonStatus string

const (
	LessonStatusActive    LessonStatus = "ACTIVE"
	LessonStatusCancelled LessonStatus = "CANCELLED"
)

// Lesson is a persisted lesson occurrence of a course.
type Lesson struct {
	ID        string       `db:"id" json:"id"`
	CourseID  string       `db:"course_id" json:"course_id"`
	TutorID   string       `db:"tutor_id" json:"tutor_id"`
	StartTime time.Time    `db:"start_time" json:"start_time"`
	EndTime   time.Time    `db:"end_time" json:"end_time"`
	Status    LessonStatus `db:"status" json:"status"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

package models

import "time"

// CourseStatus tracks whether a course is open for lessons.
type CourseStatus string

const (
	CourseStatusDraft    CourseStatus = "DRAFT"
	CourseStatusActive   CourseStatus = "ACTIVE"
	CourseStatusInactive CourseStatus = "INACTIVE"
)

// Course is a tutor-led course whose lessons follow a weekly timetable.
type Course struct {
	ID            string       `db:"id" json:"id"`
	TutorID       string       `db:"tutor_id" json:"tutor_id"`
	Title         string       `db:"title" json:"title"`
	Description   *string      `db:"description" json:"description,omitempty"`
	Status        CourseStatus `db:"status" json:"status"`
	OpenDay       *time.Time   `db:"open_day" json:"open_day,omitempty"`
	NumberLessons int          `db:"number_lessons" json:"number_lessons"`
	EndDate       *time.Time   `db:"end_date" json:"end_date,omitempty"`
	MeetingLink   *string      `db:"meeting_link" json:"meeting_link,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseTimetableUpdate carries the derived fields written back after lessons are generated.
type CourseTimetableUpdate struct {
	ID            string       `db:"id"`
	Status        CourseStatus `db:"status"`
	OpenDay       time.Time    `db:"open_day"`
	NumberLessons int          `db:"number_lessons"`
	EndDate       *time.Time   `db:"end_date"`
	MeetingLink   *string      `db:"meeting_link"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

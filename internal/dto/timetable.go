package dto

import (
	"time"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/timetable"
)

// WeeklySlotRequest is one recurring weekly rule as sent by clients. Times use HH:MM.
type WeeklySlotRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	TimeZone  string `json:"timeZone" validate:"omitempty,timezone"`
	Start     string `json:"start" validate:"required"`
	End       string `json:"end" validate:"required"`
}

// TimetableRequest describes the recurring timetable to apply to a course.
type TimetableRequest struct {
	OpenDay       string              `json:"openDay" validate:"required"`
	NumberLessons int                 `json:"numberLessons" validate:"required,min=1"`
	Slots         []WeeklySlotRequest `json:"slots" validate:"dive"`
	Activate      bool                `json:"activate"`
}

// TimetableResponse returns the generated lessons and the course projection derived from them.
type TimetableResponse struct {
	CourseID    string                       `json:"courseId"`
	TutorID     string                       `json:"tutorId"`
	Status      models.CourseStatus          `json:"status"`
	Persisted   bool                         `json:"persisted"`
	Occurrences []timetable.LessonOccurrence `json:"occurrences"`
	EndDate     *time.Time                   `json:"endDate,omitempty"`
	MeetingLink *string                      `json:"meetingLink,omitempty"`
}

// TutorBookingsResponse lists a tutor's booked intervals from a reference date.
type TutorBookingsResponse struct {
	TutorID  string                     `json:"tutorId"`
	From     string                     `json:"from"`
	Bookings []timetable.BookedInterval `json:"bookings"`
}

// LessonsScheduledEvent is published after a course's lessons are committed.
type LessonsScheduledEvent struct {
	EventID     string                       `json:"eventId"`
	CourseID    string                       `json:"courseId"`
	TutorID     string                       `json:"tutorId"`
	Status      models.CourseStatus          `json:"status"`
	Occurrences []timetable.LessonOccurrence `json:"occurrences"`
	MeetingLink *string                      `json:"meetingLink,omitempty"`
	OccurredAt  time.Time                    `json:"occurredAt"`
}

// FieldViolation explains why a single request field was rejected.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ExportedFile is a rendered download.
type ExportedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

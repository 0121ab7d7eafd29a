package models

import "time"

// ScheduleConflict describes the candidate lesson and the existing booking it collides with.
type ScheduleConflict struct {
	CourseID         string    `json:"course_id"`
	TutorID          string    `json:"tutor_id"`
	CandidateIndex   int       `json:"candidate_index"`
	CandidateStart   time.Time `json:"candidate_start"`
	CandidateEnd     time.Time `json:"candidate_end"`
	ExistingLessonID string    `json:"existing_lesson_id,omitempty"`
	ExistingCourseID string    `json:"existing_course_id,omitempty"`
	ExistingStart    time.Time `json:"existing_start"`
	ExistingEnd      time.Time `json:"existing_end"`
}

// ScheduleConflictError is returned when a generated lesson overlaps the tutor's schedule.
type ScheduleConflictError struct {
	Message  string           `json:"message"`
	Conflict ScheduleConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/dto"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
	appErrors "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/errors"
)

type courseTimetableMock struct {
	courseID string
	captured dto.TimetableRequest
	format   string
	from     string
	err      error
}

func (m *courseTimetableMock) Preview(ctx context.Context, courseID string, req dto.TimetableRequest) (*dto.TimetableResponse, error) {
	m.courseID, m.captured = courseID, req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TimetableResponse{CourseID: courseID, Status: models.CourseStatusDraft}, nil
}

func (m *courseTimetableMock) Apply(ctx context.Context, courseID string, req dto.TimetableRequest) (*dto.TimetableResponse, error) {
	m.courseID, m.captured = courseID, req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TimetableResponse{CourseID: courseID, Status: models.CourseStatusActive, Persisted: true}, nil
}

func (m *courseTimetableMock) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	m.courseID = courseID
	return []models.Lesson{{ID: "lesson-1", CourseID: courseID}}, m.err
}

func (m *courseTimetableMock) ExportLessons(ctx context.Context, courseID, format string) (*dto.ExportedFile, error) {
	m.courseID, m.format = courseID, format
	return &dto.ExportedFile{Filename: "course-" + courseID + "-lessons.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("#,Date\n")}, nil
}

func (m *courseTimetableMock) TutorBookings(ctx context.Context, tutorID, from string) (*dto.TutorBookingsResponse, error) {
	m.from = from
	return &dto.TutorBookingsResponse{TutorID: tutorID, From: from}, nil
}

func timetablePayload() []byte {
	return []byte(`{"openDay":"2024-01-01","numberLessons":3,"activate":true,"slots":[{"dayOfWeek":1,"timeZone":"Asia/Ho_Chi_Minh","start":"09:00","end":"10:00"}]}`)
}

func newTimetableContext(method, target string, body []byte, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	return c, w
}

func TestCourseTimetablePreviewSuccess(t *testing.T) {
	mockSvc := &courseTimetableMock{}
	handler := NewCourseTimetableHandler(mockSvc)
	c, w := newTimetableContext(http.MethodPost, "/courses/course-1/timetable/preview", timetablePayload(), gin.Params{{Key: "id", Value: "course-1"}})

	handler.Preview(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course-1", mockSvc.courseID)
	assert.Equal(t, "2024-01-01", mockSvc.captured.OpenDay)
	require.Len(t, mockSvc.captured.Slots, 1)
	assert.Equal(t, "Asia/Ho_Chi_Minh", mockSvc.captured.Slots[0].TimeZone)
	assert.True(t, mockSvc.captured.Activate)

	var body struct {
		Data dto.TimetableResponse `json:"data"`
		Meta map[string]string     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "preview", body.Meta["mode"])
	assert.False(t, body.Data.Persisted)
}

func TestCourseTimetableApplyMalformedPayload(t *testing.T) {
	handler := NewCourseTimetableHandler(&courseTimetableMock{})
	c, w := newTimetableContext(http.MethodPut, "/courses/course-1/timetable", []byte(`{"openDay":`), gin.Params{{Key: "id", Value: "course-1"}})

	handler.Apply(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestCourseTimetableApplyConflict(t *testing.T) {
	conflict := appErrors.WithDetails(appErrors.ErrConflict, models.ScheduleConflict{CourseID: "course-1", ExistingLessonID: "lesson-9"})
	handler := NewCourseTimetableHandler(&courseTimetableMock{err: conflict})
	c, w := newTimetableContext(http.MethodPut, "/courses/course-1/timetable", timetablePayload(), gin.Params{{Key: "id", Value: "course-1"}})

	handler.Apply(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error struct {
			Code    string                  `json:"code"`
			Details models.ScheduleConflict `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "SCHEDULE_CONFLICT", body.Error.Code)
	assert.Equal(t, "lesson-9", body.Error.Details.ExistingLessonID)
}

func TestCourseTimetableListLessonsExport(t *testing.T) {
	mockSvc := &courseTimetableMock{}
	handler := NewCourseTimetableHandler(mockSvc)
	c, w := newTimetableContext(http.MethodGet, "/courses/course-1/lessons?format=csv", nil, gin.Params{{Key: "id", Value: "course-1"}})

	handler.ListLessons(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.format)
	assert.Equal(t, `attachment; filename="course-course-1-lessons.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "#,Date\n", w.Body.String())
}

func TestCourseTimetableListLessonsJSON(t *testing.T) {
	handler := NewCourseTimetableHandler(&courseTimetableMock{})
	c, w := newTimetableContext(http.MethodGet, "/courses/course-1/lessons", nil, gin.Params{{Key: "id", Value: "course-1"}})

	handler.ListLessons(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestCourseTimetableTutorBookingsPassesFrom(t *testing.T) {
	mockSvc := &courseTimetableMock{}
	handler := NewCourseTimetableHandler(mockSvc)
	c, w := newTimetableContext(http.MethodGet, "/tutors/tutor-1/bookings?from=2024-01-01", nil, gin.Params{{Key: "id", Value: "tutor-1"}})

	handler.TutorBookings(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-01-01", mockSvc.from)
}

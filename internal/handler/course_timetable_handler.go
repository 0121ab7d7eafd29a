package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/dto"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
	appErrors "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/errors"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/response"
)

type courseTimetableService interface {
	Preview(ctx context.Context, courseID string, req dto.TimetableRequest) (*dto.TimetableResponse, error)
	Apply(ctx context.Context, courseID string, req dto.TimetableRequest) (*dto.TimetableResponse, error)
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)
	ExportLessons(ctx context.Context, courseID, format string) (*dto.ExportedFile, error)
	TutorBookings(ctx context.Context, tutorID, from string) (*dto.TutorBookingsResponse, error)
}

// CourseTimetableHandler exposes course timetable endpoints.
type CourseTimetableHandler struct {
	service courseTimetableService
}

// NewCourseTimetableHandler constructs the handler.
func NewCourseTimetableHandler(svc courseTimetableService) *CourseTimetableHandler {
	return &CourseTimetableHandler{service: svc}
}

// Preview godoc
// @Summary Preview the lessons a weekly timetable would generate
// @Description Expands the timetable and checks it against the tutor's other lessons. Nothing is saved.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.TimetableRequest true "Timetable payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/timetable/preview [post]
func (h *CourseTimetableHandler) Preview(c *gin.Context) {
	req, ok := bindTimetable(c)
	if !ok {
		return
	}
	result, err := h.service.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"mode": "preview"})
}

// Apply godoc
// @Summary Apply a weekly timetable to a course
// @Description Replaces the course's upcoming lessons. With activate=true the course is activated and a calendar invite is created for the first lesson.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.TimetableRequest true "Timetable payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /courses/{id}/timetable [put]
func (h *CourseTimetableHandler) Apply(c *gin.Context) {
	req, ok := bindTimetable(c)
	if !ok {
		return
	}
	result, err := h.service.Apply(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"mode": "applied"})
}

// ListLessons godoc
// @Summary List or export a course's lessons
// @Tags Timetable
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Param format query string false "Export format (csv or pdf)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/lessons [get]
func (h *CourseTimetableHandler) ListLessons(c *gin.Context) {
	courseID := c.Param("id")
	if format := c.Query("format"); format != "" {
		file, err := h.service.ExportLessons(c.Request.Context(), courseID, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.File(c, file.Filename, file.ContentType, file.Data)
		return
	}

	lessons, err := h.service.ListLessons(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, map[string]interface{}{"total": len(lessons)})
}

// TutorBookings godoc
// @Summary List a tutor's booked lesson intervals
// @Tags Timetable
// @Produce json
// @Param id path string true "Tutor ID"
// @Param from query string false "First day to include (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutors/{id}/bookings [get]
func (h *CourseTimetableHandler) TutorBookings(c *gin.Context) {
	result, err := h.service.TutorBookings(c.Request.Context(), c.Param("id"), c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func bindTimetable(c *gin.Context) (dto.TimetableRequest, bool) {
	var req dto.TimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return req, false
	}
	return req, true
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/dto"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/models"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/timetable"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/cache"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/calendar"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/config"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/database"
	appErrors "github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/errors"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/export"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/jobs"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/middleware/requestid"
)

const (
	operationPreview = "preview"
	operationApply   = "apply"

	// LessonsScheduledEventType identifies the event emitted after lessons are committed.
	LessonsScheduledEventType = "course.lessons_scheduled"
)

type courseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	UpdateTimetable(ctx context.Context, exec sqlx.ExtContext, update models.CourseTimetableUpdate) error
}

type lessonStore interface {
	ListBookedByTutor(ctx context.Context, tutorID string, from time.Time, excludeCourseID string) ([]timetable.BookedInterval, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
	DeleteFromByCourse(ctx context.Context, exec sqlx.ExecerContext, courseID string, from time.Time) (int64, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, lessons []models.Lesson) error
}

type tutorStore interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
}

type tutorLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type inviteCreator interface {
	CreateEvent(ctx context.Context, req calendar.EventRequest) (calendar.Invite, error)
	Discard(invite calendar.Invite) error
}

type eventEnqueuer interface {
	Enqueue(ctx context.Context, job jobs.Job) error
}

type decisionRecorder interface {
	RecordDecision(operation string, outcome timetable.Outcome, lessons int, duration time.Duration)
}

// CourseTimetableDeps groups the collaborators of CourseTimetableService.
type CourseTimetableDeps struct {
	Courses   courseStore
	Lessons   lessonStore
	Tutors    tutorStore
	Tx        database.TxBeginner
	Locker    tutorLocker
	Invites   inviteCreator
	Events    eventEnqueuer
	Metrics   decisionRecorder
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    config.SchedulerConfig
}

// CourseTimetableService turns weekly timetables into dated lessons without double-booking tutors.
type CourseTimetableService struct {
	courses   courseStore
	lessons   lessonStore
	tutors    tutorStore
	tx        database.TxBeginner
	locker    tutorLocker
	invites   inviteCreator
	events    eventEnqueuer
	metrics   decisionRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.SchedulerConfig
	now       func() time.Time
}

// NewCourseTimetableService wires the service. Missing optional collaborators fall back to no-ops.
func NewCourseTimetableService(deps CourseTimetableDeps) *CourseTimetableService {
	if deps.Validator == nil {
		deps.Validator = NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = cache.NewLocalLocker()
	}
	if deps.Config.MaxLessons <= 0 {
		deps.Config.MaxLessons = 500
	}
	if deps.Config.MaxLessons > timetable.MaxLessons {
		deps.Config.MaxLessons = timetable.MaxLessons
	}
	return &CourseTimetableService{
		courses:   deps.Courses,
		lessons:   deps.Lessons,
		tutors:    deps.Tutors,
		tx:        deps.Tx,
		locker:    deps.Locker,
		invites:   deps.Invites,
		events:    deps.Events,
		metrics:   deps.Metrics,
		validator: deps.Validator,
		logger:    deps.Logger,
		cfg:       deps.Config,
		now:       time.Now,
	}
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Preview expands the timetable and checks it against the tutor's bookings without persisting anything.
func (s *CourseTimetableService) Preview(ctx context.Context, courseID string, req dto.TimetableRequest) (*dto.TimetableResponse, error) {
	treq, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	occurrences, err := s.plan(ctx, operationPreview, course, treq)
	if err != nil {
		return nil, err
	}

	status := course.Status
	if req.Activate {
		status = models.CourseStatusActive
	}
	return &dto.TimetableResponse{
		CourseID:    course.ID,
		TutorID:     course.TutorID,
		Status:      status,
		Occurrences: occurrences,
		EndDate:     endDatePtr(occurrences),
		MeetingLink: course.MeetingLink,
	}, nil
}

// Apply replaces the course's upcoming lessons with the expanded timetable. Planning and
// persistence run under a per-tutor lock so concurrent applies cannot double-book.
func (s *CourseTimetableService) Apply(ctx context.Context, courseID string, req dto.TimetableRequest) (*dto.TimetableResponse, error) {
	treq, err := s.parseRequest(req)
	if err != nil {
		return nil, err
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "tutor:"+course.TutorID)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, appErrors.Clone(appErrors.ErrLocked, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire tutor schedule lock")
	}
	defer unlock()

	occurrences, err := s.plan(ctx, operationApply, course, treq)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := course.Status
	if req.Activate {
		status = models.CourseStatusActive
	}
	endDate := endDatePtr(occurrences)
	update := models.CourseTimetableUpdate{
		ID:            course.ID,
		Status:        status,
		OpenDay:       time.Date(treq.OpenDay.Year, treq.OpenDay.Month, treq.OpenDay.Day, 0, 0, 0, 0, time.UTC),
		NumberLessons: treq.NumberLessons,
		EndDate:       endDate,
	}

	replaceFrom := update.OpenDay
	if len(occurrences) > 0 && occurrences[0].Start.Before(replaceFrom) {
		replaceFrom = occurrences[0].Start
	}

	lessons := make([]models.Lesson, 0, len(occurrences))
	for _, occ := range occurrences {
		lessons = append(lessons, models.Lesson{
			ID:        uuid.NewString(),
			CourseID:  course.ID,
			TutorID:   course.TutorID,
			StartTime: occ.Start.UTC(),
			EndTime:   occ.End.UTC(),
			Status:    models.LessonStatusActive,
			CreatedAt: now,
		})
	}

	var invite calendar.Invite
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		deleted, err := s.lessons.DeleteFromByCourse(ctx, tx, course.ID, replaceFrom)
		if err != nil {
			return err
		}
		if err := s.lessons.BulkCreate(ctx, tx, lessons); err != nil {
			return err
		}
		if req.Activate {
			created, err := s.createInvite(ctx, course, occurrences[0])
			if err != nil {
				return err
			}
			invite = created
			update.MeetingLink = &invite.Link
		}
		update.UpdatedAt = now
		if err := s.courses.UpdateTimetable(ctx, tx, update); err != nil {
			return err
		}
		s.logger.Info("course timetable applied",
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.String("course_id", course.ID),
			zap.String("tutor_id", course.TutorID),
			zap.Int("lessons", len(lessons)),
			zap.Int64("replaced", deleted),
		)
		return nil
	})
	if err != nil {
		s.discardInvite(course, invite)
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course timetable")
	}

	meetingLink := course.MeetingLink
	if update.MeetingLink != nil {
		meetingLink = update.MeetingLink
	}
	for i := range occurrences {
		occurrences[i].CourseID = course.ID
	}
	s.enqueueScheduled(ctx, course, status, occurrences, meetingLink)

	return &dto.TimetableResponse{
		CourseID:    course.ID,
		TutorID:     course.TutorID,
		Status:      status,
		Persisted:   true,
		Occurrences: occurrences,
		EndDate:     endDate,
		MeetingLink: meetingLink,
	}, nil
}

// ListLessons returns a course's active lessons in chronological order.
func (s *CourseTimetableService) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, nil
}

// ExportLessons renders a course's lessons as csv or pdf, shown in the scheduler's default time zone.
func (s *CourseTimetableService) ExportLessons(ctx context.Context, courseID, format string) (*dto.ExportedFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, validationError("format", err.Error())
	}
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}

	loc := s.displayLocation()
	table := export.Table{
		Title:    course.Title,
		Subtitle: fmt.Sprintf("%d lessons, times in %s", len(lessons), loc.String()),
		Headers:  []string{"#", "Date", "Weekday", "Start", "End", "Minutes"},
		Rows:     make([][]string, 0, len(lessons)),
	}
	for i, lesson := range lessons {
		start, end := lesson.StartTime.In(loc), lesson.EndTime.In(loc)
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(i + 1),
			start.Format("2006-01-02"),
			start.Weekday().String(),
			start.Format("15:04"),
			end.Format("15:04"),
			strconv.Itoa(int(end.Sub(start).Minutes())),
		})
	}

	data, err := export.Render(f, table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render lessons export")
	}
	return &dto.ExportedFile{
		Filename:    fmt.Sprintf("course-%s-lessons.%s", course.ID, f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// TutorBookings lists the intervals the tutor is booked for from the given date (default today).
func (s *CourseTimetableService) TutorBookings(ctx context.Context, tutorID, from string) (*dto.TutorBookingsResponse, error) {
	if _, err := s.tutors.FindByID(ctx, tutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	loc := s.displayLocation()
	day := timetable.DateOf(s.now().In(loc))
	if from != "" {
		parsed, err := timetable.ParseDate(from)
		if err != nil {
			return nil, validationError("from", err.Error())
		}
		day = parsed
	}

	bookings, err := s.lessons.ListBookedByTutor(ctx, tutorID, timetable.Resolve(day, timetable.Clock{}, loc), "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutor bookings")
	}
	return &dto.TutorBookingsResponse{TutorID: tutorID, From: day.String(), Bookings: bookings}, nil
}

func (s *CourseTimetableService) parseRequest(req dto.TimetableRequest) (timetable.Request, error) {
	if err := s.validator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			violations := make([]dto.FieldViolation, 0, len(verrs))
			for _, fe := range verrs {
				violations = append(violations, dto.FieldViolation{Field: fieldPath(fe.Namespace()), Reason: fe.Tag()})
			}
			return timetable.Request{}, appErrors.WithDetails(appErrors.ErrValidation, violations)
		}
		return timetable.Request{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	openDay, err := timetable.ParseDate(req.OpenDay)
	if err != nil {
		return timetable.Request{}, validationError("openDay", err.Error())
	}
	if req.NumberLessons > s.cfg.MaxLessons {
		return timetable.Request{}, validationError("numberLessons", fmt.Sprintf("must not exceed %d", s.cfg.MaxLessons))
	}
	if req.Activate && len(req.Slots) == 0 {
		return timetable.Request{}, validationError("slots", "at least one slot is required to activate a course")
	}

	slots := make([]timetable.WeeklySlot, 0, len(req.Slots))
	for i, raw := range req.Slots {
		start, err := timetable.ParseClock(raw.Start)
		if err != nil {
			return timetable.Request{}, validationError(fmt.Sprintf("slots[%d].start", i), err.Error())
		}
		end, err := timetable.ParseClock(raw.End)
		if err != nil {
			return timetable.Request{}, validationError(fmt.Sprintf("slots[%d].end", i), err.Error())
		}
		zone := raw.TimeZone
		if zone == "" {
			zone = s.cfg.DefaultTimeZone
		}
		slots = append(slots, timetable.WeeklySlot{
			DayOfWeek: time.Weekday(raw.DayOfWeek),
			TimeZone:  zone,
			Start:     start,
			End:       end,
		})
	}

	return timetable.Request{OpenDay: openDay, NumberLessons: req.NumberLessons, Slots: slots}, nil
}

func (s *CourseTimetableService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// plan fetches the tutor's other bookings and runs the pure expansion and conflict check.
func (s *CourseTimetableService) plan(ctx context.Context, operation string, course *models.Course, req timetable.Request) ([]timetable.LessonOccurrence, error) {
	// A day of slack covers every UTC offset the slots could resolve in.
	from := time.Date(req.OpenDay.Year, req.OpenDay.Month, req.OpenDay.Day, 0, 0, 0, 0, time.UTC).Add(-24 * time.Hour)
	existing, err := s.lessons.ListBookedByTutor(ctx, course.TutorID, from, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor schedule")
	}

	started := time.Now()
	decision := timetable.Plan(req, existing)
	if s.metrics != nil {
		s.metrics.RecordDecision(operation, decision.Outcome, len(decision.Occurrences), time.Since(started))
	}

	switch decision.Outcome {
	case timetable.OutcomeInvalidInput:
		return nil, validationError(decision.Invalid.Field, decision.Invalid.Reason)
	case timetable.OutcomeConflict:
		s.logger.Info("timetable rejected by conflict",
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.String("operation", operation),
			zap.String("course_id", course.ID),
			zap.String("tutor_id", course.TutorID),
			zap.Time("candidate_start", decision.Conflict.Candidate.Start),
			zap.String("existing_lesson_id", decision.Conflict.Existing.ID),
		)
		return nil, conflictError(course, *decision.Conflict)
	}
	return decision.Occurrences, nil
}

func (s *CourseTimetableService) createInvite(ctx context.Context, course *models.Course, first timetable.LessonOccurrence) (calendar.Invite, error) {
	if s.invites == nil || s.tutors == nil {
		return calendar.Invite{}, appErrors.Clone(appErrors.ErrCalendarUnavailable, "calendar invites are not configured")
	}
	tutor, err := s.tutors.FindByID(ctx, course.TutorID)
	if err != nil {
		return calendar.Invite{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	req := calendar.EventRequest{
		CourseID:       course.ID,
		Title:          course.Title,
		Start:          first.Start,
		End:            first.End,
		OrganizerName:  tutor.FullName,
		OrganizerEmail: tutor.Email,
	}
	if course.Description != nil {
		req.Description = *course.Description
	}
	if tutor.CalendarToken != nil {
		req.Credential = *tutor.CalendarToken
	}

	invite, err := s.invites.CreateEvent(ctx, req)
	if err != nil {
		if errors.Is(err, calendar.ErrMissingCredential) {
			return calendar.Invite{}, appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "tutor has not connected a calendar")
		}
		s.logger.Warn("calendar invite failed", zap.String("course_id", course.ID), zap.Error(err))
		return calendar.Invite{}, appErrors.Wrap(err, appErrors.ErrCalendarUnavailable.Code, appErrors.ErrCalendarUnavailable.Status, appErrors.ErrCalendarUnavailable.Message)
	}
	return invite, nil
}

// discardInvite drops an invite written inside a transaction that did not commit.
func (s *CourseTimetableService) discardInvite(course *models.Course, invite calendar.Invite) {
	if invite.Path == "" {
		return
	}
	if err := s.invites.Discard(invite); err != nil {
		s.logger.Warn("failed to discard invite", zap.String("course_id", course.ID), zap.String("path", invite.Path), zap.Error(err))
	}
}

func (s *CourseTimetableService) enqueueScheduled(ctx context.Context, course *models.Course, status models.CourseStatus, occurrences []timetable.LessonOccurrence, meetingLink *string) {
	if s.events == nil {
		return
	}
	event := dto.LessonsScheduledEvent{
		EventID:     uuid.NewString(),
		CourseID:    course.ID,
		TutorID:     course.TutorID,
		Status:      status,
		Occurrences: occurrences,
		MeetingLink: meetingLink,
		OccurredAt:  s.now().UTC(),
	}
	job := jobs.Job{ID: event.EventID, Type: LessonsScheduledEventType, Payload: event}
	if err := s.events.Enqueue(ctx, job); err != nil {
		s.logger.Warn("failed to enqueue lessons scheduled event", zap.String("course_id", course.ID), zap.Error(err))
	}
}

func (s *CourseTimetableService) displayLocation() *time.Location {
	if loc, err := time.LoadLocation(s.cfg.DefaultTimeZone); err == nil {
		return loc
	}
	return time.UTC
}

func endDatePtr(occurrences []timetable.LessonOccurrence) *time.Time {
	if end, ok := timetable.EndDate(occurrences).Get(); ok {
		return &end
	}
	return nil
}

func validationError(field, reason string) *appErrors.Error {
	return appErrors.WithDetails(appErrors.ErrValidation, []dto.FieldViolation{{Field: field, Reason: reason}})
}

func conflictError(course *models.Course, c timetable.Conflict) *appErrors.Error {
	detail := models.ScheduleConflict{
		CourseID:         course.ID,
		TutorID:          course.TutorID,
		CandidateIndex:   c.CandidateIndex,
		CandidateStart:   c.Candidate.Start,
		CandidateEnd:     c.Candidate.End,
		ExistingLessonID: c.Existing.ID,
		ExistingCourseID: c.Existing.CourseID,
		ExistingStart:    c.Existing.Start,
		ExistingEnd:      c.Existing.End,
	}
	cause := &models.ScheduleConflictError{
		Message:  fmt.Sprintf("lesson %d starting %s overlaps an existing booking", c.CandidateIndex+1, c.Candidate.Start.Format(time.RFC3339)),
		Conflict: detail,
	}
	return appErrors.WithDetails(appErrors.Wrap(cause, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, appErrors.ErrConflict.Message), detail)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

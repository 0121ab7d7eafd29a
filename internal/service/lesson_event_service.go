package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/dto"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/events"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/jobs"
)

type publishRecorder interface {
	RecordEventPublish(ok bool)
}

// LessonEventService publishes queued lesson events to the event bus.
type LessonEventService struct {
	publisher events.Publisher
	topic     string
	metrics   publishRecorder
	logger    *zap.Logger
}

// NewLessonEventService constructs the queue handler for lesson events.
func NewLessonEventService(publisher events.Publisher, topic string, metrics publishRecorder, logger *zap.Logger) *LessonEventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonEventService{publisher: publisher, topic: topic, metrics: metrics, logger: logger}
}

// Handle is a jobs.Handler. Events are keyed by course so one course's updates stay ordered.
func (s *LessonEventService) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(dto.LessonsScheduledEvent)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal lesson event: %w", err)
	}

	err = s.publisher.Publish(ctx, events.Message{
		Topic:     s.topic,
		Key:       event.CourseID,
		EventID:   event.EventID,
		EventType: job.Type,
		Payload:   payload,
	})
	if s.metrics != nil {
		s.metrics.RecordEventPublish(err == nil)
	}
	if err != nil {
		return err
	}
	s.logger.Debug("lesson event published", zap.String("event_id", event.EventID), zap.String("course_id", event.CourseID))
	return nil
}

// DeadLetter records an event that could not be delivered after all retries.
func (s *LessonEventService) DeadLetter(job jobs.Job, err error) {
	s.logger.Error("lesson event dropped", zap.String("event_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

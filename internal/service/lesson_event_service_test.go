package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/internal/dto"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/events"
	"github.com/vuhieu441/DoAnTotNghiep2023BE-sub001/pkg/jobs"
)

type publisherStub struct {
	messages []events.Message
	err      error
}

func (p *publisherStub) Publish(ctx context.Context, msg events.Message) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *publisherStub) Close() error { return nil }

type publishRecorderStub struct {
	ok, failed int
}

func (r *publishRecorderStub) RecordEventPublish(ok bool) {
	if ok {
		r.ok++
	} else {
		r.failed++
	}
}

func TestLessonEventServiceHandlePublishesKeyedMessage(t *testing.T) {
	pub := &publisherStub{}
	rec := &publishRecorderStub{}
	svc := NewLessonEventService(pub, "course.lessons_scheduled", rec, nil)

	event := dto.LessonsScheduledEvent{EventID: "evt-1", CourseID: "course-1", TutorID: "tutor-1"}
	err := svc.Handle(context.Background(), jobs.Job{ID: "evt-1", Type: LessonsScheduledEventType, Payload: event})
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "course.lessons_scheduled", msg.Topic)
	assert.Equal(t, "course-1", msg.Key)
	assert.Equal(t, LessonsScheduledEventType, msg.EventType)

	var decoded dto.LessonsScheduledEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, "tutor-1", decoded.TutorID)
	assert.Equal(t, 1, rec.ok)
}

func TestLessonEventServiceHandleReturnsPublishError(t *testing.T) {
	rec := &publishRecorderStub{}
	svc := NewLessonEventService(&publisherStub{err: errors.New("broker unavailable")}, "topic", rec, nil)

	err := svc.Handle(context.Background(), jobs.Job{ID: "evt-1", Payload: dto.LessonsScheduledEvent{EventID: "evt-1"}})
	assert.Error(t, err)
	assert.Equal(t, 1, rec.failed)
}

func TestLessonEventServiceHandleRejectsUnknownPayload(t *testing.T) {
	svc := NewLessonEventService(&publisherStub{}, "topic", nil, nil)
	assert.Error(t, svc.Handle(context.Background(), jobs.Job{ID: "evt-1", Payload: "nope"}))
}

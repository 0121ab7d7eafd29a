package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const prodID = "-//Course Scheduler//Lesson Invites//EN"

// ErrMissingCredential is returned when the tutor has not delegated calendar access.
var ErrMissingCredential = errors.New("tutor calendar credential missing")

// EventRequest describes the calendar event created for the first lesson of a course.
type EventRequest struct {
	CourseID       string
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	OrganizerName  string
	OrganizerEmail string
	Credential     string
}

// FileStore persists rendered invites.
type FileStore interface {
	Save(filename string, data []byte) (string, error)
	Delete(filename string) error
}

// LinkSigner produces download tokens for stored invites.
type LinkSigner interface {
	Generate(ownerID, relPath string) (string, time.Time, error)
}

// Invite is a stored invite and the signed link that downloads it.
type Invite struct {
	Link      string
	Path      string
	ExpiresAt time.Time
}

// InviteCreator renders an iCalendar invite, stores it and returns a signed link to it.
type InviteCreator struct {
	store   FileStore
	signer  LinkSigner
	baseURL string
	now     func() time.Time
}

// NewInviteCreator wires an invite creator. baseURL is the public prefix of the invite download route.
func NewInviteCreator(store FileStore, signer LinkSigner, baseURL string) *InviteCreator {
	return &InviteCreator{store: store, signer: signer, baseURL: baseURL, now: time.Now}
}

// CreateEvent stores an invite for req and returns it with its meeting link.
func (c *InviteCreator) CreateEvent(ctx context.Context, req EventRequest) (Invite, error) {
	if req.Credential == "" {
		return Invite{}, ErrMissingCredential
	}
	if !req.End.After(req.Start) {
		return Invite{}, fmt.Errorf("event end %s must be after start %s", req.End, req.Start)
	}
	if err := ctx.Err(); err != nil {
		return Invite{}, err
	}

	uid := uuid.NewString()
	data, err := Render(uid, req, c.now())
	if err != nil {
		return Invite{}, err
	}

	name, err := c.store.Save(fmt.Sprintf("%s/%s.ics", req.CourseID, uid), data)
	if err != nil {
		return Invite{}, fmt.Errorf("store invite: %w", err)
	}
	token, expiresAt, err := c.signer.Generate(req.CourseID, name)
	if err != nil {
		_ = c.store.Delete(name)
		return Invite{}, fmt.Errorf("sign invite link: %w", err)
	}
	return Invite{Link: c.baseURL + "/" + token, Path: name, ExpiresAt: expiresAt}, nil
}

// Discard removes a stored invite whose link was never handed out.
func (c *InviteCreator) Discard(invite Invite) error {
	if invite.Path == "" {
		return nil
	}
	if err := c.store.Delete(invite.Path); err != nil {
		return fmt.Errorf("discard invite %s: %w", invite.Path, err)
	}
	return nil
}

// Render encodes a single-event REQUEST calendar.
func Render(uid string, req EventRequest, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropMethod, "REQUEST")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, req.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, req.End.UTC())
	event.Props.SetText(ical.PropSummary, req.Title)
	if req.Description != "" {
		event.Props.SetText(ical.PropDescription, req.Description)
	}
	if req.OrganizerEmail != "" {
		organizer := ical.NewProp(ical.PropOrganizer)
		organizer.Value = "mailto:" + req.OrganizerEmail
		if req.OrganizerName != "" {
			organizer.Params.Set(ical.ParamCommonName, req.OrganizerName)
		}
		event.Props.Set(organizer)
	}
	event.Props.SetText(ical.PropStatus, "CONFIRMED")
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode invite: %w", err)
	}
	return buf.Bytes(), nil
}

package timetable

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClock parses "HH:MM".
func ParseClock(raw string) (Clock, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return Clock{}, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Valid reports whether the clock lies within a single day.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Date is a civil calendar date without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD date. Out-of-range values are rejected instead of normalised.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Valid reports whether the date exists on the calendar.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return DateOf(d.midnightUTC()) == d
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnightUTC().AddDate(0, 0, n))
}

// Weekday returns the day of the week of the date.
func (d Date) Weekday() time.Weekday {
	return d.midnightUTC().Weekday()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// midnightUTC is used for calendar arithmetic only; it is never an instant a lesson starts at.
func (d Date) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Resolve combines a calendar date with a wall clock in loc into an absolute instant.
// Every conversion from slot rules to instants goes through here.
//
// A wall clock skipped by a forward transition resolves to the transition itself, so a later
// wall clock on the same date never resolves to an earlier instant. Repeated wall clocks take
// the first offset, as time.Date does.
func Resolve(d Date, c Clock, loc *time.Location) time.Time {
	t := time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
	want := time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, time.UTC)
	got := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	switch {
	case got.Equal(want):
		return t
	case got.Before(want):
		if _, end := t.ZoneBounds(); !end.IsZero() {
			return end
		}
	default:
		if start, _ := t.ZoneBounds(); !start.IsZero() {
			return start
		}
	}
	return t
}

// WeeklySlot is a recurring weekly rule: a day of week, a zone and a time range within that day.
type WeeklySlot struct {
	DayOfWeek time.Weekday `json:"dayOfWeek"`
	TimeZone  string       `json:"timeZone"`
	Start     Clock        `json:"start"`
	End       Clock        `json:"end"`
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals share any instant.
// Intervals that only touch at a boundary do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	// negation of (s1 >= e2 || e1 <= s2)
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// LessonOccurrence is one concrete, dated lesson.
type LessonOccurrence struct {
	Start    time.Time `json:"startTime"`
	End      time.Time `json:"endTime"`
	CourseID string    `json:"courseId,omitempty"`
}

// occurrenceOn resolves slot on day. When the whole slot falls inside a skipped stretch of wall
// clock its start and end collapse onto the transition; the lesson then keeps its wall-clock length.
func occurrenceOn(day Date, slot WeeklySlot, loc *time.Location) LessonOccurrence {
	start := Resolve(day, slot.Start, loc)
	end := Resolve(day, slot.End, loc)
	if !end.After(start) {
		end = start.Add(time.Duration(slot.End.Minutes()-slot.Start.Minutes()) * time.Minute)
	}
	return LessonOccurrence{Start: start, End: end}
}

// Interval returns the occurrence as a half-open interval.
func (o LessonOccurrence) Interval() Interval {
	return Interval{Start: o.Start, End: o.End}
}

// BookedInterval is an existing commitment in a tutor's schedule.
type BookedInterval struct {
	ID       string    `json:"id,omitempty"`
	CourseID string    `json:"courseId,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// Interval returns the booking as a half-open interval.
func (b BookedInterval) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

// Request describes a recurring timetable to expand.
type Request struct {
	OpenDay       Date
	NumberLessons int
	Slots         []WeeklySlot
}

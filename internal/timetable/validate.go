package timetable

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidInput matches every *InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid timetable input")

// InvalidInputError identifies the request field that failed validation.
type InvalidInputError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *InvalidInputError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// MaxLessons bounds a single expansion so the day scan always terminates quickly.
const MaxLessons = 10000

// Validate checks the request against the data model. A non-positive NumberLessons is not
// an error and simply expands to nothing.
func Validate(req Request) error {
	if !req.OpenDay.Valid() {
		return invalid("openDay", "%q is not a calendar date", req.OpenDay.String())
	}
	if req.NumberLessons > MaxLessons {
		return invalid("numberLessons", "must not exceed %d, got %d", MaxLessons, req.NumberLessons)
	}
	_, err := validateSlots(req.Slots)
	return err
}

// validateSlots checks each slot, loads its zone and rejects overlapping slots that share a day and zone.
// Slots in different zones can only be compared once resolved; see checkGenerated.
func validateSlots(slots []WeeklySlot) (map[string]*time.Location, error) {
	zones := make(map[string]*time.Location, 1)
	for i, slot := range slots {
		field := fmt.Sprintf("slots[%d]", i)
		if slot.DayOfWeek < time.Sunday || slot.DayOfWeek > time.Saturday {
			return nil, invalid(field+".dayOfWeek", "must be between 0 and 6, got %d", slot.DayOfWeek)
		}
		if !slot.Start.Valid() {
			return nil, invalid(field+".start", "%s is not a time of day", slot.Start)
		}
		if !slot.End.Valid() {
			return nil, invalid(field+".end", "%s is not a time of day", slot.End)
		}
		if slot.End.Minutes() <= slot.Start.Minutes() {
			return nil, invalid(field+".end", "must be after start (%s <= %s)", slot.End, slot.Start)
		}
		if slot.TimeZone == "" {
			return nil, invalid(field+".timeZone", "is required")
		}
		if _, ok := zones[slot.TimeZone]; ok {
			continue
		}
		loc, err := time.LoadLocation(slot.TimeZone)
		if err != nil {
			return nil, invalid(field+".timeZone", "unknown time zone %q", slot.TimeZone)
		}
		zones[slot.TimeZone] = loc
	}

	sorted := SortSlots(slots)
	for i := range sorted {
		for j := i + 1; j < len(sorted) && sorted[j].DayOfWeek == sorted[i].DayOfWeek; j++ {
			a, b := sorted[i], sorted[j]
			if a.TimeZone == b.TimeZone && b.Start.Minutes() < a.End.Minutes() {
				return nil, invalid("slots", "%s %s-%s overlaps %s-%s", b.DayOfWeek, a.Start, a.End, b.Start, b.End)
			}
		}
	}
	return zones, nil
}

// checkGenerated rejects occurrences that overlap each other. occurrences must be sorted by start.
func checkGenerated(occurrences []LessonOccurrence) error {
	for i := 1; i < len(occurrences); i++ {
		prev, cur := occurrences[i-1], occurrences[i]
		if cur.Interval().Overlaps(prev.Interval()) {
			return invalid("slots", "lesson at %s overlaps lesson at %s",
				cur.Start.UTC().Format(time.RFC3339), prev.Start.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// SortSlots returns a copy of slots ordered by day of week, then start, end and zone.
// Expansion cycles through slots in this order, so the result never depends on input order.
func SortSlots(slots []WeeklySlot) []WeeklySlot {
	sorted := make([]WeeklySlot, len(slots))
	copy(sorted, slots)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.Start != b.Start {
			return a.Start.Minutes() < b.Start.Minutes()
		}
		if a.End != b.End {
			return a.End.Minutes() < b.End.Minutes()
		}
		return a.TimeZone < b.TimeZone
	})
	return sorted
}
